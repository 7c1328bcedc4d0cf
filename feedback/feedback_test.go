/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2025 Shikhar Lohiya
 *
 * See CONTRIBUTORS.md for full contributor list.
 */

package feedback

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shikharlohiya/agentconsole-sdk/consolesdk"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	core, err := consolesdk.NewClient(&consolesdk.Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Failed to create core client: %v", err)
	}

	return New(core, nil)
}

func TestSubmit(t *testing.T) {
	var body Feedback
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/feedback" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("Failed to decode body: %v", err)
		}
		w.Write([]byte(`{"success":true,"data":{"id":"f1","category":"complaint"}}`))
	}))

	result, err := client.Submit(&Feedback{
		CustomerPhone: "9876543210",
		CallID:        "call-42",
		Category:      "complaint",
		Rating:        2,
		Comments:      "long hold time",
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if result.ID != "f1" {
		t.Errorf("Unexpected feedback ID: %s", result.ID)
	}
	if body.Comments != "long hold time" || body.CallID != "call-42" {
		t.Errorf("Unexpected request body: %+v", body)
	}
}

func TestSubmitValidation(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("No request should be sent for invalid input")
	}))

	if _, err := client.Submit(nil); err == nil {
		t.Error("Expected error for nil feedback")
	}
	if _, err := client.Submit(&Feedback{Category: "complaint"}); err == nil {
		t.Error("Expected error for missing customerPhone")
	}
	if _, err := client.Submit(&Feedback{CustomerPhone: "9876543210"}); err == nil {
		t.Error("Expected error for missing category")
	}
}

func TestListByCustomer(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("customerPhone"); got != "9876543210" {
			t.Errorf("Unexpected customerPhone param: %s", got)
		}
		w.Write([]byte(`{"success":true,"data":{"feedback":[
			{"id":"f1","category":"complaint","rating":2},
			{"id":"f2","category":"praise","rating":5}
		]}}`))
	}))

	records, err := client.ListByCustomer("9876543210")
	if err != nil {
		t.Fatalf("ListByCustomer failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[1].Rating != 5 {
		t.Errorf("Unexpected rating: %d", records[1].Rating)
	}
}

func TestRefusalSurfacesGatewayError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"message":"customer not found"}`))
	}))

	_, err := client.ListByCustomer("9876543210")
	if !consolesdk.IsGateway(err) {
		t.Fatalf("Expected GatewayError, got %T: %v", err, err)
	}
}
