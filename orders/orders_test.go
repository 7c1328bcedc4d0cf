/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2025 Shikhar Lohiya
 *
 * See CONTRIBUTORS.md for full contributor list.
 */

package orders

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

func TestListRequiresCustomerPhone(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("No request should be sent without a customer phone")
	}))

	if _, err := client.List(nil); err == nil {
		t.Error("Expected error for missing customerPhone")
	}
	if _, err := client.List(&ListOptions{}); err == nil {
		t.Error("Expected error for empty customerPhone")
	}
}

func TestListByCustomer(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("customerPhone"); got != "9876543210" {
			t.Errorf("Unexpected customerPhone param: %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"data":{"orders":[
			{"id":"o1","customerPhone":"9876543210","status":"pending","amount":499.5}
		]}}`))
	}))

	orders, err := client.List(&ListOptions{CustomerPhone: "9876543210"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("Expected 1 order, got %d", len(orders))
	}
	if orders[0].ID != "o1" || orders[0].Amount != 499.5 {
		t.Errorf("Unexpected order: %+v", orders[0])
	}
}

func TestGet(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orders/o1" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"success":true,"data":{"id":"o1","status":"shipped"}}`))
	}))

	order, err := client.Get("o1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if order.Status != "shipped" {
		t.Errorf("Unexpected status: %s", order.Status)
	}
}

func TestCreate(t *testing.T) {
	var body Order
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Unexpected method: %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("Failed to decode body: %v", err)
		}
		w.Write([]byte(`{"success":true,"data":{"id":"o2","customerPhone":"9876543210","status":"pending"}}`))
	}))

	created, err := client.Create(&Order{CustomerPhone: "9876543210", Description: "replacement unit"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID != "o2" {
		t.Errorf("Unexpected order ID: %s", created.ID)
	}
	if body.Description != "replacement unit" {
		t.Errorf("Unexpected request body: %+v", body)
	}
}

func TestUpdateStatus(t *testing.T) {
	var body map[string]string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("Unexpected method: %s", r.Method)
		}
		if r.URL.Path != "/orders/o1/status" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("Failed to decode body: %v", err)
		}
		w.Write([]byte(`{"success":true,"data":{"id":"o1","status":"cancelled"}}`))
	}))

	order, err := client.UpdateStatus("o1", "cancelled")
	if err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	if order.Status != "cancelled" {
		t.Errorf("Unexpected status: %s", order.Status)
	}
	if body["status"] != "cancelled" {
		t.Errorf("Unexpected request body: %v", body)
	}
}

func TestRefusalSurfacesGatewayError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"order not found"}`))
	}))

	_, err := client.Get("missing")
	if !consolesdk.IsGateway(err) {
		t.Fatalf("Expected GatewayError, got %T: %v", err, err)
	}
}
