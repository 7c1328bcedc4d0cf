/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2025 Shikhar Lohiya
 *
 * See CONTRIBUTORS.md for full contributor list.
 */

package callsession

import (
	"sync"
	"time"
)

// The duration ticker is subordinate to the Store: it increments the
// session's duration once per interval while the state is active, and the
// Store stops it on any transition away from active. The tick loop re-checks
// the state under the Store's lock before each increment, so a tick that
// raced a transition never lands.

// defaultNewTicker adapts time.Ticker to the channel-plus-stop contract:
// the returned channel is closed when stop is called, which terminates any
// range loop over it.
func defaultNewTicker(d time.Duration) (<-chan time.Time, func()) {
	ticker := time.NewTicker(d)
	out := make(chan time.Time)
	done := make(chan struct{})

	go func() {
		defer close(out)
		defer ticker.Stop()
		for {
			select {
			case tm := <-ticker.C:
				select {
				case out <- tm:
				case <-done:
					return
				}
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() { close(done) })
	}
	return out, stop
}

// defaultAfterFunc schedules f after d and returns a cancel function
func defaultAfterFunc(d time.Duration, f func()) func() {
	timer := time.AfterFunc(d, f)
	return func() { timer.Stop() }
}

// startTickerLocked starts the duration ticker. Caller must hold s.mu and
// have just entered the active state.
func (s *Store) startTickerLocked() {
	if s.stopTicker != nil {
		return
	}

	ch, stop := s.config.newTicker(s.config.TickInterval)
	s.stopTicker = stop

	go func() {
		for range ch {
			s.mu.Lock()
			if s.state != StateActive {
				// A transition raced this tick; never land a late increment
				s.mu.Unlock()
				return
			}
			s.duration++
			s.mu.Unlock()
			s.notify()
		}
	}()
}

// stopTickerLocked stops the duration ticker. Caller must hold s.mu.
func (s *Store) stopTickerLocked() {
	if s.stopTicker != nil {
		s.stopTicker()
		s.stopTicker = nil
	}
}
