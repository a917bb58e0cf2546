// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package search coalesces rapid search-box input into a single
// delayed query against the catalog service.
package search

import (
	"sync"
	"time"
)

// DefaultInterval is the quiet period a burst of keystrokes must
// observe before a search is issued.
const DefaultInterval = 800 * time.Millisecond

// Debouncer is a two-state machine, idle or pending. Every OnInput
// cancels the pending timer, if any, and schedules a fresh one for the
// full interval, so the window resets on every keystroke and at most
// one timer is ever scheduled. When a timer fires the debouncer goes
// idle and performs the search with the text captured at scheduling
// time.
//
// Cancellation only covers scheduled searches; a search already on the
// wire is not aborted. Out-of-order arrivals of such in-flight results
// are the catalog store's problem, which applies responses in issue
// order.
type Debouncer struct {
	interval time.Duration
	perform  func(text string)

	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
}

// NewDebouncer returns an idle debouncer that calls perform with the
// settled query text. A non-positive interval falls back to
// DefaultInterval.
func NewDebouncer(interval time.Duration, perform func(text string)) *Debouncer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Debouncer{interval: interval, perform: perform}
}

// OnInput records a keystroke. Any pending search is cancelled
// unconditionally and the quiet interval restarts from now.
func (d *Debouncer) OnInput(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.interval, func() {
		d.fire(gen, text)
	})
}

// fire runs in the timer goroutine. The generation check makes firing
// and cancellation mutually exclusive: a callback whose timer was
// superseded between expiry and lock acquisition must not perform.
func (d *Debouncer) fire(gen uint64, text string) {
	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	d.perform(text)
}

// Pending reports whether a search is scheduled but not yet fired.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}
