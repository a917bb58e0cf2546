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

package cart

import "sync"

// State holds the authoritative cart-entries array shared between the
// mutator (writer) and reconciliation (reader). It is only ever
// replaced wholesale; readers never observe a partial update.
type State struct {
	mu      sync.RWMutex
	entries []Entry
	loaded  bool
}

// NewState returns an unloaded state: no cart has been fetched yet,
// which is distinct from a fetched-but-empty cart.
func NewState() *State {
	return &State{}
}

// Replace swaps in the full entry set returned by the server.
func (s *State) Replace(entries []Entry) {
	next := make([]Entry, len(entries))
	copy(next, entries)
	s.mu.Lock()
	s.entries = next
	s.loaded = true
	s.mu.Unlock()
}

// Entries returns a snapshot of the held entries and whether the cart
// has been fetched at all. A (empty, true) result means the cart truly
// has zero items; (empty, false) means it is simply unknown.
func (s *State) Entries() ([]Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out, s.loaded
}

// Reset forgets the cart, e.g. on logout.
func (s *State) Reset() {
	s.mu.Lock()
	s.entries = nil
	s.loaded = false
	s.mu.Unlock()
}
