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

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrAuthRequired is returned when a mutation is attempted without
	// a credential. It short-circuits before any network call; callers
	// should redirect to login.
	ErrAuthRequired = errors.New("cart: authentication required")

	// ErrDuplicateItem is the local policy rejection for adding a
	// product that is already in the cart. The user should adjust the
	// quantity from the cart sidebar instead.
	ErrDuplicateItem = errors.New("cart: item already in cart")

	// ErrMutationInFlight is returned when a second mutation for the
	// same product is attempted while one is still outstanding.
	ErrMutationInFlight = errors.New("cart: mutation already in flight for product")
)

// ValidationError reports malformed local input, rejected before any
// network call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("cart: invalid %s: %s", e.Field, e.Reason)
}

// Service is the remote cart endpoint. SetQuantity returns the full
// replacement entry set held by the server after the mutation; a
// quantity of zero removes the entry server-side.
type Service interface {
	Cart(ctx context.Context, token string) ([]Entry, error)
	SetQuantity(ctx context.Context, token, productID string, qty int) ([]Entry, error)
}

// Mutator issues quantity-changing intents against the cart service
// and feeds the authoritative results back into the shared State.
//
// Mutations for the same product are serialized: a call arriving while
// another is outstanding for that product is rejected with
// ErrMutationInFlight rather than risking out-of-order setQuantity
// calls on the server.
type Mutator struct {
	svc   Service
	state *State

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewMutator wires a mutator to the remote service and the shared
// cart state it maintains.
func NewMutator(svc Service, state *State) *Mutator {
	return &Mutator{
		svc:      svc,
		state:    state,
		inFlight: make(map[string]struct{}),
	}
}

// Refresh fetches the current cart and replaces the held state.
func (m *Mutator) Refresh(ctx context.Context, token string) ([]Entry, error) {
	if token == "" {
		return nil, ErrAuthRequired
	}
	entries, err := m.svc.Cart(ctx, token)
	if err != nil {
		return nil, err
	}
	m.state.Replace(entries)
	return entries, nil
}

// Add puts one unit of a product into the cart. Adding a product that
// is already present is rejected with ErrDuplicateItem before the
// quantity is touched. The duplicate check only runs against known
// state: if the cart was never fetched, Add refreshes it first so a
// quantity the server already holds is not reset to one.
func (m *Mutator) Add(ctx context.Context, token, productID string) ([]Entry, error) {
	if token == "" {
		return nil, ErrAuthRequired
	}
	if productID == "" {
		return nil, &ValidationError{Field: "productId", Reason: "must not be empty"}
	}
	entries, loaded := m.state.Entries()
	if !loaded {
		var err error
		entries, err = m.Refresh(ctx, token)
		if err != nil {
			return nil, err
		}
	}
	for _, e := range entries {
		if e.ProductID == productID && e.Quantity > 0 {
			return nil, ErrDuplicateItem
		}
	}
	return m.SetQuantity(ctx, token, productID, 1)
}

// Increment raises the product's quantity by one.
func (m *Mutator) Increment(ctx context.Context, token, productID string) ([]Entry, error) {
	return m.SetQuantity(ctx, token, productID, m.currentQuantity(productID)+1)
}

// Decrement lowers the product's quantity by one. Dropping to zero
// removes the entry server-side; going below zero is rejected locally.
func (m *Mutator) Decrement(ctx context.Context, token, productID string) ([]Entry, error) {
	return m.SetQuantity(ctx, token, productID, m.currentQuantity(productID)-1)
}

// SetQuantity issues the remote mutation and, on success, replaces the
// held cart state with exactly what the server returned. On any
// failure the previously held state is left untouched.
func (m *Mutator) SetQuantity(ctx context.Context, token, productID string, qty int) ([]Entry, error) {
	if token == "" {
		return nil, ErrAuthRequired
	}
	if productID == "" {
		return nil, &ValidationError{Field: "productId", Reason: "must not be empty"}
	}
	if qty < 0 {
		return nil, &ValidationError{Field: "qty", Reason: "must not be negative"}
	}
	if !m.begin(productID) {
		return nil, ErrMutationInFlight
	}
	defer m.end(productID)

	entries, err := m.svc.SetQuantity(ctx, token, productID, qty)
	if err != nil {
		return nil, err
	}
	m.state.Replace(entries)
	return entries, nil
}

func (m *Mutator) currentQuantity(productID string) int {
	entries, _ := m.state.Entries()
	for _, e := range entries {
		if e.ProductID == productID {
			return e.Quantity
		}
	}
	return 0
}

func (m *Mutator) begin(productID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.inFlight[productID]; busy {
		return false
	}
	m.inFlight[productID] = struct{}{}
	return true
}

func (m *Mutator) end(productID string) {
	m.mu.Lock()
	delete(m.inFlight, productID)
	m.mu.Unlock()
}
