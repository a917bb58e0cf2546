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

// Package catalog holds the product catalog fetched from the remote
// catalog service and keeps the displayed result set consistent when
// loads and searches overlap in flight.
package catalog

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
)

// Product is a catalog record as served by the remote service.
// Products are immutable once fetched; identity is the _id field.
type Product struct {
	ID       string  `json:"_id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Cost     float64 `json:"cost"`
	Rating   int     `json:"rating"`
	ImageURL string  `json:"image"`
}

// Fetcher is the remote catalog endpoint the store reads from.
type Fetcher interface {
	Products(ctx context.Context) ([]Product, error)
	SearchProducts(ctx context.Context, query string) ([]Product, error)
}

// Store holds the catalog state for one storefront session.
//
// Two product sets are kept: the full listing from the last successful
// Load, and the visible set currently shown to the user, which a search
// replaces wholesale. Cart reconciliation reads the full listing so a
// narrowed search view never hides cart rows.
//
// Every Load/Search takes an issue number before hitting the network and
// a response is applied only if no higher-numbered response has been
// applied already, so results land in issue order, not arrival order.
type Store struct {
	fetcher Fetcher

	issued atomic.Int64

	mu      sync.RWMutex
	applied int64
	listing []Product
	visible []Product
	loaded  bool
}

// NewStore creates an empty store reading from f.
func NewStore(f Fetcher) *Store {
	return &Store{fetcher: f}
}

// Load fetches the full catalog and atomically replaces both the
// listing and the visible set. On failure the held state is untouched
// and the error carries the typed api failure.
func (s *Store) Load(ctx context.Context) ([]Product, error) {
	seq := s.issued.Add(1)
	products, err := s.fetcher.Products(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load catalog")
	}
	s.apply(seq, products, true)
	return products, nil
}

// Search fetches the products matching query and replaces the visible
// set with the result. An empty query returns the full listing per the
// endpoint contract.
//
// On failure Search returns an empty, non-nil slice together with the
// error: the visible set becomes empty so the UI shows "no products
// found", while the error lets the caller tell a broken search apart
// from a search that matched nothing.
func (s *Store) Search(ctx context.Context, query string) ([]Product, error) {
	seq := s.issued.Add(1)
	products, err := s.fetcher.SearchProducts(ctx, query)
	if err != nil {
		s.apply(seq, []Product{}, false)
		return []Product{}, errors.Wrap(err, "search catalog")
	}
	if products == nil {
		products = []Product{}
	}
	s.apply(seq, products, false)
	return products, nil
}

// apply installs a fetched result set if it is still the newest one.
// Stale in-flight responses are dropped, never merged.
func (s *Store) apply(seq int64, products []Product, full bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.applied {
		return false
	}
	s.applied = seq
	s.visible = products
	if full {
		s.listing = products
		s.loaded = true
	}
	return true
}

// Visible returns a copy of the product set currently displayed.
func (s *Store) Visible() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyProducts(s.visible)
}

// Listing returns a copy of the full catalog from the last Load.
func (s *Store) Listing() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyProducts(s.listing)
}

// Loaded reports whether a full catalog load has succeeded.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Reset drops all held catalog state, e.g. on logout.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listing = nil
	s.visible = nil
	s.loaded = false
	s.applied = s.issued.Load()
}

func copyProducts(in []Product) []Product {
	out := make([]Product, len(in))
	copy(out, in)
	return out
}
