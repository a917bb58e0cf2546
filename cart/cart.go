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

// Package cart reconciles the sparse server-side cart against the
// product catalog and issues quantity mutations to the cart service.
// The server is the single source of truth for quantities: the local
// entry set is only ever replaced wholesale with what the server
// returned, never incremented client-side.
package cart

import "github.com/suprithar2k05/qkart/catalog"

// Entry is a server-held cart record: a product id and its quantity.
type Entry struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"qty"`
}

// LineItem is an Entry enriched with full product data for display
// and totals. Line items are derived state, recomputed on every cart
// or catalog change, and never persisted.
type LineItem struct {
	catalog.Product
	Quantity int `json:"qty"`
}

// Reconcile merges cart entries with the catalog into display-ready
// line items. Entries whose product is not in the catalog are dropped
// silently (the catalog may be a filtered subset), as are entries with
// a non-positive quantity, so a removed or stale row never renders as
// a zero or broken line. Output preserves entry order.
//
// The result is always non-nil: an empty cart reconciles to an empty
// slice, which callers can tell apart from a cart that was never
// fetched (see State.Entries).
func Reconcile(entries []Entry, products []catalog.Product) []LineItem {
	byID := make(map[string]catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	items := make([]LineItem, 0, len(entries))
	for _, e := range entries {
		if e.Quantity <= 0 {
			continue
		}
		p, ok := byID[e.ProductID]
		if !ok {
			continue
		}
		items = append(items, LineItem{Product: p, Quantity: e.Quantity})
	}
	return items
}

// TotalValue returns the order total, Σ quantity × cost.
func TotalValue(items []LineItem) float64 {
	var total float64
	for _, it := range items {
		total += float64(it.Quantity) * it.Cost
	}
	return total
}

// IsInCart reports whether some line item carries the given product id.
func IsInCart(productID string, items []LineItem) bool {
	for _, it := range items {
		if it.ID == productID {
			return true
		}
	}
	return false
}
