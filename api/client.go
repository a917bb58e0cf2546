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

// Package api is the HTTP client for the remote QKart service: product
// catalog, per-user cart and auth endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/suprithar2k05/qkart/cart"
	"github.com/suprithar2k05/qkart/catalog"
)

// Client talks to the QKart service rooted at endpoint, e.g.
// "http://localhost:8082/api/v1".
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient returns a client with the default 10s request timeout.
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// NewClientWithHTTP returns a client using the supplied http.Client,
// e.g. one wrapped with otelhttp.
func NewClientWithHTTP(endpoint string, hc *http.Client) *Client {
	return &Client{endpoint: endpoint, httpClient: hc}
}

// Session is the result of a successful login.
type Session struct {
	Token    string  `json:"token"`
	Username string  `json:"username"`
	Balance  float64 `json:"balance"`
}

// apiError is the failure body shape, {"success":false,"message":...}.
type apiError struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Products fetches the full product listing (GET /products).
func (c *Client) Products(ctx context.Context) ([]catalog.Product, error) {
	var products []catalog.Product
	if err := c.get(ctx, "productcatalog", c.endpoint+"/products", "", &products); err != nil {
		return nil, err
	}
	return products, nil
}

// SearchProducts fetches products matching query
// (GET /products/search?value=). The server matches case-insensitively
// on name and category; an empty query returns the full catalog.
func (c *Client) SearchProducts(ctx context.Context, query string) ([]catalog.Product, error) {
	searchURL := fmt.Sprintf("%s/products/search?value=%s", c.endpoint, url.QueryEscape(query))
	var products []catalog.Product
	if err := c.get(ctx, "productcatalog", searchURL, "", &products); err != nil {
		return nil, err
	}
	return products, nil
}

// Cart fetches the caller's cart entries (GET /cart, authenticated).
func (c *Client) Cart(ctx context.Context, token string) ([]cart.Entry, error) {
	var entries []cart.Entry
	if err := c.get(ctx, "cart", c.endpoint+"/cart", token, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// SetQuantity posts the target quantity for a product (POST /cart,
// authenticated) and returns the full replacement entry set held by
// the server. A quantity of zero removes the entry server-side.
func (c *Client) SetQuantity(ctx context.Context, token, productID string, qty int) ([]cart.Entry, error) {
	payload := struct {
		ProductID string `json:"productId"`
		Qty       int    `json:"qty"`
	}{ProductID: productID, Qty: qty}

	var entries []cart.Entry
	if err := c.post(ctx, "cart", c.endpoint+"/cart", token, payload, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Login exchanges credentials for a session token (POST /auth/login).
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	payload := struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}{Username: username, Password: password}

	var session Session
	if err := c.post(ctx, "auth", c.endpoint+"/auth/login", "", payload, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Register creates an account (POST /auth/register).
func (c *Client) Register(ctx context.Context, username, password string) error {
	payload := struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}{Username: username, Password: password}
	return c.post(ctx, "auth", c.endpoint+"/auth/register", "", payload, nil)
}

func (c *Client) get(ctx context.Context, op, rawURL, token string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	return c.do(op, req, token, out)
}

func (c *Client) post(ctx context.Context, op, rawURL, token string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(body))
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(op, req, token, out)
}

func (c *Client) do(op string, req *http.Request, token string, out interface{}) error {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiError
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return &ServerError{Op: op, StatusCode: resp.StatusCode, Message: apiErr.Message}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	return nil
}
