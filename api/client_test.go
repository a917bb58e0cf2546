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

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suprithar2k05/qkart/cart"
)

const productsJSON = `[
	{"name":"iPhone XR","category":"Phones","cost":100,"rating":4,"image":"https://i.imgur.com/lulqWzW.jpg","_id":"v4sLtEcMpzabRyfx"},
	{"name":"Basketball","category":"Sports","cost":100,"rating":5,"image":"https://i.imgur.com/lulqWzW.jpg","_id":"upLK9JbQ4rMhTwt4"}
]`

func TestClient_Products(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/products", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"), "catalog reads are unauthenticated")
		w.Write([]byte(productsJSON))
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/api/v1")
	products, err := c.Products(context.Background())

	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "v4sLtEcMpzabRyfx", products[0].ID)
	assert.Equal(t, "iPhone XR", products[0].Name)
	assert.Equal(t, "Phones", products[0].Category)
	assert.Equal(t, 100.0, products[0].Cost)
	assert.Equal(t, 4, products[0].Rating)
	assert.Equal(t, "https://i.imgur.com/lulqWzW.jpg", products[0].ImageURL)
}

func TestClient_ProductsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"message":"Something went wrong. Check the backend console for more details"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/api/v1")
	_, err := c.Products(context.Background())

	var serverErr *ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, http.StatusInternalServerError, serverErr.StatusCode)
	assert.Contains(t, serverErr.Message, "Something went wrong")
}

func TestClient_TransportFailureIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	c := NewClient(srv.URL + "/api/v1")
	_, err := c.Products(context.Background())

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
}

func TestClient_SearchProducts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/products/search", r.URL.Path)
		assert.Equal(t, "iphone xr", r.URL.Query().Get("value"))
		w.Write([]byte(productsJSON))
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/api/v1")
	products, err := c.SearchProducts(context.Background(), "iphone xr")

	require.NoError(t, err)
	assert.Len(t, products, 2)
}

func TestClient_CartSendsBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/cart", r.URL.Path)
		assert.Equal(t, "Bearer testtoken", r.Header.Get("Authorization"))
		w.Write([]byte(`[{"productId":"p1","qty":2}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/api/v1")
	entries, err := c.Cart(context.Background(), "testtoken")

	require.NoError(t, err)
	assert.Equal(t, []cart.Entry{{ProductID: "p1", Quantity: 2}}, entries)
}

func TestClient_SetQuantity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer testtoken", r.Header.Get("Authorization"))

		var body struct {
			ProductID string `json:"productId"`
			Qty       int    `json:"qty"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "p2", body.ProductID)
		assert.Equal(t, 0, body.Qty)

		// qty 0 removed p2; the response is the full replacement cart.
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`[{"productId":"p1","qty":1}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/api/v1")
	entries, err := c.SetQuantity(context.Background(), "testtoken", "p2", 0)

	require.NoError(t, err)
	assert.Equal(t, []cart.Entry{{ProductID: "p1", Quantity: 1}}, entries)
}

func TestClient_SetQuantityAccepts201(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`[{"productId":"p1","qty":1}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/api/v1")
	entries, err := c.SetQuantity(context.Background(), "testtoken", "p1", 1)

	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestClient_Login(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/auth/login", r.URL.Path)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"success":true,"token":"testtoken","username":"criodo","balance":5000}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/api/v1")
	session, err := c.Login(context.Background(), "criodo", "criopass")

	require.NoError(t, err)
	assert.Equal(t, "testtoken", session.Token)
	assert.Equal(t, "criodo", session.Username)
	assert.Equal(t, 5000.0, session.Balance)
}

func TestClient_LoginRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"success":false,"message":"Password is incorrect"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/api/v1")
	_, err := c.Login(context.Background(), "criodo", "wrong")

	var serverErr *ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, http.StatusBadRequest, serverErr.StatusCode)
	assert.Equal(t, "Password is incorrect", serverErr.Message)
}

func TestClient_Register(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/auth/register", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "newuser", body["username"])
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/api/v1")
	err := c.Register(context.Background(), "newuser", "newpass")

	assert.NoError(t, err)
}
