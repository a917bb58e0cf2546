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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/suprithar2k05/qkart/api"
	"github.com/suprithar2k05/qkart/cart"
	"github.com/suprithar2k05/qkart/validator"
)

const (
	cookieToken    = cookiePrefix + "token"
	cookieUsername = cookiePrefix + "username"
	cookieBalance  = cookiePrefix + "balance"
)

type cartView struct {
	Items []cart.LineItem `json:"items"`
	Total float64         `json:"total"`
}

// productsHandler returns the catalog currently displayed, loading the
// full listing from the remote service on first use (GET /products).
func (fe *frontendServer) productsHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)

	if !fe.catalog.Loaded() {
		if _, err := fe.catalog.Load(r.Context()); err != nil {
			renderJSONError(log, w, pkgerrors.Wrap(err, "could not retrieve products"), http.StatusInternalServerError)
			return
		}
	}
	writeJSON(log, w, http.StatusOK, fe.catalog.Visible())
}

// searchHandler records a keystroke from the search box
// (GET /search?value=). The query is debounced: it only reaches the
// catalog service once input has been quiet for the configured
// interval, and the displayed set updates via /products once the
// result lands.
func (fe *frontendServer) searchHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	value := r.URL.Query().Get("value")
	log.WithField("query", value).Debug("search input")

	fe.debouncer.OnInput(value)
	writeJSON(log, w, http.StatusAccepted, map[string]interface{}{
		"success": true,
		"message": "search scheduled",
	})
}

// viewCartHandler returns the reconciled cart with its order total
// (GET /cart, authenticated).
func (fe *frontendServer) viewCartHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	log.Debug("view user cart")

	token := getAuthToken(r)
	entries, err := fe.mutator.Refresh(r.Context(), token)
	if err != nil {
		fe.renderCartError(log, w, err)
		return
	}
	fe.renderCart(log, w, r, http.StatusOK, entries)
}

// addToCartHandler puts one unit of a product in the cart
// (POST /cart). Adding a product already present is rejected without a
// network call; the user adjusts quantity from the cart sidebar.
func (fe *frontendServer) addToCartHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	productID := r.FormValue("product_id")
	payload := validator.AddToCartPayload{ProductID: productID}
	if err := payload.Validate(); err != nil {
		renderJSONError(log, w, validator.ValidationErrorResponse(err), http.StatusUnprocessableEntity)
		return
	}
	log.WithField("product", productID).Debug("adding to cart")

	entries, err := fe.mutator.Add(r.Context(), getAuthToken(r), productID)
	if err != nil {
		fe.renderCartError(log, w, err)
		return
	}
	fe.renderCart(log, w, r, http.StatusOK, entries)
}

// incrementCartHandler raises a product's quantity by one
// (POST /cart/increment).
func (fe *frontendServer) incrementCartHandler(w http.ResponseWriter, r *http.Request) {
	fe.updateQuantity(w, r, "incrementing cart item", fe.mutator.Increment)
}

// decrementCartHandler lowers a product's quantity by one
// (POST /cart/decrement). Reaching zero removes the entry server-side.
func (fe *frontendServer) decrementCartHandler(w http.ResponseWriter, r *http.Request) {
	fe.updateQuantity(w, r, "decrementing cart item", fe.mutator.Decrement)
}

func (fe *frontendServer) updateQuantity(w http.ResponseWriter, r *http.Request, action string,
	mutate func(ctx context.Context, token, productID string) ([]cart.Entry, error)) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	productID := r.FormValue("product_id")
	payload := validator.UpdateCartPayload{ProductID: productID}
	if err := payload.Validate(); err != nil {
		renderJSONError(log, w, validator.ValidationErrorResponse(err), http.StatusUnprocessableEntity)
		return
	}
	log.WithField("product", productID).Debug(action)

	entries, err := mutate(r.Context(), getAuthToken(r), productID)
	if err != nil {
		fe.renderCartError(log, w, err)
		return
	}
	fe.renderCart(log, w, r, http.StatusOK, entries)
}

// loginSubmitHandler proxies the login form to the auth endpoint and
// persists the session in cookies (POST /login).
func (fe *frontendServer) loginSubmitHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	payload := validator.LoginPayload{
		Username: strings.TrimSpace(r.FormValue("username")),
		Password: r.FormValue("password"),
	}
	if err := payload.Validate(); err != nil {
		renderJSONError(log, w, validator.ValidationErrorResponse(err), http.StatusUnprocessableEntity)
		return
	}

	session, err := fe.apiClient.Login(r.Context(), payload.Username, payload.Password)
	if err != nil {
		log.WithField("error", err).Warn("login failed")
		fe.renderCartError(log, w, err)
		return
	}

	setSessionCookies(w, session)
	log.WithField("username", session.Username).Info("user logged in successfully")
	writeJSON(log, w, http.StatusCreated, map[string]interface{}{
		"success":  true,
		"token":    session.Token,
		"username": session.Username,
		"balance":  session.Balance,
	})
}

// registerSubmitHandler proxies the registration form to the auth
// endpoint (POST /register).
func (fe *frontendServer) registerSubmitHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	payload := validator.RegisterPayload{
		Username:        strings.TrimSpace(r.FormValue("username")),
		Password:        r.FormValue("password"),
		ConfirmPassword: r.FormValue("confirm_password"),
	}
	if err := payload.Validate(); err != nil {
		renderJSONError(log, w, validator.ValidationErrorResponse(err), http.StatusUnprocessableEntity)
		return
	}

	if err := fe.apiClient.Register(r.Context(), payload.Username, payload.Password); err != nil {
		log.WithField("error", err).Warn("registration failed")
		fe.renderCartError(log, w, err)
		return
	}

	log.WithField("username", payload.Username).Info("user registered successfully")
	writeJSON(log, w, http.StatusCreated, map[string]interface{}{"success": true})
}

// logoutHandler clears the session cookies and forgets the local cart
// state (GET /logout). The catalog is not per-user and stays loaded.
func (fe *frontendServer) logoutHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	log.Debug("logging out")
	for _, c := range r.Cookies() {
		c.Expires = time.Now().Add(-time.Hour * 24 * 365)
		c.MaxAge = -1
		http.SetCookie(w, c)
	}
	fe.cartState.Reset()
	writeJSON(log, w, http.StatusOK, map[string]interface{}{"success": true})
}

// renderCart reconciles the given entries against the full catalog
// listing and writes the display-ready view. The listing is fetched
// lazily so a cart viewed before any product browsing still resolves
// its rows.
func (fe *frontendServer) renderCart(log logrus.FieldLogger, w http.ResponseWriter, r *http.Request, status int, entries []cart.Entry) {
	if !fe.catalog.Loaded() {
		if _, err := fe.catalog.Load(r.Context()); err != nil {
			renderJSONError(log, w, pkgerrors.Wrap(err, "could not retrieve products"), http.StatusInternalServerError)
			return
		}
	}
	items := cart.Reconcile(entries, fe.catalog.Listing())
	writeJSON(log, w, status, cartView{Items: items, Total: cart.TotalValue(items)})
}

// renderCartError maps the typed failure taxonomy onto HTTP statuses.
// Local policy rejections never reached the network; remote failures
// left the previously held cart state untouched.
func (fe *frontendServer) renderCartError(log logrus.FieldLogger, w http.ResponseWriter, err error) {
	switch {
	case pkgerrors.Is(err, cart.ErrAuthRequired):
		renderJSONError(log, w, fmt.Errorf("login to continue"), http.StatusUnauthorized)
	case pkgerrors.Is(err, cart.ErrDuplicateItem):
		renderJSONError(log, w, fmt.Errorf("item already in cart, use the cart sidebar to update quantity or remove item"), http.StatusConflict)
	case pkgerrors.Is(err, cart.ErrMutationInFlight):
		renderJSONError(log, w, fmt.Errorf("a change for this item is still in progress"), http.StatusConflict)
	default:
		var validationErr *cart.ValidationError
		var serverErr *api.ServerError
		if pkgerrors.As(err, &validationErr) {
			renderJSONError(log, w, validationErr, http.StatusUnprocessableEntity)
			return
		}
		if pkgerrors.As(err, &serverErr) {
			renderJSONError(log, w, fmt.Errorf("%s", serverErr.Message), serverErr.StatusCode)
			return
		}
		renderJSONError(log, w, pkgerrors.Wrap(err, "backend unavailable"), http.StatusBadGateway)
	}
}

func renderJSONError(log logrus.FieldLogger, w http.ResponseWriter, err error, code int) {
	log.WithField("error", err).Error("request error")
	writeJSON(log, w, code, map[string]interface{}{
		"success": false,
		"message": err.Error(),
	})
}

func writeJSON(log logrus.FieldLogger, w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error(err)
	}
}

func setSessionCookies(w http.ResponseWriter, session *api.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:   cookieToken,
		Value:  session.Token,
		MaxAge: cookieMaxAge,
		Path:   "/",
	})
	http.SetCookie(w, &http.Cookie{
		Name:   cookieUsername,
		Value:  session.Username,
		MaxAge: cookieMaxAge,
		Path:   "/",
	})
	http.SetCookie(w, &http.Cookie{
		Name:   cookieBalance,
		Value:  fmt.Sprintf("%g", session.Balance),
		MaxAge: cookieMaxAge,
		Path:   "/",
	})
}

// getAuthToken prefers an explicit bearer header; the cookie set at
// login covers browser clients.
func getAuthToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	c, err := r.Cookie(cookieToken)
	if err != nil {
		return ""
	}
	return c.Value
}
