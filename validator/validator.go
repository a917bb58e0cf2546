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

// Package validator validates handler payloads before they reach the
// cart or auth services.
package validator

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// AddToCartPayload is the add-to-cart form input.
type AddToCartPayload struct {
	ProductID string `validate:"required"`
}

func (p AddToCartPayload) Validate() error {
	return validate.Struct(p)
}

// UpdateCartPayload is the increment/decrement form input.
type UpdateCartPayload struct {
	ProductID string `validate:"required"`
}

func (p UpdateCartPayload) Validate() error {
	return validate.Struct(p)
}

// LoginPayload is the login form input.
type LoginPayload struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

func (p LoginPayload) Validate() error {
	return validate.Struct(p)
}

// RegisterPayload is the registration form input. Username and
// password must be at least 6 characters and the confirmation must
// match the password.
type RegisterPayload struct {
	Username        string `validate:"required,min=6"`
	Password        string `validate:"required,min=6"`
	ConfirmPassword string `validate:"required,eqfield=Password"`
}

func (p RegisterPayload) Validate() error {
	return validate.Struct(p)
}

// ValidationErrorResponse flattens validator field errors into a
// single user-presentable error.
func ValidationErrorResponse(err error) error {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(errs))
	for _, fe := range errs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is a required field", fe.Field()))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param()))
		case "eqfield":
			msgs = append(msgs, fmt.Sprintf("%s must match %s", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}
