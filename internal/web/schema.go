// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sheetshelf Contributors

package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/samber/oops"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/sheetshelf/sheetshelf/pkg/errutil"
)

// MaxBodyBytes bounds request bodies.
const MaxBodyBytes = 1 << 20

// SchemaBaseURL prefixes the $id of every request schema.
const SchemaBaseURL = "https://sheetshelf.dev/schemas/"

// NewUserRequest is the body of POST /users.
type NewUserRequest struct {
	Username string `json:"username" jsonschema:"minLength=3,maxLength=30,pattern=^[a-zA-Z][a-zA-Z0-9_]*$"`
	Name     string `json:"name" jsonschema:"minLength=1,maxLength=100"`
	Email    string `json:"email" jsonschema:"format=email"`
	Password string `json:"password" jsonschema:"minLength=1"`
	IsAdmin  bool   `json:"isAdmin,omitempty"`
}

// RegistrationRequest is the body of POST /auth/register.
type RegistrationRequest struct {
	Username string `json:"username" jsonschema:"minLength=3,maxLength=30,pattern=^[a-zA-Z][a-zA-Z0-9_]*$"`
	Name     string `json:"name" jsonschema:"minLength=1,maxLength=100"`
	Email    string `json:"email" jsonschema:"format=email"`
	Password string `json:"password" jsonschema:"minLength=1"`
}

// UpdateUserRequest is the body of PATCH /users/{username}.
type UpdateUserRequest struct {
	Password string  `json:"password" jsonschema:"minLength=1"`
	Name     *string `json:"name,omitempty" jsonschema:"minLength=1,maxLength=100"`
	Email    *string `json:"email,omitempty" jsonschema:"format=email"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" jsonschema:"minLength=1"`
	Password string `json:"password" jsonschema:"minLength=1"`
}

// NewWorkRequest is the body of POST /works.
type NewWorkRequest struct {
	ExternalID *string `json:"externalId,omitempty" jsonschema:"minLength=1,maxLength=64"`
	Title      *string `json:"title,omitempty" jsonschema:"maxLength=300"`
	Composer   *string `json:"composer,omitempty" jsonschema:"maxLength=300"`
}

// UpdateEntryRequest is the body of PATCH /users/{username}/userLib/{workId}.
type UpdateEntryRequest struct {
	Owned     *bool   `json:"owned,omitempty"`
	Played    *bool   `json:"played,omitempty"`
	Digital   *bool   `json:"digital,omitempty"`
	Physical  *bool   `json:"physical,omitempty"`
	Notes     *string `json:"notes,omitempty" jsonschema:"maxLength=4000"`
	LoanedOut *bool   `json:"loanedOut,omitempty"`
	Borrower  *string `json:"borrower,omitempty" jsonschema:"maxLength=100"`
}

// Schema names.
const (
	SchemaNewUser      = "NewUser"
	SchemaRegistration = "Registration"
	SchemaUpdateUser   = "UpdateUser"
	SchemaLogin        = "Login"
	SchemaNewWork      = "NewWork"
	SchemaUpdateEntry  = "UpdateEntry"
)

var requestShapes = map[string]any{
	SchemaNewUser:      &NewUserRequest{},
	SchemaRegistration: &RegistrationRequest{},
	SchemaUpdateUser:   &UpdateUserRequest{},
	SchemaLogin:        &LoginRequest{},
	SchemaNewWork:      &NewWorkRequest{},
	SchemaUpdateEntry:  &UpdateEntryRequest{},
}

// SchemaNames lists the named request schemas in sorted order.
func SchemaNames() []string {
	names := make([]string, 0, len(requestShapes))
	for name := range requestShapes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GenerateSchema reflects the named request shape into a JSON Schema document.
func GenerateSchema(name string) ([]byte, error) {
	shape, ok := requestShapes[name]
	if !ok {
		return nil, oops.Code("SCHEMA_UNKNOWN").With("schema", name).Errorf("unknown schema %q", name)
	}

	r := jsonschema.Reflector{
		DoNotReference: true,
	}
	schema := r.Reflect(shape)
	schema.ID = jsonschema.ID(SchemaBaseURL + name + ".json")
	schema.Title = name

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, oops.Code("SCHEMA_GENERATE_FAILED").With("schema", name).Wrap(err)
	}
	return data, nil
}

// Validator checks request bodies against the compiled request schemas.
// It is immutable after construction.
type Validator struct {
	schemas map[string]*jschema.Schema
}

// NewValidator compiles every request schema.
func NewValidator() (*Validator, error) {
	c := jschema.NewCompiler()
	c.AssertFormat()

	urls := make(map[string]string, len(requestShapes))
	for _, name := range SchemaNames() {
		data, err := GenerateSchema(name)
		if err != nil {
			return nil, err
		}
		doc, err := jschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			return nil, oops.Code("SCHEMA_COMPILE_FAILED").With("schema", name).Wrap(err)
		}
		url := SchemaBaseURL + name + ".json"
		if err := c.AddResource(url, doc); err != nil {
			return nil, oops.Code("SCHEMA_COMPILE_FAILED").With("schema", name).Wrap(err)
		}
		urls[name] = url
	}

	v := &Validator{schemas: make(map[string]*jschema.Schema, len(urls))}
	for name, url := range urls {
		sch, err := c.Compile(url)
		if err != nil {
			return nil, oops.Code("SCHEMA_COMPILE_FAILED").With("schema", name).Wrap(err)
		}
		v.schemas[name] = sch
	}
	return v, nil
}

// Decode reads the request body, validates it against the named schema and
// unmarshals it into dst. Every failure is a ValidationError.
func (v *Validator) Decode(w http.ResponseWriter, r *http.Request, name string, dst any) error {
	sch, ok := v.schemas[name]
	if !ok {
		return oops.Code("SCHEMA_UNKNOWN").With("schema", name).Errorf("unknown schema %q", name)
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return oops.Code("REQUEST_TOO_LARGE").
				With("limit", MaxBodyBytes).
				Wrapf(errutil.ErrValidation, "request body exceeds %d bytes", MaxBodyBytes)
		}
		return oops.Code("REQUEST_UNREADABLE").Wrapf(errutil.ErrValidation, "request body could not be read")
	}

	inst, err := jschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return oops.Code("REQUEST_MALFORMED").Wrapf(errutil.ErrValidation, "request body is not valid JSON")
	}
	if err := sch.Validate(inst); err != nil {
		return oops.Code("REQUEST_INVALID").
			With("schema", name).
			Wrapf(errutil.ErrValidation, "%s", describe(err))
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return oops.Code("REQUEST_MALFORMED").
			With("schema", name).
			Wrapf(errutil.ErrValidation, "request body does not match %s", name)
	}
	return nil
}

// describe returns the validator's message for err.
func describe(err error) string {
	var verr *jschema.ValidationError
	if errors.As(err, &verr) {
		return strings.TrimSpace(verr.Error())
	}
	return err.Error()
}
