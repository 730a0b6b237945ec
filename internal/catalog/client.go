// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sheetshelf Contributors

// Package catalog is a client for the external musical-work catalog used to
// resolve titles and composers by external id.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTimeout bounds a single lookup.
const DefaultTimeout = 5 * time.Second

const maxBodyBytes = 1 << 20

// Lookup outcomes reported to an Observer.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeTimeout = "timeout"
)

// Work is the catalog's view of a work.
type Work struct {
	Title    string
	Composer string
}

// Observer records lookup outcomes, e.g. as metrics.
type Observer interface {
	ObserveLookup(outcome string, elapsed time.Duration)
}

// Client looks works up over HTTP. It never retries.
type Client struct {
	baseURL  *url.URL
	http     *http.Client
	timeout  time.Duration
	observer Observer
	tracer   trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-lookup timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithObserver reports every lookup to o.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// NewClient creates a client for the catalog rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, oops.Code("CATALOG_URL_INVALID").With("base_url", baseURL).Errorf("catalog base URL must be absolute")
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{},
		timeout: DefaultTimeout,
		tracer:  otel.Tracer("github.com/sheetshelf/sheetshelf/internal/catalog"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type detailResponse struct {
	Status struct {
		Success string `json:"success"`
	} `json:"status"`
	Work *struct {
		Title    string `json:"title"`
		Composer *struct {
			Name string `json:"name"`
		} `json:"composer"`
	} `json:"work"`
	Composer *struct {
		Name string `json:"name"`
	} `json:"composer"`
}

// Lookup fetches the work with the given external id.
func (c *Client) Lookup(ctx context.Context, externalID string) (_ *Work, err error) {
	ctx, span := c.tracer.Start(ctx, "catalog.Lookup",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("catalog.external_id", externalID)))
	started := time.Now()
	defer func() {
		outcome := OutcomeOK
		if err != nil {
			outcome = OutcomeError
			if errors.Is(err, context.DeadlineExceeded) {
				outcome = OutcomeTimeout
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		if c.observer != nil {
			c.observer.ObserveLookup(outcome, time.Since(started))
		}
		span.End()
	}()

	if externalID == "" {
		return nil, oops.Code("CATALOG_ID_EMPTY").Errorf("external id is empty")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL.JoinPath("work", "detail", url.PathEscape(externalID)+".json")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, oops.Code("CATALOG_REQUEST_INVALID").With("external_id", externalID).Wrap(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, oops.Code("CATALOG_UNREACHABLE").With("external_id", externalID).Wrap(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, oops.Code("CATALOG_BAD_STATUS").
			With("external_id", externalID).
			With("status", resp.StatusCode).
			Errorf("catalog returned %s", resp.Status)
	}

	var body detailResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&body); err != nil {
		return nil, oops.Code("CATALOG_DECODE_FAILED").With("external_id", externalID).Wrap(err)
	}
	if body.Status.Success != "true" || body.Work == nil {
		return nil, oops.Code("CATALOG_LOOKUP_FAILED").
			With("external_id", externalID).
			Errorf("catalog reported no such work")
	}

	w := &Work{Title: body.Work.Title}
	switch {
	case body.Work.Composer != nil:
		w.Composer = body.Work.Composer.Name
	case body.Composer != nil:
		w.Composer = body.Composer.Name
	}
	return w, nil
}
