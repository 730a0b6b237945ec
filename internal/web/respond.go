// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sheetshelf Contributors

package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/samber/oops"

	"github.com/sheetshelf/sheetshelf/pkg/errutil"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a stable code and a human readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(ctx context.Context, logger *slog.Logger, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.WarnContext(ctx, "failed to write response", "error", err)
	}
}

// writeError maps err to its kind's status. Internal errors are logged and
// their details withheld from the client.
func writeError(ctx context.Context, logger *slog.Logger, w http.ResponseWriter, err error) {
	kind := errutil.KindOf(err)
	status := kind.HTTPStatus()

	detail := ErrorDetail{Code: kind.String(), Message: http.StatusText(status)}
	if oopsErr, ok := oops.AsOops(err); ok {
		if code, ok := oopsErr.Code().(string); ok && code != "" {
			detail.Code = code
		}
	}

	if kind == errutil.KindInternal {
		errutil.LogErrorContext(ctx, logger, "request failed", err)
		detail.Code = "INTERNAL"
	} else {
		detail.Message = publicMessage(err, kind)
		logger.DebugContext(ctx, "request rejected", "kind", kind.String(), "code", detail.Code, "error", err)
	}

	writeJSON(ctx, logger, w, status, ErrorBody{Error: detail})
}

var sentinels = map[errutil.Kind]error{
	errutil.KindValidation:   errutil.ErrValidation,
	errutil.KindUnauthorized: errutil.ErrUnauthorized,
	errutil.KindForbidden:    errutil.ErrForbidden,
	errutil.KindNotFound:     errutil.ErrNotFound,
	errutil.KindConflict:     errutil.ErrConflict,
}

// publicMessage is err's text without the trailing kind sentinel.
func publicMessage(err error, kind errutil.Kind) string {
	msg := err.Error()
	if s, ok := sentinels[kind]; ok {
		msg = strings.TrimSuffix(msg, ": "+s.Error())
	}
	return msg
}
