// Package rest exposes the marketplace services over JSON HTTP.
package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"shophub-be/internal/apperr"
	"shophub-be/internal/auth"
	"shophub-be/internal/logger"
	"shophub-be/internal/utils"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

var errInvalidBody = apperr.Validation("invalid request body")

// decodeJSON reads a single JSON document from the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("request body is required")
		}
		return errInvalidBody
	}
	return nil
}

// writeError maps err onto the {"success":false,"message":...} envelope.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	log := logger.FromCtx(r.Context()).With(
		zap.String("layer", "rest"),
		zap.String("kind", apperr.KindOf(err).String()),
		zap.Int("status", status),
	)

	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.Error(err))
	} else {
		log.Debug("request rejected", zap.Error(err))
	}

	utils.WriteJSONError(w, apperr.PublicMessage(err), status)
}

// principal returns the caller. Routes that call it are wrapped in
// RequireAuth, so a missing principal is a wiring bug.
func principal(r *http.Request) auth.Principal {
	p, _ := utils.GetPrincipalFromContext(r.Context())
	return p
}

func viewer(r *http.Request) *auth.Principal {
	p, ok := utils.GetPrincipalFromContext(r.Context())
	if !ok {
		return nil
	}
	return &p
}
