package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/tasktrack-api/internal/api/shared"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/platform/logger"
	"github.com/phrazzld/tasktrack-api/internal/redact"
	"github.com/phrazzld/tasktrack-api/internal/service"
	"github.com/phrazzld/tasktrack-api/internal/service/auth"
)

// sessionFromRequest returns the session placed in the context by the
// authentication middleware. It writes a 401 and returns false if none is present.
func sessionFromRequest(w http.ResponseWriter, r *http.Request, log *slog.Logger) (*auth.Session, bool) {
	session, ok := shared.SessionFromContext(r.Context())
	if !ok {
		if log == nil {
			log = logger.FromContextOrDefault(r.Context(), slog.Default())
		}
		log.Warn("session not found in request context")
		HandleAPIError(w, r, auth.ErrMissingToken, "")
		return nil, false
	}
	return session, true
}

// getPathID extracts a positive integer ID from the URL path parameters.
func getPathID(r *http.Request, paramName string) (int64, error) {
	raw := chi.URLParam(r, paramName)
	if raw == "" {
		return 0, domain.NewValidationError(paramName, "is required")
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError(paramName, "must be a positive integer")
	}
	return id, nil
}

// getPagination reads the skip and limit query parameters, applying the
// listing defaults and bounds.
func getPagination(r *http.Request) (offset, limit int, err error) {
	q := r.URL.Query()

	offset, limit = 0, service.DefaultPageLimit
	if raw := q.Get("skip"); raw != "" {
		if offset, err = strconv.Atoi(raw); err != nil {
			return 0, 0, domain.NewValidationError("skip", "must be an integer")
		}
	}
	if raw := q.Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil {
			return 0, 0, domain.NewValidationError("limit", "must be an integer")
		}
	}

	if err := service.ValidatePage(offset, limit); err != nil {
		return 0, 0, err
	}
	return offset, limit, nil
}

// decodeAndValidate reads the JSON body into req and validates it. On failure
// it writes a 400 response and returns false.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req interface{}, log *slog.Logger) bool {
	if err := shared.DecodeJSON(r, req); err != nil {
		log.Debug("invalid request body", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest,
			shared.CategoryValidationFailed, "Invalid request format")
		return false
	}

	if err := shared.ValidateRequest(req); err != nil {
		HandleAPIError(w, r, err, "")
		return false
	}
	return true
}
