package api

import (
	"encoding/json/v2"
	"net/http"

	domainerrors "github.com/Liiiii222/debate/internal/errors"
	"github.com/Liiiii222/debate/internal/http/response"
)

// decodeJSON parses and validates a request body into dst. On failure it
// writes the 400 response itself and returns false.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.UnmarshalRead(r.Body, dst); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return false
	}

	if err := s.validator.Validate(dst); err != nil {
		s.handleServiceError(w, err)
		return false
	}

	return true
}

// handleServiceError maps a service error to an HTTP response. Domain errors
// carry their own status; anything else is a 500 with a generic message.
func (s *Server) handleServiceError(w http.ResponseWriter, err error) {
	var domainErr *domainerrors.Error
	if domainerrors.As(err, &domainErr) {
		if domainErr.Code == domainerrors.CodeInternal {
			s.logger.Error("Request failed", "error", err)
		}
		response.Error(w, domainErr.HTTPStatus(), domainErr.Message, s.logger)
		return
	}

	s.logger.Error("Request failed", "error", err)
	response.InternalError(w, "Internal server error", s.logger)
}

// rateLimit rejects clients that exceed their per-IP allowance. RealIP runs
// earlier in the stack, so RemoteAddr is already the client address.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(r.RemoteAddr) {
			response.TooManyRequests(w, "Too many requests, please try again later", s.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}
