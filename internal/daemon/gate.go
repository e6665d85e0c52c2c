package daemon

import (
	"crypto/subtle"
	"net/http"

	"github.com/go-chi/render"
)

// AccessKeyHeader carries the caller's access key.
const AccessKeyHeader = "x-access-key"

const (
	msgAdminRequired = "Unauthorized: Admin access required"
	msgKeyRequired   = "Unauthorized: Valid access key required"
	msgInvalidKey    = "Invalid access key"
)

// keyMatches compares in constant time. An unset key never matches.
func keyMatches(got, want string) bool {
	if got == "" || want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func (s *Service) isAdmin(r *http.Request) bool {
	return keyMatches(r.Header.Get(AccessKeyHeader), s.cfg.AdminKey)
}

func (s *Service) isReader(r *http.Request) bool {
	key := r.Header.Get(AccessKeyHeader)
	return keyMatches(key, s.cfg.AdminKey) || keyMatches(key, s.cfg.ReadOnlyKey)
}

// requireAdmin admits only the admin key.
func (s *Service) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.isAdmin(r) {
			s.metrics.denied.Inc()
			_ = render.Render(w, r, errUnauthorized(msgAdminRequired))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireReader admits the admin or the read-only key.
func (s *Service) requireReader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.isReader(r) {
			s.metrics.denied.Inc()
			_ = render.Render(w, r, errUnauthorized(msgKeyRequired))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleVerify reports whether the caller holds the admin key.
func (s *Service) handleVerify(w http.ResponseWriter, r *http.Request) {
	if !s.isAdmin(r) {
		s.metrics.denied.Inc()
		_ = render.Render(w, r, errUnauthorized(msgInvalidKey))
		return
	}
	render.JSON(w, r, successResponse{Success: true})
}
