package http

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
)

// requireTreasuryToken guards the treasury routes with a bearer token.
// The comparison is constant-time. An unconfigured token disables the
// whole treasury surface rather than leaving it open.
func (s *Server) requireTreasuryToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.treasuryToken == "" {
			NewResponse().
				Status(http.StatusServiceUnavailable).
				Error("treasury access is not configured").
				Write(w, r)
			return
		}

		auth := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.treasuryToken)) != 1 {
			slog.WarnContext(r.Context(), "Rejected treasury request",
				"path", r.URL.Path,
				"has_header", auth != "")
			NewResponse().
				Status(http.StatusUnauthorized).
				Error("missing or invalid treasury token").
				Header("WWW-Authenticate", `Bearer realm="treasury"`).
				Write(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}
