package web

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// authUser is the basic auth user name
const authUser = "cue"

// authMiddleware checks basic auth against bcrypt hash, passes everything if no hash configured
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.PasswordHash == "" {
			next.ServeHTTP(w, r)
			return
		}

		username, password, ok := r.BasicAuth()
		if ok && username == authUser {
			if err := bcrypt.CompareHashAndPassword([]byte(s.PasswordHash), []byte(password)); err == nil {
				next.ServeHTTP(w, r)
				return
			}
		}

		w.Header().Set("WWW-Authenticate", `Basic realm="cue"`)
		s.writeJSONError(w, http.StatusUnauthorized, "unauthorized")
	})
}
