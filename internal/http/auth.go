package http

import (
	"crypto/subtle"
	"io"
	"net/http"
)

const passwordIncorrect = "Password is incorrect."

// BasicAuth accepts requests whose basic-auth password equals password.
// The user name is not checked.
func BasicAuth(password string) func(http.Handler) http.Handler {
	want := []byte(password)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, got, ok := r.BasicAuth()
			if !ok || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				w.Header().Set("Content-Type", "text/plain; charset=utf-8")
				w.WriteHeader(http.StatusForbidden)
				_, _ = io.WriteString(w, passwordIncorrect)

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
