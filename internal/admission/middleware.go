package admission

import (
	"encoding/json"
	"log"
	"math"
	"net/http"
	"strconv"
)

const MsgTooManyRequests = "Too many requests. Please try again later."

// KeyFunc derives the admission identifier for a request.
type KeyFunc func(r *http.Request) string

// Middleware rejects requests over the registry's policy with 429 and a
// Retry-After equal to the window length, rounded up to whole seconds.
func Middleware(reg *Registry, key KeyFunc) func(http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(math.Ceil(reg.Policy().Window.Seconds())))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := key(r)
			d := reg.Admit(id)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))

			if !d.Allowed {
				log.Printf("rate limit exceeded for %s on %s %s", id, r.Method, r.URL.Path)

				w.Header().Set("Retry-After", retryAfter)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{"error": MsgTooManyRequests})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
