package http

import (
	"net/http"
	"strings"
)

// exemptPaths never require a bearer token: a carve-out for load
// balancer and scrape probes.
var exemptPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// BearerAuthMiddleware enforces one of apiKeys as a Bearer token on every
// request except exemptPaths. An empty apiKeys disables auth entirely.
func BearerAuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(apiKeys))
	for _, k := range apiKeys {
		allowed[k] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(allowed) == 0 || exemptPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || !allowed[token] {
				writeError(w, http.StatusUnauthorized, "missing or invalid bearer token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
