package middleware

import "net/http"

// CORS allows browser frontends on other origins to call the API.
//
// The API is consumed by a single-page app served from a different origin, so
// every response needs the Access-Control-* headers and OPTIONS preflights
// must short-circuit before hitting auth middleware (browsers never attach
// the Authorization header to a preflight).
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
