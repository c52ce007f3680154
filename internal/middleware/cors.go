package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS allows credentialed requests because auth tokens travel in
// httpOnly cookies. A wildcard origin cannot be combined with
// credentials, so the default stays permissive only for token-header
// clients.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	allowCredentials := len(origins) != 1 || origins[0] != "*"

	handler := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		MaxAge:           3600,
		AllowCredentials: allowCredentials,
	})

	return handler.Handler
}
