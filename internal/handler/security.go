package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/platemate/order-api/internal/domain/auth"
	"github.com/platemate/order-api/pkg/httpmiddleware"
)

// APIKeyAuth returns a middleware that authenticates requests via the api_key
// header. Keys are stored as HMAC-SHA256 hashes with a server-side pepper.
// Mutating requests additionally need the scope for the resource they touch;
// any valid key may read.
func APIKeyAuth(apikeys auth.Repository, pepper []byte) httpmiddleware.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get("api_key")
			if presented == "" {
				respondError(w, http.StatusUnauthorized, "missing api key")
				return
			}

			mac := hmac.New(sha256.New, pepper)
			mac.Write([]byte(presented))
			hash := mac.Sum(nil)

			key, err := apikeys.FindByHash(r.Context(), hex.EncodeToString(hash))
			if err != nil {
				respondError(w, http.StatusUnauthorized, "invalid api key")
				return
			}

			stored, err := hex.DecodeString(key.KeyHash)
			if err != nil || subtle.ConstantTimeCompare(hash, stored) != 1 {
				respondError(w, http.StatusUnauthorized, "invalid api key")
				return
			}

			if scope := requiredScope(r); scope != "" && !key.Allows(scope) {
				respondError(w, http.StatusForbidden, "api key lacks scope "+scope)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// requiredScope maps a request to the scope it needs. Reads need none beyond
// a valid key.
func requiredScope(r *http.Request) string {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return ""
	}
	switch {
	case strings.HasPrefix(r.URL.Path, "/orders"):
		return "orders:write"
	case strings.HasPrefix(r.URL.Path, "/cart"):
		return "cart:write"
	}
	return ""
}
