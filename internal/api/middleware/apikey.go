package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/air-con/task-manager/internal/api/shared"
)

// APIKeyHeader is the request header carrying the pre-shared key.
const APIKeyHeader = "X-API-Key"

// APIKeyMiddleware authenticates mutating requests against a pre-shared
// key. Only the key's SHA-256 digest is configured on the server; the raw
// secret never appears in configuration or logs.
type APIKeyMiddleware struct {
	keyHash string
}

// NewAPIKeyMiddleware creates an APIKeyMiddleware comparing against the
// given hex SHA-256 digest. An empty digest disables authentication.
func NewAPIKeyMiddleware(keyHash string) *APIKeyMiddleware {
	return &APIKeyMiddleware{keyHash: keyHash}
}

// Authenticate validates the X-API-Key header by hashing the presented key
// and comparing digests in constant time.
func (m *APIKeyMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.keyHash == "" {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Header.Get(APIKeyHeader)
		if key == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "API key required")
			return
		}

		digest := sha256.Sum256([]byte(key))
		presented := hex.EncodeToString(digest[:])
		if subtle.ConstantTimeCompare([]byte(presented), []byte(m.keyHash)) != 1 {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}
