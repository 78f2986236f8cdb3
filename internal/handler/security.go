package handler

import (
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/vending-console/internal/domain/auth"
)

// APIKeyHeader carries the operator key.
const APIKeyHeader = "api_key"

// SecurityHandler authenticates operators via HMAC-SHA256 hashed API keys.
type SecurityHandler struct {
	apikeys auth.Repository
	pepper  []byte
}

// NewSecurityHandler creates a SecurityHandler with the given API key
// repository and HMAC pepper.
func NewSecurityHandler(apikeys auth.Repository, pepper []byte) *SecurityHandler {
	return &SecurityHandler{
		apikeys: apikeys,
		pepper:  pepper,
	}
}

// Authenticate checks the key and its batch edit scope.
func (s *SecurityHandler) Authenticate(r *http.Request) error {
	key := r.Header.Get(APIKeyHeader)
	if key == "" {
		return errors.New("missing api key")
	}
	hexHash := auth.HashKey(s.pepper, key)

	info, err := s.apikeys.FindByHash(r.Context(), hexHash)
	if err != nil {
		return errors.New("unauthorized")
	}

	// The repository row must carry the exact hash we computed.
	want, _ := hex.DecodeString(hexHash)
	stored, err := hex.DecodeString(info.KeyHash)
	if err != nil || subtle.ConstantTimeCompare(want, stored) != 1 {
		return errors.New("unauthorized")
	}

	for _, scope := range info.Scopes {
		if scope == auth.ScopeBatchEdit {
			return nil
		}
	}
	return errors.New("api key lacks batch edit scope")
}

// Middleware rejects unauthenticated requests with 401.
func (s *SecurityHandler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := s.Authenticate(r); err != nil {
			writeJSON(w, http.StatusUnauthorized, func(e *jx.Encoder) {
				e.Obj(func(e *jx.Encoder) {
					e.Field("code", func(e *jx.Encoder) { e.Int(http.StatusUnauthorized) })
					e.Field("message", func(e *jx.Encoder) { e.Str(err.Error()) })
				})
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
