package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Rituraj200000/googlemapscraper/models"
)

// identityKey holds the matched key in the gin context for RateLimit.
const identityKey = "api_key"

// Auth guards the status routes with static API keys, accepted either as
// "X-API-Key: <key>" or "Authorization: Bearer <key>". With no keys
// configured every request passes.
func Auth(apiKeys []string) gin.HandlerFunc {
	var digests [][sha256.Size]byte
	for _, k := range apiKeys {
		if k = strings.TrimSpace(k); k != "" {
			digests = append(digests, sha256.Sum256([]byte(k)))
		}
	}
	if len(digests) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		presented := presentedKey(c.Request)
		if presented == "" {
			abort(c, http.StatusUnauthorized, models.ErrCodeUnauthorized,
				"missing API key: send X-API-Key or Authorization: Bearer <key>")
			return
		}

		sum := sha256.Sum256([]byte(presented))
		for _, d := range digests {
			if subtle.ConstantTimeCompare(sum[:], d[:]) == 1 {
				c.Set(identityKey, presented)
				c.Next()
				return
			}
		}
		abort(c, http.StatusUnauthorized, models.ErrCodeUnauthorized, "invalid API key")
	}
}

func presentedKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}

func abort(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Error: &models.ErrorDetail{Code: code, Message: msg},
	})
}
