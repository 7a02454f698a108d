package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey carries the client-chosen key that makes receipt
// submission retries safe. A client that resends the same receipt after a
// timeout reuses the key, and the server serves the stored outcome instead
// of ingesting the prices twice.
const HeaderIdempotencyKey = "Idempotency-Key"

// Context keys stashing idempotency state, read via the accessors below.
const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay" // true when a stored replay exists
	ctxKeyRateBypass = "rate.bypass" // true to skip rate limiting
)

// GetIdempotencyKey returns the validated key stored by IdempotencyValidator.
// Handlers read the key from here, never from the header directly.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IsReplay reports whether this request repeats an already-completed
// submission for the same user and key. The receipt handler uses it to
// return the original receipt id instead of re-running the pipeline.
func IsReplay(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// IdempotencyOptions configures header validation. MaxLen caps key length
// (values <= 0 default to 200); Pattern restricts the character set and
// defaults to an RFC 7230-ish token: ^[A-Za-z0-9._~\-:]+$. TTL enforcement
// belongs to the lookup, not to this middleware.
type IdempotencyOptions struct {
	MaxLen  int
	Pattern *regexp.Regexp
}

// IdempotencyLookup answers whether a completed, unexpired record exists for
// (userID, key) at now. Errors mean the lookup itself failed and must not
// block normal processing.
type IdempotencyLookup func(ctx context.Context, userID, key string, now time.Time) (exists bool, err error)

// IdempotencyValidator validates the Idempotency-Key header when present,
// stashes it in the context, and consults lookup for a prior completed
// submission. On a hit it sets the replay flag and the rate-limit bypass so
// replays are served for free. Without the header it is a no-op; an invalid
// key gets a 400. Serving the stored payload is the handler's job, the
// middleware only flags the situation.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"code":    "bad_idempotency_key",
				"message": "invalid Idempotency-Key",
			})
			return
		}

		c.Set(ctxKeyIdemKey, key)

		if lookup != nil {
			if exists, _ := lookup(c.Request.Context(), userIDFromCtx(c), key, time.Now().UTC()); exists {
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyRateBypass, true)
			}
		}

		c.Next()
	}
}

// userIDFromCtx reads the identity set by upstream auth, falling back to
// "demo-user" so local setups without auth still dedupe per client.
func userIDFromCtx(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return "demo-user"
}
