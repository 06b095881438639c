package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/Dharnipatel21/SmartCampus-AI/pkg/errors"
	"github.com/Dharnipatel21/SmartCampus-AI/pkg/response"
)

const (
	// IdempotencyHeader carries the client-chosen key.
	IdempotencyHeader = "Idempotency-Key"
	// IdempotencyReplayedHeader marks a response served from the store.
	IdempotencyReplayedHeader = "Idempotency-Replayed"

	idempotencyLockTTL   = time.Minute
	idempotencyStoreWait = 2 * time.Second
	maxIdempotencyKeyLen = 128
)

var errIdempotencyUnavailable = appErrors.New("IDEMPOTENCY_UNAVAILABLE", http.StatusServiceUnavailable, "idempotency store unavailable")

type idempotencyEntry struct {
	InProgress  bool      `json:"in_progress"`
	Status      int       `json:"status"`
	ContentType string    `json:"content_type"`
	Body        []byte    `json:"body"`
	BodySHA256  string    `json:"body_sha256"`
	CreatedAt   time.Time `json:"created_at"`
}

type capturingWriter struct {
	gin.ResponseWriter
	buf *bytes.Buffer
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *capturingWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the stored response when a mutating request is retried with the
// same Idempotency-Key. Reusing a key with another body, or while the first request is
// still running, is a conflict. Requests without the header pass straight through.
// Server errors are not stored so the client may retry them.
func Idempotency(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(IdempotencyHeader))
		if rdb == nil || key == "" || !isMutating(c.Request.Method) {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLen {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "Idempotency-Key too long"))
			return
		}

		var body []byte
		if c.Request.Body != nil {
			var err error
			body, err = io.ReadAll(c.Request.Body)
			if err != nil {
				response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unreadable request body"))
				return
			}
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		hash := sha256Hex(body)

		storeKey := idempotencyKey(c, key)
		ctx, cancel := context.WithTimeout(c.Request.Context(), idempotencyStoreWait)
		defer cancel()

		acquired, err := reserveIdempotencyKey(ctx, rdb, storeKey, hash)
		if err != nil {
			logger.Warn("idempotency reserve failed", zap.String("key", storeKey), zap.Error(err))
			response.Error(c, errIdempotencyUnavailable)
			return
		}
		if !acquired {
			replayIdempotent(ctx, c, rdb, storeKey, hash, logger)
			return
		}

		writer := &capturingWriter{ResponseWriter: c.Writer, buf: &bytes.Buffer{}}
		c.Writer = writer
		c.Next()

		saveCtx, saveCancel := context.WithTimeout(context.Background(), idempotencyStoreWait)
		defer saveCancel()
		status := writer.Status()
		if status >= http.StatusInternalServerError {
			if err := rdb.Del(saveCtx, storeKey).Err(); err != nil {
				logger.Warn("idempotency release failed", zap.String("key", storeKey), zap.Error(err))
			}
			return
		}
		entry := idempotencyEntry{
			Status:      status,
			ContentType: writer.Header().Get("Content-Type"),
			Body:        writer.buf.Bytes(),
			BodySHA256:  hash,
			CreatedAt:   time.Now().UTC(),
		}
		payload, _ := json.Marshal(entry)
		if err := rdb.Set(saveCtx, storeKey, payload, ttl).Err(); err != nil {
			logger.Warn("idempotency save failed", zap.String("key", storeKey), zap.Error(err))
		}
	}
}

func replayIdempotent(ctx context.Context, c *gin.Context, rdb *redis.Client, storeKey, hash string, logger *zap.Logger) {
	raw, err := rdb.Get(ctx, storeKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// Released between our reserve and read; the original failed.
			response.Error(c, appErrors.ErrRequestInProgress)
			return
		}
		logger.Warn("idempotency load failed", zap.String("key", storeKey), zap.Error(err))
		response.Error(c, errIdempotencyUnavailable)
		return
	}
	var entry idempotencyEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		response.Error(c, errIdempotencyUnavailable)
		return
	}
	if entry.BodySHA256 != "" && entry.BodySHA256 != hash {
		response.Error(c, appErrors.ErrIdempotencyConflict)
		return
	}
	if entry.InProgress || entry.Status == 0 {
		response.Error(c, appErrors.ErrRequestInProgress)
		return
	}
	contentType := entry.ContentType
	if contentType == "" {
		contentType = "application/json; charset=utf-8"
	}
	c.Header(IdempotencyReplayedHeader, "true")
	c.Data(entry.Status, contentType, entry.Body)
	c.Abort()
}

func reserveIdempotencyKey(ctx context.Context, rdb *redis.Client, key, hash string) (bool, error) {
	payload, _ := json.Marshal(idempotencyEntry{InProgress: true, BodySHA256: hash, CreatedAt: time.Now().UTC()})
	return rdb.SetNX(ctx, key, payload, idempotencyLockTTL).Result()
}

// idempotencyKey scopes the client key to the caller and route so keys never collide
// across users.
func idempotencyKey(c *gin.Context, key string) string {
	subject := "anonymous"
	if claims := Claims(c); claims != nil {
		subject = claims.UserID
	}
	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}
	return "idempotency:" + subject + ":" + strings.ToLower(c.Request.Method) + ":" + route + ":" + key
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
