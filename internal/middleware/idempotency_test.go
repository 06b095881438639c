package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newIdempotencyRouter(t *testing.T, status int) (*gin.Engine, *miniredis.Miniredis, *int32) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	var calls int32
	r := gin.New()
	r.Use(Idempotency(rdb, time.Hour, zap.NewNop()))
	handler := func(c *gin.Context) {
		n := atomic.AddInt32(&calls, 1)
		c.JSON(status, gin.H{"call": n})
	}
	r.POST("/outpasses", handler)
	r.GET("/outpasses", handler)
	return r, mr, &calls
}

func post(r *gin.Engine, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/outpasses", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(IdempotencyHeader, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	r, _, calls := newIdempotencyRouter(t, http.StatusCreated)

	first := post(r, "key-1", `{"reason":"x"}`)
	require.Equal(t, http.StatusCreated, first.Code)
	assert.Empty(t, first.Header().Get(IdempotencyReplayedHeader))

	second := post(r, "key-1", `{"reason":"x"}`)
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get(IdempotencyReplayedHeader))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestIdempotencyRejectsDifferentBody(t *testing.T) {
	r, _, calls := newIdempotencyRouter(t, http.StatusCreated)

	post(r, "key-2", `{"reason":"x"}`)
	w := post(r, "key-2", `{"reason":"y"}`)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "IDEMPOTENCY_CONFLICT")
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestIdempotencyInProgress(t *testing.T) {
	r, mr, calls := newIdempotencyRouter(t, http.StatusCreated)
	require.NoError(t, mr.Set("idempotency:anonymous:post:/outpasses:key-3", `{"in_progress":true,"body_sha256":""}`))

	w := post(r, "key-3", `{}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "REQUEST_IN_PROGRESS")
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestIdempotencyServerErrorsAreNotStored(t *testing.T) {
	r, mr, calls := newIdempotencyRouter(t, http.StatusInternalServerError)

	post(r, "key-4", `{}`)
	assert.False(t, mr.Exists("idempotency:anonymous:post:/outpasses:key-4"))
	post(r, "key-4", `{}`)
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestIdempotencyBypass(t *testing.T) {
	r, _, calls := newIdempotencyRouter(t, http.StatusOK)

	post(r, "", `{}`)
	post(r, "", `{}`)

	req := httptest.NewRequest(http.MethodGet, "/outpasses", nil)
	req.Header.Set(IdempotencyHeader, "key-5")
	r.ServeHTTP(httptest.NewRecorder(), req)
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, int32(4), atomic.LoadInt32(calls))
}

func TestIdempotencyStoreUnavailable(t *testing.T) {
	r, mr, calls := newIdempotencyRouter(t, http.StatusCreated)
	mr.Close()

	w := post(r, "key-6", `{}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}
