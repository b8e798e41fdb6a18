package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func newRateLimitedRouter(t *testing.T, limit int) (*gin.Engine, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	router := setupTestRouter()
	router.Use(RateLimitMiddleware(client, limit, time.Minute))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router, mr
}

func TestRateLimitMiddleware_UnderLimit(t *testing.T) {
	router, _ := newRateLimitedRouter(t, 2)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/test", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimitMiddleware_OverLimit(t *testing.T) {
	router, _ := newRateLimitedRouter(t, 1)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}

func TestRateLimitMiddleware_WindowExpires(t *testing.T) {
	router, mr := newRateLimitedRouter(t, 1)

	req, _ := http.NewRequest("GET", "/test", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	mr.FastForward(2 * time.Minute)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimitMiddleware_RedisDown(t *testing.T) {
	router, mr := newRateLimitedRouter(t, 1)
	mr.Close()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
