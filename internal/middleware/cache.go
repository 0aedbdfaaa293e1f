package middleware

import (
    "bytes"
    "crypto/sha1"
    "fmt"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/user-identity-service/internal/config"
)

// captureWriter captures the response body and status while forwarding to
// the client, so successful lookups can be stored after the handler runs.
type captureWriter struct {
    http.ResponseWriter
    status int
    buf    bytes.Buffer
}

func (cw *captureWriter) WriteHeader(code int) { cw.status = code; cw.ResponseWriter.WriteHeader(code) }
func (cw *captureWriter) Write(b []byte) (int, error) {
    cw.buf.Write(b)
    return cw.ResponseWriter.Write(b)
}

// CacheKey builds the Redis key for a request path.  The key is derived
// from the concrete URL path, not the route pattern, so each user's
// profile caches under its own entry and PUT/DELETE handlers can compute
// the same key to invalidate it.
func CacheKey(prefix, path string) string {
    sum := sha1.Sum([]byte(path))
    return fmt.Sprintf("%s:%x", prefix, sum[:])
}

// NewProfileCache returns a middleware that serves GET responses from
// Redis when a fresh entry exists and stores 200 responses after the
// handler runs.  Only bodies are cached; the content type is always JSON
// here.  When caching is disabled or no Redis client is available the
// middleware is a pass-through.
func NewProfileCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc {
            return func(c echo.Context) error { return next(c) }
        }
    }
    ttl := cfg.TTL
    if ttl <= 0 {
        ttl = 30 * time.Second
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if c.Request().Method != http.MethodGet {
                return next(c)
            }
            ctx := c.Request().Context()
            key := CacheKey(cfg.Prefix, c.Request().URL.Path)

            if body, err := rdb.Get(ctx, key).Bytes(); err == nil {
                return c.JSONBlob(http.StatusOK, body)
            }

            cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK}
            c.Response().Writer = cw
            if err := next(c); err != nil {
                return err
            }
            if cw.status == http.StatusOK && cw.buf.Len() > 0 {
                // Best effort; a failed store only costs the next request a
                // database round trip.
                _ = rdb.Set(ctx, key, cw.buf.Bytes(), ttl).Err()
            }
            return nil
        }
    }
}
