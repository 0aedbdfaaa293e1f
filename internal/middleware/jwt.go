package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/iliyamo/user-identity-service/internal/utils"
)

// UserIDKey is the context key under which JWTAuth stores the verified
// subject id.  Handlers read it via c.Get(UserIDKey).
const UserIDKey = "user_id"

// JWTAuth returns an Echo middleware that guards a route behind a Bearer
// access token.  The request moves through extract → verify → attach, and
// any failure short-circuits before the handler runs.  A missing or
// ill-shaped Authorization header is a 401 ("Authentication token is
// required"); a token that fails verification (bad signature, malformed,
// expired) is a 403 ("Invalid or expired token").  On success the
// token's subject id is stored in the request context under UserIDKey.
// The provided secret must match the one used when issuing tokens.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            // Extract: a usable header is "Bearer <token>" with a
            // non-empty token part.
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{
                    "status":  "error",
                    "message": "Authentication token is required",
                })
            }
            raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
            if raw == "" {
                return c.JSON(http.StatusUnauthorized, echo.Map{
                    "status":  "error",
                    "message": "Authentication token is required",
                })
            }

            // Verify: signature and expiry only; there is no revocation
            // list, so a validly signed, unexpired token always passes.
            sub, err := utils.ParseAccessToken(secret, raw)
            if err != nil {
                return c.JSON(http.StatusForbidden, echo.Map{
                    "status":  "error",
                    "message": "Invalid or expired token",
                })
            }

            // Attach: downstream handlers read the caller's identity from
            // the context.
            c.Set(UserIDKey, sub)
            return next(c)
        }
    }
}
