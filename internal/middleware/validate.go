package middleware

// validate.go implements per-route request body validation.  A closed set
// of route keys (register, login, update) maps to ordered field-rule sets;
// requests whose first path segment matches a key are validated before the
// handler runs, and the first violated rule produces a 400 response with
// that rule's message.  Routes with no registered schema pass through
// unvalidated on purpose: the identifier-scoped GET and DELETE carry no
// body.  Because a wildcard path segment can never equal a map key, routes
// like PUT /:userId bind their schema explicitly via ValidateSchema.

import (
    "bytes"
    "encoding/json"
    "io"
    "net/http"
    "regexp"
    "strings"

    "github.com/labstack/echo/v4"
)

var (
    usernameRe = regexp.MustCompile(`^[a-zA-Z0-9]{3,30}$`)
    passwordRe = regexp.MustCompile(`^[a-zA-Z0-9]{6,30}$`)
    emailRe    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// fieldRule is a single constraint on one body field.  Rules are applied
// in order and validation stops at the first violation.
type fieldRule struct {
    field    string
    required bool
    valid    func(string) bool
    message  string
}

// schema is an ordered field-rule set identified by a route key.
type schema []fieldRule

var schemas = map[string]schema{
    "register": {
        {"username", true, usernameRe.MatchString, "username must be 3-30 alphanumeric characters"},
        {"email", true, emailRe.MatchString, "email must be a valid email"},
        {"password", true, passwordRe.MatchString, "password must be 6-30 alphanumeric characters"},
    },
    "login": {
        {"email", true, emailRe.MatchString, "email must be a valid email"},
        {"password", true, func(string) bool { return true }, ""},
    },
    "update": {
        {"username", false, usernameRe.MatchString, "username must be 3-30 alphanumeric characters"},
        {"email", false, emailRe.MatchString, "email must be a valid email"},
        {"password", false, passwordRe.MatchString, "password must be 6-30 alphanumeric characters"},
    },
}

// ValidateRequest returns a middleware that selects a schema by the first
// segment of the request path ("/register" → "register").  Unknown
// segments resolve to "no validation" rather than an error.
func ValidateRequest() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := strings.SplitN(strings.TrimPrefix(c.Request().URL.Path, "/"), "/", 2)[0]
            s, ok := schemas[key]
            if !ok {
                return next(c)
            }
            if rejected, err := applySchema(c, s); rejected {
                return err
            }
            return next(c)
        }
    }
}

// ValidateSchema returns a middleware bound to one named schema.  It is
// used on routes whose path segment is a parameter and therefore can never
// match a schema key by name.
func ValidateSchema(name string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            s, ok := schemas[name]
            if !ok {
                return next(c)
            }
            if rejected, err := applySchema(c, s); rejected {
                return err
            }
            return next(c)
        }
    }
}

// applySchema reads and restores the request body, then checks it against
// the schema.  When the body is rejected the 400 response has already been
// written; rejected=true tells the caller to stop the pipeline.
func applySchema(c echo.Context, s schema) (rejected bool, err error) {
    body, readErr := io.ReadAll(c.Request().Body)
    if readErr != nil {
        return true, c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": "Invalid request body"})
    }
    // Restore the body so the handler can bind it again.
    c.Request().Body = io.NopCloser(bytes.NewReader(body))

    fields := map[string]any{}
    if len(bytes.TrimSpace(body)) > 0 {
        if err := json.Unmarshal(body, &fields); err != nil {
            return true, c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": "Invalid request body"})
        }
    }

    for _, rule := range s {
        raw, present := fields[rule.field]
        if !present {
            if rule.required {
                return true, c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": rule.field + " is required"})
            }
            continue
        }
        v, ok := raw.(string)
        if !ok || v == "" {
            return true, c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": rule.field + " must be a non-empty string"})
        }
        if !rule.valid(v) {
            return true, c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": rule.message})
        }
    }
    return false, nil
}
