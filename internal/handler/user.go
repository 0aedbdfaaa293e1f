package handler

import (
    "context"  // context with cancellation for DB calls
    "errors"   // sentinel error matching
    "log"      // request diagnostics
    "net/http" // HTTP status codes and primitives
    "time"     // timeouts for DB calls and event timestamps

    "github.com/google/uuid"      // event identifiers
    "github.com/labstack/echo/v4" // Echo framework for HTTP routing
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/user-identity-service/internal/config"     // app configuration
    "github.com/iliyamo/user-identity-service/internal/middleware" // cache key helper
    "github.com/iliyamo/user-identity-service/internal/model"      // user record
    "github.com/iliyamo/user-identity-service/internal/queue"      // event payloads
    "github.com/iliyamo/user-identity-service/internal/repository" // DB repositories
    "github.com/iliyamo/user-identity-service/internal/service"    // credentials, event publishing
    "github.com/iliyamo/user-identity-service/internal/utils"      // id codec, token issuing
)

// UserHandler bundles dependencies for the identity endpoints.
type UserHandler struct {
    Cfg      config.Config
    CacheCfg config.CacheConfig
    Users    *repository.UserRepo
    Creds    *service.Credentials
    RDB      *redis.Client // nil when caching is disabled
}

func NewUserHandler(cfg config.Config, cacheCfg config.CacheConfig, u *repository.UserRepo, creds *service.Credentials, rdb *redis.Client) *UserHandler {
    return &UserHandler{Cfg: cfg, CacheCfg: cacheCfg, Users: u, Creds: creds, RDB: rdb}
}

// ----- DTOs -----

type registerReq struct {
    Username string `json:"username"`
    Email    string `json:"email"`
    Password string `json:"password"`
}
type loginReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}
type updateReq struct {
    Username *string `json:"username"`
    Email    *string `json:"email"`
    Password *string `json:"password"`
}

// userPart is the outward-facing representation of a user.  It has no
// password field at all, so a hash can never leak through serialization.
type userPart struct {
    ID        string    `json:"id"`
    Username  string    `json:"username"`
    Email     string    `json:"email"`
    CreatedAt time.Time `json:"created_at"`
    UpdatedAt time.Time `json:"updated_at"`
}

func toUserPart(u model.User) userPart {
    return userPart{ID: u.ID, Username: u.Username, Email: u.Email, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt}
}

// Register: refuse duplicate emails, hash the password, persist the user.
// The created record's sensitive fields are not echoed back.
func (h *UserHandler) Register(c echo.Context) error {
    var req registerReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": "Invalid request body"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    // Check-then-insert is not atomic; the unique index on users.email is
    // the backstop for two racing registrations.
    _, err := h.Users.FindByEmail(ctx, req.Email)
    if err == nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "User already exists"})
    }
    if !errors.Is(err, repository.ErrUserNotFound) {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
    }

    hash, err := h.Creds.Hash(ctx, req.Password)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
    }

    u, err := h.Users.Create(ctx, req.Username, req.Email, hash)
    if err != nil {
        if errors.Is(err, repository.ErrEmailExists) {
            return c.JSON(http.StatusBadRequest, echo.Map{"message": "User already exists"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
    }

    // Fire-and-forget: a lost event never fails the registration.
    go func(u model.User) {
        pubCtx, pubCancel := context.WithTimeout(context.Background(), 5*time.Second)
        defer pubCancel()
        _ = service.PublishUserRegistered(pubCtx, queue.UserRegisteredEvent{
            EventID:      uuid.NewString(),
            UserID:       u.ID,
            Username:     u.Username,
            Email:        u.Email,
            RegisteredAt: time.Now().UTC().Format(time.RFC3339),
        })
    }(u)

    return c.JSON(http.StatusCreated, echo.Map{"message": "User created successfully"})
}

// Login: verify credentials and issue a bearer token.  A missing account
// and a wrong password produce the identical response so callers cannot
// probe which emails are registered.
func (h *UserHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": "Invalid request body"})
    }
    log.Printf("login attempt for user: %s", req.Email)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.FindByEmail(ctx, req.Email)
    if err != nil {
        if errors.Is(err, repository.ErrUserNotFound) {
            return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid credentials"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
    }
    match, err := h.Creds.Verify(ctx, req.Password, u.PasswordHash)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
    }
    if !match {
        return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid credentials"})
    }

    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "token":     access.Token,
        "expiresTs": access.ExpDisplay,
        "userId":    u.ID,
    })
}

// Get: fetch a user by canonical id and return it without the hash.
func (h *UserHandler) Get(c echo.Context) error {
    id, err := utils.ToUserIDHex(c.Param("userId"))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": "Invalid userId"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.FindByID(ctx, id)
    if err != nil {
        if errors.Is(err, repository.ErrUserNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"status": "error", "message": "User not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": err.Error()})
    }
    return c.JSON(http.StatusOK, echo.Map{"status": "success", "data": toUserPart(u)})
}

// Update: apply any subset of username/email/password.  A supplied
// password is re-hashed before persisting.  Requires a verified bearer
// token (enforced by the JWTAuth middleware on the route).
func (h *UserHandler) Update(c echo.Context) error {
    id, err := utils.ToUserIDHex(c.Param("userId"))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": "Invalid userId"})
    }
    var req updateReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": "Invalid request body"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    upd := repository.UserUpdate{Username: req.Username, Email: req.Email}
    if req.Password != nil {
        hash, err := h.Creds.Hash(ctx, *req.Password)
        if err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": err.Error()})
        }
        upd.PasswordHash = &hash
    }

    u, err := h.Users.Update(ctx, id, upd)
    if err != nil {
        switch {
        case errors.Is(err, repository.ErrUserNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"status": "error", "message": "User not found"})
        case errors.Is(err, repository.ErrEmailExists):
            return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": "Email already in use"})
        default:
            return c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": err.Error()})
        }
    }
    h.invalidateProfile(ctx, c.Request().URL.Path)
    return c.JSON(http.StatusOK, echo.Map{"status": "success", "data": toUserPart(u)})
}

// Delete: remove the user record.
func (h *UserHandler) Delete(c echo.Context) error {
    id, err := utils.ToUserIDHex(c.Param("userId"))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": "Invalid userId"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Users.Delete(ctx, id); err != nil {
        if errors.Is(err, repository.ErrUserNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"status": "error", "message": "User not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": "Error deleting user"})
    }
    h.invalidateProfile(ctx, c.Request().URL.Path)
    return c.JSON(http.StatusOK, echo.Map{"status": "success", "message": "User successfully deleted"})
}

// invalidateProfile drops the cached GET response for the same path.
// Best effort: a stale entry expires on its own TTL anyway.
func (h *UserHandler) invalidateProfile(ctx context.Context, path string) {
    if h.RDB == nil {
        return
    }
    _ = h.RDB.Del(ctx, middleware.CacheKey(h.CacheCfg.Prefix, path)).Err()
}
