package handler

import (
	"database/sql/driver"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/user-identity-service/internal/config"
	"github.com/iliyamo/user-identity-service/internal/middleware"
	"github.com/iliyamo/user-identity-service/internal/repository"
	"github.com/iliyamo/user-identity-service/internal/service"
	"github.com/iliyamo/user-identity-service/internal/utils"
)

const (
	testSecret = "test-secret"
	testUserID = "507f1f77bcf86cd799439011"
)

var userCols = []string{"id", "username", "email", "password_hash", "created_at", "updated_at"}

func newEnv(t *testing.T) (*UserHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := config.Config{JWTSecret: testSecret, BcryptCost: bcrypt.MinCost, HashWorkers: 2}
	creds := service.NewCredentials(cfg.BcryptCost, cfg.HashWorkers)
	return NewUserHandler(cfg, config.CacheConfig{}, repository.NewUserRepo(db), creds, nil), mock
}

func userRow(t *testing.T, password string) *sqlmock.Rows {
	t.Helper()
	hash, err := utils.HashPassword(password, bcrypt.MinCost)
	require.NoError(t, err)
	now := time.Now().UTC()
	return sqlmock.NewRows(userCols).AddRow(testUserID, "u1", "a@b.com", hash, now, now)
}

func doJSON(t *testing.T, h echo.HandlerFunc, method, path, body string, param ...string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if len(param) == 1 {
		c.SetPath("/:userId")
		c.SetParamNames("userId")
		c.SetParamValues(param[0])
	}
	require.NoError(t, h(c))
	return rec
}

func body(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

// ----- register -----

func TestRegister_Success(t *testing.T) {
	h, mock := newEnv(t)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE email=").
		WithArgs("a@b.com").
		WillReturnRows(sqlmock.NewRows(userCols))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users (id, username, email, password_hash) VALUES (?,?,?,?)")).
		WithArgs(sqlmock.AnyArg(), "u1", "a@b.com", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM users WHERE id=").
		WillReturnRows(userRow(t, "abc123"))

	rec := doJSON(t, h.Register, http.MethodPost, "/register", `{"username":"u1","email":"a@b.com","password":"abc123"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "User created successfully", body(t, rec)["message"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_DuplicateEmail(t *testing.T) {
	h, mock := newEnv(t)

	// Existing account with the same email and a different username.
	mock.ExpectQuery("SELECT (.+) FROM users WHERE email=").
		WillReturnRows(userRow(t, "abc123"))

	rec := doJSON(t, h.Register, http.MethodPost, "/register", `{"username":"someoneelse","email":"a@b.com","password":"abc123"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "User already exists", body(t, rec)["message"])
}

func TestRegister_RaceLostToConcurrentInsert(t *testing.T) {
	h, mock := newEnv(t)

	// The existence check passes but the insert hits the unique index.
	mock.ExpectQuery("SELECT (.+) FROM users WHERE email=").
		WillReturnRows(sqlmock.NewRows(userCols))
	mock.ExpectExec("INSERT INTO users").
		WillReturnError(sqlmockDuplicateErr())

	rec := doJSON(t, h.Register, http.MethodPost, "/register", `{"username":"u1","email":"a@b.com","password":"abc123"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "User already exists", body(t, rec)["message"])
}

func sqlmockDuplicateErr() error {
	return &duplicateErr{}
}

type duplicateErr struct{}

func (*duplicateErr) Error() string {
	return "Error 1062 (23000): Duplicate entry 'a@b.com' for key 'users.email'"
}

// ----- login -----

func TestLogin_Success(t *testing.T) {
	h, mock := newEnv(t)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE email=").
		WithArgs("a@b.com").
		WillReturnRows(userRow(t, "abc123"))

	rec := doJSON(t, h.Login, http.MethodPost, "/login", `{"email":"a@b.com","password":"abc123"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := body(t, rec)
	assert.Equal(t, testUserID, resp["userId"])
	assert.NotEmpty(t, resp["expiresTs"])

	// The issued token verifies and names the same subject.
	sub, err := utils.ParseAccessToken(testSecret, resp["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, testUserID, sub)
}

func TestLogin_NoEnumerationSignal(t *testing.T) {
	h, mock := newEnv(t)

	// Unknown email.
	mock.ExpectQuery("SELECT (.+) FROM users WHERE email=").
		WillReturnRows(sqlmock.NewRows(userCols))
	recUnknown := doJSON(t, h.Login, http.MethodPost, "/login", `{"email":"ghost@b.com","password":"abc123"}`)

	// Known email, wrong password.
	mock.ExpectQuery("SELECT (.+) FROM users WHERE email=").
		WillReturnRows(userRow(t, "abc123"))
	recWrong := doJSON(t, h.Login, http.MethodPost, "/login", `{"email":"a@b.com","password":"wrong1"}`)

	assert.Equal(t, http.StatusUnauthorized, recUnknown.Code)
	assert.Equal(t, http.StatusUnauthorized, recWrong.Code)
	// Identical bodies: no way to tell which branch failed.
	assert.Equal(t, recUnknown.Body.String(), recWrong.Body.String())
	assert.Equal(t, "Invalid credentials", body(t, recUnknown)["message"])
}

// ----- get -----

func TestGet_Success_NoPasswordField(t *testing.T) {
	h, mock := newEnv(t)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id=").
		WithArgs(testUserID).
		WillReturnRows(userRow(t, "abc123"))

	rec := doJSON(t, h.Get, http.MethodGet, "/"+testUserID, "", testUserID)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := body(t, rec)
	assert.Equal(t, "success", resp["status"])
	data := resp["data"].(map[string]any)
	assert.Equal(t, "a@b.com", data["email"])
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestGet_DecimalIDNormalized(t *testing.T) {
	h, mock := newEnv(t)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id=").
		WithArgs("000000000000000000003039").
		WillReturnRows(sqlmock.NewRows(userCols))

	rec := doJSON(t, h.Get, http.MethodGet, "/12345", "", "12345")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_InvalidID(t *testing.T) {
	h, mock := newEnv(t)

	rec := doJSON(t, h.Get, http.MethodGet, "/not-an-id", "", "not-an-id")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid userId", body(t, rec)["message"])
	// The store is never consulted for an invalid identifier.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_NotFound(t *testing.T) {
	h, mock := newEnv(t)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id=").
		WillReturnRows(sqlmock.NewRows(userCols))

	rec := doJSON(t, h.Get, http.MethodGet, "/"+testUserID, "", testUserID)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", body(t, rec)["message"])
}

// ----- update -----

func TestUpdate_Username(t *testing.T) {
	h, mock := newEnv(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET username=? WHERE id=?")).
		WithArgs("u2", testUserID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM users WHERE id=").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(testUserID, "u2", "a@b.com", "$2a$10$hash", now, now))

	rec := doJSON(t, h.Update, http.MethodPut, "/"+testUserID, `{"username":"u2"}`, testUserID)
	require.Equal(t, http.StatusOK, rec.Code)

	data := body(t, rec)["data"].(map[string]any)
	assert.Equal(t, "u2", data["username"])
	assert.NotContains(t, rec.Body.String(), "password")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_PasswordIsRehashed(t *testing.T) {
	h, mock := newEnv(t)

	var storedHash string
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET password_hash=? WHERE id=?")).
		WithArgs(hashCapture(&storedHash), testUserID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM users WHERE id=").
		WillReturnRows(userRow(t, "newpass1"))

	rec := doJSON(t, h.Update, http.MethodPut, "/"+testUserID, `{"password":"newpass1"}`, testUserID)
	require.Equal(t, http.StatusOK, rec.Code)

	// What reached the store is a bcrypt digest of the plaintext, not the
	// plaintext itself.
	assert.NotEqual(t, "newpass1", storedHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(storedHash), []byte("newpass1")))
}

func TestUpdate_NotFound(t *testing.T) {
	h, mock := newEnv(t)

	mock.ExpectExec("UPDATE users SET").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT (.+) FROM users WHERE id=").
		WillReturnRows(sqlmock.NewRows(userCols))

	rec := doJSON(t, h.Update, http.MethodPut, "/"+testUserID, `{"username":"u2"}`, testUserID)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdate_InvalidID(t *testing.T) {
	h, mock := newEnv(t)

	rec := doJSON(t, h.Update, http.MethodPut, "/nope", `{"username":"u2"}`, "nope")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_WithoutToken_NeverReachesStore(t *testing.T) {
	h, mock := newEnv(t)

	// The real route guards Update behind JWTAuth; replicate that chain.
	guarded := middleware.JWTAuth(testSecret)(h.Update)
	rec := doJSON(t, guarded, http.MethodPut, "/"+testUserID, `{"username":"u2"}`, testUserID)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	// No update was attempted against the store.
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ----- delete -----

func TestDelete_Success(t *testing.T) {
	h, mock := newEnv(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id=?")).
		WithArgs(testUserID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := doJSON(t, h.Delete, http.MethodDelete, "/"+testUserID, "", testUserID)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", body(t, rec)["status"])
}

func TestDelete_NotFound(t *testing.T) {
	h, mock := newEnv(t)

	mock.ExpectExec("DELETE FROM users").
		WillReturnResult(sqlmock.NewResult(0, 0))

	rec := doJSON(t, h.Delete, http.MethodDelete, "/"+testUserID, "", testUserID)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", body(t, rec)["message"])
}

// hashCapture matches any string argument and records it.
type hashCaptureArg struct{ dst *string }

func hashCapture(dst *string) sqlmock.Argument { return hashCaptureArg{dst: dst} }

func (a hashCaptureArg) Match(v driver.Value) bool {
	s, ok := v.(string)
	if ok {
		*a.dst = s
	}
	return ok
}
