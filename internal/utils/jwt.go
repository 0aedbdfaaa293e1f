package utils // package utils provides helper functions for token creation and hashing

import (
    "errors" // sentinel error for rejected tokens
    "time"   // time utilities for generating expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// TokenTTL is the fixed validity window of every access token.  No token
// is ever issued with a different window.
const TokenTTL = 2 * time.Hour

// expiresTsLayout is the display format of the human-readable expiry
// returned alongside the token (local time plus zone abbreviation).
const expiresTsLayout = "2006-01-02 15:04:05 MST"

// ErrInvalidToken is returned by ParseAccessToken when a token is
// malformed, carries a bad signature, or has expired.  Callers should not
// distinguish between these cases.
var ErrInvalidToken = errors.New("invalid or expired token")

// AccessToken represents a signed JWT access token along with its expiry.
// Token contains the serialized JWT string.  Exp stores the expiration
// instant the token was signed with.  ExpDisplay is the same instant
// rendered for humans; it is informational only; the signed expiry inside
// the token is authoritative.  Both are derived from a single captured
// time so they can never drift apart.
type AccessToken struct {
    Token      string    // the serialized JWT string
    Exp        time.Time // the expiration time embedded in the claims
    ExpDisplay string    // local-time rendering of Exp for responses
}

// NewAccessToken builds and signs an HS256 JWT naming the given user as
// its subject.  The JWT includes standard claims: subject (sub),
// expiration (exp) and issued at (iat).  The expiry is always exactly
// TokenTTL after issuance.
func NewAccessToken(secret, userID string) (AccessToken, error) {
    now := time.Now()
    exp := now.Add(TokenTTL)
    claims := jwt.MapClaims{
        "sub": userID,
        "exp": exp.Unix(),
        "iat": now.Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{
        Token:      signed,
        Exp:        exp,
        ExpDisplay: exp.Local().Format(expiresTsLayout),
    }, nil
}

// ParseAccessToken validates a serialized token's signature and expiry and
// returns the subject user ID.  Any failure (malformed token, wrong
// signing method, bad signature, expired) collapses into ErrInvalidToken.
// Verification never consults the store: a validly signed, unexpired token
// is always accepted.
func ParseAccessToken(secret, raw string) (string, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        // Reject tokens signed with anything but HMAC.
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrInvalidToken
        }
        return []byte(secret), nil
    })
    if err != nil || !tok.Valid {
        return "", ErrInvalidToken
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return "", ErrInvalidToken
    }
    sub, ok := claims["sub"].(string)
    if !ok || sub == "" {
        return "", ErrInvalidToken
    }
    return sub, nil
}
