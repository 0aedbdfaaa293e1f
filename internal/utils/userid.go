package utils

import (
    "crypto/rand"
    "encoding/hex"
    "errors"
    "math/big"
    "regexp"
    "strings"
)

// ErrInvalidUserID is returned when a path-supplied identifier cannot be
// normalized into the canonical 24-hex-digit form.  Handlers translate it
// into an HTTP 400 response.
var ErrInvalidUserID = errors.New("invalid userId format")

var (
    hexIDRe   = regexp.MustCompile(`^[a-fA-F0-9]{24}$`)
    decimalRe = regexp.MustCompile(`^\d+$`)
)

// ToUserIDHex normalizes an externally supplied identifier into the
// canonical 24-character hexadecimal form used by the store.  Two input
// shapes are accepted: a string that already matches 24 hex digits, which
// is returned unchanged, and a nonnegative decimal integer of arbitrary
// precision, which is converted to hexadecimal and left-padded with '0' to
// 24 characters.  Everything else fails with ErrInvalidUserID.  This is
// the single normalization point: every identifier taken from a request
// path must pass through here before it reaches the repository, so the
// store's identifier format stays decoupled from whatever a client sends.
func ToUserIDHex(raw string) (string, error) {
    id := strings.TrimSpace(raw)
    if hexIDRe.MatchString(id) {
        return id, nil
    }
    if !decimalRe.MatchString(id) {
        return "", ErrInvalidUserID
    }
    n, ok := new(big.Int).SetString(id, 10)
    if !ok {
        return "", ErrInvalidUserID
    }
    h := n.Text(16)
    // A value whose hex form is wider than 24 digits cannot be padded into
    // a canonical id.
    if len(h) > 24 {
        return "", ErrInvalidUserID
    }
    return strings.Repeat("0", 24-len(h)) + h, nil
}

// NewUserID mints a fresh canonical identifier from 12 bytes of
// cryptographically secure random data (24 hex characters).
func NewUserID() (string, error) {
    buf := make([]byte, 12)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return hex.EncodeToString(buf), nil
}
