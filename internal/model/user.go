package model

import "time"

// User represents an identity record as stored in the `users` table.  Each
// field corresponds to a column in the database.  The json tags are
// omitted here because this struct is used internally by the repository
// layer; handlers define separate response types so the password hash can
// never leak into an outward-facing representation.
//
// Fields:
//  ID           – canonical 24-hex-digit identifier, assigned at insert
//                 and immutable afterwards.
//  Username     – display name, 3–30 alphanumeric characters.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password; never serialized.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           string    // users.id (CHAR(24) hex)
    Username     string    // users.username
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}
