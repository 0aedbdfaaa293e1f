// Package queue defines message payloads exchanged over the message broker.
package queue

// UserRegisteredEvent is published when an account is successfully
// created.  It carries enough information for downstream consumers to
// greet the new user or trigger analytics without querying the primary
// database.  The password hash is deliberately absent.
type UserRegisteredEvent struct {
    EventID      string `json:"event_id"`
    UserID       string `json:"user_id"`
    Username     string `json:"username"`
    Email        string `json:"email"`
    RegisteredAt string `json:"registered_at"`
}
