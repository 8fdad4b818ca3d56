package model

import "time"

// User represents an operator account as stored in the `users` table.
// These structs are used internally by the repository layer; handlers
// expose only username and email.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – unique login name.
//  Email        – contact address.
//  PasswordHash – bcrypt hashed password.
//  CreatedAt    – timestamp of creation.
type User struct {
	ID           uint64    // users.id
	Username     string    // users.username
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	CreatedAt    time.Time // users.created_at
}

// Session models an entry in the `sessions` table.  The session id carried
// in the cookie is not stored; only its SHA‑256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the session.
//  TokenHash – SHA‑256 hex digest of the session id.
//  ExpiresAt – expiration timestamp.
//  RevokedAt – when the session was ended by logout (nil if still live).
type Session struct {
	ID        uint64     // sessions.id
	UserID    uint64     // sessions.user_id
	TokenHash string     // sessions.token_hash
	ExpiresAt time.Time  // sessions.expires_at
	RevokedAt *time.Time // sessions.revoked_at (nullable)
}
