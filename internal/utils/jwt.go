package utils // package utils provides helper functions for session tokens and hashing

import (
	"crypto/rand"   // secure random session ids
	"crypto/sha256" // SHA‑256 hashing of session ids
	"encoding/hex"  // hex encoding of ids and digests
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidSession is returned by ParseSessionToken for any token that
// cannot be trusted: bad signature, wrong algorithm, expired, or missing
// claims.
var ErrInvalidSession = errors.New("invalid session token")

// SessionToken is what login hands back.  Token is the signed JWT placed in
// the session cookie.  SID is the random session id embedded in it; only
// Hash (its SHA‑256 digest) is stored server side so a leaked table cannot
// be replayed.
type SessionToken struct {
	Token string
	SID   string
	Hash  string
	Exp   time.Time
}

// SessionClaims are the claims carried by a session cookie.
type SessionClaims struct {
	UserID uint64
	SID    string
}

// NewSessionToken builds and signs an HS256 JWT for a user.  The JWT
// carries the subject (user id as a string), sid, exp and iat claims.
func NewSessionToken(secret string, userID uint64, ttl time.Duration) (SessionToken, error) {
	sid, err := randomHex(32)
	if err != nil {
		return SessionToken{}, err
	}
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(userID, 10),
		"sid": sid,
		"exp": exp.Unix(),
		"iat": now.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return SessionToken{}, err
	}
	return SessionToken{Token: signed, SID: sid, Hash: HashSessionID(sid), Exp: exp}, nil
}

// ParseSessionToken verifies raw and returns its claims.  Only HMAC
// signatures are accepted.
func ParseSessionToken(secret, raw string) (SessionClaims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return SessionClaims{}, ErrInvalidSession
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return SessionClaims{}, ErrInvalidSession
	}
	sub, _ := claims["sub"].(string)
	sid, _ := claims["sid"].(string)
	uid, err := strconv.ParseUint(sub, 10, 64)
	if err != nil || sid == "" {
		return SessionClaims{}, ErrInvalidSession
	}
	return SessionClaims{UserID: uid, SID: sid}, nil
}

// HashSessionID returns the SHA‑256 hash of a session id as a hex string.
func HashSessionID(sid string) string {
	sum := sha256.Sum256([]byte(sid))
	return hex.EncodeToString(sum[:])
}

// randomHex returns a hex‑encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
