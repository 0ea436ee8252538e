package auth

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

const (
	sessionCookie = "session"
	flashCookie   = "flash"
	sessionMaxAge = 7 * 24 * 60 * 60 // 7 days
)

// SessionManager signs and encrypts the session and flash cookies.
type SessionManager struct {
	codec    *securecookie.SecureCookie
	isSecure bool
}

// SessionData is the payload carried in the session cookie.
type SessionData struct {
	UserID    uint  `json:"user_id"`
	CreatedAt int64 `json:"created_at"`
}

// NewSessionManager builds a manager from hex-encoded 32-byte keys.
// Empty keys fall back to random ones, which means sessions do not
// survive a restart.
func NewSessionManager(hashKeyHex, blockKeyHex string, isSecure bool) *SessionManager {
	codec := securecookie.New(
		keyFromHex(hashKeyHex, "SESSION_HASH_KEY"),
		keyFromHex(blockKeyHex, "SESSION_BLOCK_KEY"),
	)
	codec.MaxAge(sessionMaxAge)

	return &SessionManager{codec: codec, isSecure: isSecure}
}

func keyFromHex(keyHex, name string) []byte {
	if keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err == nil && len(key) >= 32 {
			return key[:32]
		}
		log.Printf("Warning: %s is invalid, generating random key", name)
	}

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		log.Fatalf("Failed to generate session key: %v", err)
	}
	log.Printf("Warning: %s not set, using random key (sessions won't persist)", name)
	return key
}

// SetSession marks the browser as authenticated as userID.
func (sm *SessionManager) SetSession(w http.ResponseWriter, userID uint) error {
	data := SessionData{
		UserID:    userID,
		CreatedAt: time.Now().Unix(),
	}

	encoded, err := sm.codec.Encode(sessionCookie, data)
	if err != nil {
		return err
	}

	http.SetCookie(w, sm.cookie(sessionCookie, encoded, sessionMaxAge))
	return nil
}

// GetSession decodes and validates the session cookie.
func (sm *SessionManager) GetSession(r *http.Request) (*SessionData, error) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil, err
	}

	var data SessionData
	if err := sm.codec.Decode(sessionCookie, cookie.Value, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// ClearSession returns the browser to the anonymous state.
func (sm *SessionManager) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, sm.cookie(sessionCookie, "", -1))
}

// SetFlash stores a one-shot message shown on the next rendered page.
// It rides in its own signed cookie so it cannot be forged.
func (sm *SessionManager) SetFlash(w http.ResponseWriter, message string) error {
	encoded, err := sm.codec.Encode(flashCookie, message)
	if err != nil {
		return err
	}
	http.SetCookie(w, sm.cookie(flashCookie, encoded, 300))
	return nil
}

// PopFlash returns the pending flash message, if any, and clears it.
func (sm *SessionManager) PopFlash(w http.ResponseWriter, r *http.Request) string {
	cookie, err := r.Cookie(flashCookie)
	if err != nil {
		return ""
	}

	http.SetCookie(w, sm.cookie(flashCookie, "", -1))

	var message string
	if err := sm.codec.Decode(flashCookie, cookie.Value, &message); err != nil {
		return ""
	}
	return message
}

func (sm *SessionManager) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   sm.isSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
