// Package auth implements the gateway's session gate: a single admin
// credential pair and an HS256-signed bearer token carried in an
// HTTP-only cookie.
package auth

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName is the session cookie the gateway reads and writes.
const CookieName = "auth-token"

// Manager issues and verifies session tokens against a single admin
// credential pair.
type Manager struct {
	secret     []byte
	adminEmail string
	adminPass  string
	ttl        time.Duration
}

// NewManager builds a Manager. ttl is the token lifetime; zero falls back
// to 24 hours.
func NewManager(secret, adminEmail, adminPass string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{
		secret:     []byte(secret),
		adminEmail: adminEmail,
		adminPass:  adminPass,
		ttl:        ttl,
	}
}

// TTL returns the configured token lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// VerifyCredentials checks the submitted pair against the configured
// admin credentials in constant time.
func (m *Manager) VerifyCredentials(email, password string) bool {
	if m.adminEmail == "" || m.adminPass == "" {
		return false
	}
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(m.adminEmail)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(m.adminPass)) == 1
	return emailOK && passOK
}

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// CreateToken signs a session token for email with the configured lifetime.
func (m *Manager) CreateToken(email string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	})
	return token.SignedString(m.secret)
}

// VerifyToken reports whether token is a valid, unexpired session token.
func (m *Manager) VerifyToken(token string) bool {
	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	return err == nil && parsed.Valid
}

// IsAuthenticated reports whether r carries a valid session cookie.
func (m *Manager) IsAuthenticated(r *http.Request) bool {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return false
	}
	return m.VerifyToken(c.Value)
}

// SessionCookie builds the session cookie for token. secure should be
// true behind TLS.
func (m *Manager) SessionCookie(token string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearCookie builds an expired session cookie.
func ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
