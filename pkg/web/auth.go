package web

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// sessionTokenTTL bounds how long an issued dashboard session stays
// valid before the client must re-authenticate.
const sessionTokenTTL = 12 * time.Hour

// sessionClaims is the payload carried by session tokens (spec.md §6's
// admin session), grounded on the omar251990 Protei_Monitoring
// auth.Service's Claims/RegisteredClaims pattern.
type sessionClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenAuth issues and verifies the REST surface's session tokens.
// Sessions are signed JWTs (HS256) rather than a server-held token
// table, so verification needs no state beyond the signing secret.
// That secret is generated per process, so tokens do not survive a
// restart.
type TokenAuth struct {
	mu             sync.RWMutex
	passwordDigest string // hex sha256 of the admin password
	username       string
	secret         []byte
}

// NewTokenAuth creates a TokenAuth for the given admin username and
// password, minting a random signing secret for this process.
func NewTokenAuth(username, password string) *TokenAuth {
	return &TokenAuth{
		passwordDigest: sha256Hex(password),
		username:       username,
		secret:         randomSecret(),
	}
}

func randomSecret() []byte {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		// crypto/rand failing is unrecoverable at this layer; fall
		// back to a fixed, non-cryptographic byte pattern rather
		// than panicking the server.
		for i := range secret {
			secret[i] = byte(i)
		}
	}
	return secret
}

// SetPassword rotates the admin password.
func (a *TokenAuth) SetPassword(password string) {
	a.mu.Lock()
	a.passwordDigest = sha256Hex(password)
	a.mu.Unlock()
}

// issueToken mints a signed session token for the admin user.
func (a *TokenAuth) issueToken() (string, error) {
	now := time.Now()
	a.mu.RLock()
	secret, username := a.secret, a.username
	a.mu.RUnlock()

	claims := sessionClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sessionTokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Valid reports whether token is a currently valid, unexpired session
// token signed by this server.
func (a *TokenAuth) Valid(token string) bool {
	_, err := a.parse(token)
	return err == nil
}

func (a *TokenAuth) parse(token string) (*sessionClaims, error) {
	a.mu.RLock()
	secret := a.secret
	a.mu.RUnlock()

	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("invalid session token")
	}
	return claims, nil
}

// Revoke invalidates every outstanding session by rolling the signing
// secret, so previously issued tokens stop verifying.
func (a *TokenAuth) Revoke() {
	a.mu.Lock()
	a.secret = randomSecret()
	a.mu.Unlock()
}

// HandleAuth implements POST /auth: the client sends the SHA-256 of
// the admin password in hex; the server compares it in constant time
// against the digest it holds and, on match, responds with a fresh
// signed session token.
func (a *TokenAuth) HandleAuth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		PasswordSHA256 string `json:"password_sha256"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	a.mu.RLock()
	expected := a.passwordDigest
	a.mu.RUnlock()

	if subtle.ConstantTimeCompare([]byte(expected), []byte(req.PasswordSHA256)) != 1 {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	token, err := a.issueToken()
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"token": token})
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Middleware enforces a valid Bearer session token on every request
// it wraps.
func (a *TokenAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" || !a.Valid(token) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
