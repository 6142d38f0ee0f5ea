package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"peermatch/internal/config"
)

// authenticator issues and verifies JWT session tokens for the configured
// accounts. With no accounts configured the API is open (local single-user
// installs).
type authenticator struct {
	secret   []byte
	ttl      time.Duration
	accounts map[string]string // username -> bcrypt hash
}

func newAuthenticator(secret []byte, ttl time.Duration, accounts []config.AccountConfig) *authenticator {
	byName := make(map[string]string, len(accounts))
	for _, a := range accounts {
		byName[a.Username] = a.PasswordHash
	}
	return &authenticator{secret: secret, ttl: ttl, accounts: byName}
}

func (a *authenticator) enabled() bool { return len(a.accounts) > 0 }

// login checks the credentials and returns a signed token.
func (a *authenticator) login(username, password string) (string, error) {
	hash, ok := a.accounts[username]
	if !ok {
		// Burn a comparison anyway so unknown users cost the same as known
		// ones.
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$0000000000000000000000000000000000000000000000000000"), []byte(password))
		return "", fmt.Errorf("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return "", fmt.Errorf("invalid credentials")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// verify parses and validates a token, returning the subject.
func (a *authenticator) verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token")
	}
	return claims.Subject, nil
}

// middleware rejects data requests without a valid bearer token when
// accounts are configured.
func (a *authenticator) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.enabled() {
			next.ServeHTTP(w, r)
			return
		}
		header := r.Header.Get("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		if _, err := a.verify(tokenString); err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}
