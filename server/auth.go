package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type contextKey string

// userContextKey carries the authenticated username through request
// contexts.
const userContextKey contextKey = "user"

// tokenTTL bounds how long an issued access token stays valid.
const tokenTTL = 30 * time.Minute

// AuthService issues and validates the bearer tokens protecting the scan
// API. Credentials come from the environment; there is no user database.
type AuthService struct {
	secret   []byte
	username string
	password string
}

// NewAuthService builds an AuthService from the environment:
// CODEGUARDIAN_JWT_SECRET signs tokens, CODEGUARDIAN_USERNAME and
// CODEGUARDIAN_PASSWORD are the accepted credentials.
func NewAuthService() *AuthService {
	return &AuthService{
		secret:   []byte(getEnv("CODEGUARDIAN_JWT_SECRET", "change-me-in-production")),
		username: getEnv("CODEGUARDIAN_USERNAME", "admin"),
		password: getEnv("CODEGUARDIAN_PASSWORD", ""),
	}
}

// Authenticate checks a username/password pair. An empty configured
// password rejects everyone.
func (as *AuthService) Authenticate(username, password string) bool {
	if as.password == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(as.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(as.password)) == 1
	return userOK && passOK
}

// IssueToken creates a signed access token for the user.
func (as *AuthService) IssueToken(username string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": username,
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": now.Add(tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(as.secret)
}

// ValidateToken parses and verifies a token and returns the subject
// username.
func (as *AuthService) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return as.secret, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token")
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", fmt.Errorf("sub claim missing")
	}
	return sub, nil
}

// Middleware requires a valid Bearer token and stores the username in the
// request context.
func (as *AuthService) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if username, err := as.ValidateToken(tokenString); err == nil {
				ctx := context.WithValue(r.Context(), userContextKey, username)
				next(w, r.WithContext(ctx))
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{
			"error":   "Unauthorized",
			"message": "Authentication required",
		})
	}
}

// usernameFrom returns the authenticated username stored by Middleware.
func usernameFrom(ctx context.Context) string {
	username, _ := ctx.Value(userContextKey).(string)
	return username
}

// getEnv returns the environment value for key, or fallback when unset.
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
