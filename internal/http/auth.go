package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const UserIDKey contextKey = "userId"

var ErrInvalidToken = errors.New("invalid session token")

// Authenticator resolves the user behind a request. With a secret it only
// trusts HS256 bearer tokens whose subject is the user ID. Without one it
// trusts the identity headers set by an authenticating reverse proxy.
type Authenticator struct {
	secret  []byte
	devUser string
	now     func() time.Time
}

func NewAuthenticator(secret, devUser string) *Authenticator {
	return &Authenticator{
		secret:  []byte(secret),
		devUser: devUser,
		now:     time.Now,
	}
}

// IssueToken signs a session token for userID.
func (a *Authenticator) IssueToken(userID string, ttl time.Duration) (string, error) {
	if len(a.secret) == 0 {
		return "", errors.New("no signing secret configured")
	}
	now := a.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *Authenticator) verify(token string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	// Browsers cannot set headers on websocket and EventSource requests.
	return r.URL.Query().Get("token")
}

func (a *Authenticator) userFromHeaders(r *http.Request) string {
	// Traefik BasicAuth sets this header
	userID := r.Header.Get("X-Auth-User")

	// Also check common alternatives
	if userID == "" {
		userID = r.Header.Get("X-Forwarded-User")
	}
	if userID == "" {
		userID = r.Header.Get("Remote-User")
	}

	if userID == "" && a.devUser != "" {
		userID = a.devUser
		log.Printf("Warning: No auth header, using %s", a.devUser)
	}
	return userID
}

// Identify attaches the caller's user ID to the request context when one can
// be established. It rejects requests carrying a bad token but lets anonymous
// requests through; RequireUser guards the routes that need a user.
func (a *Authenticator) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var userID string

		if len(a.secret) > 0 {
			if token := bearerToken(r); token != "" {
				id, err := a.verify(token)
				if err != nil {
					log.Printf("Authentication failed: %v", err)
					respondError(w, "Unauthorized", http.StatusUnauthorized)
					return
				}
				userID = id
			}
		} else {
			userID = a.userFromHeaders(r)
		}

		if userID == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUserID(r) == "" {
			respondError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func GetUserID(r *http.Request) string {
	userID, ok := r.Context().Value(UserIDKey).(string)
	if !ok {
		return ""
	}
	return userID
}
