// Package auth issues and verifies the HS256 bearer tokens used by the
// jury API. Identity comes from the profiles table; passwords are
// bcrypt hashes.
package auth

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/CodBad25/oral-dnb/internal/rbac"
	"github.com/CodBad25/oral-dnb/internal/store"
)

type AuthService struct {
	hmac  []byte
	ttl   time.Duration
	users store.Store
}

func NewAuthService(secret string, ttl time.Duration, users store.Store) *AuthService {
	return &AuthService{hmac: []byte(secret), ttl: ttl, users: users}
}

type Claims struct {
	Sub        string `json:"sub"`
	Role       string `json:"role"` // "jury", "admin" or "principal"
	JuryNumber string `json:"jury_number,omitempty"`
	jwt.RegisteredClaims
}

func (a *AuthService) IssueJWT(sub, role, juryNumber string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Sub:        sub,
		Role:       role,
		JuryNumber: juryNumber,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "oral-dnb",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(a.hmac)
}

func (a *AuthService) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.hmac, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	c, _ := token.Claims.(*Claims)
	return c, nil
}

// POST /auth/login  { "email": "...", "password": "..." }
func LoginHandler(a *AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		p, err := a.users.ProfileByEmail(r.Context(), req.Email)
		if err != nil {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(req.Password)) != nil {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		tok, err := a.IssueJWT(p.ID, string(p.Role), p.JuryNumber)
		if err != nil {
			log.Printf("auth: issue token: %v", err)
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"access_token": tok,
			"role":         string(p.Role),
			"jury_number":  p.JuryNumber,
		})
	}
}

// JWTMiddleware rejects requests without a valid bearer token and
// stores the verified identity on the request context.
func JWTMiddleware(a *AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				http.Error(w, "missing bearer", http.StatusUnauthorized)
				return
			}
			c, err := a.Parse(strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				http.Error(w, "bad token", http.StatusUnauthorized)
				return
			}
			ctx := WithIdentity(r.Context(), Identity{
				Sub:        c.Sub,
				Role:       c.Role,
				JuryNumber: c.JuryNumber,
			})
			ctx = rbac.WithRole(ctx, c.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
