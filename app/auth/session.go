package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"reddish/app/models"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNoSession = errors.New("no session token")

// Claims is the payload of a session token issued by the authentication provider.
type Claims struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	jwt.RegisteredClaims
}

// Profile turns the claims into the user fields they carry.
func (c *Claims) Profile() models.User {
	return models.User{
		ID:       c.Subject,
		Username: c.Username,
		Email:    c.Email,
		ImageURL: c.ImageURL,
	}
}

// Verifier checks HS256 session tokens.
type Verifier struct {
	secret     []byte
	cookieName string
}

func NewVerifier(secret, cookieName string) *Verifier {
	return &Verifier{secret: []byte(secret), cookieName: cookieName}
}

// Parse validates the signature and expiry of a token string.
func (v *Verifier) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// FromRequest reads the bearer token, falling back to the session cookie.
func (v *Verifier) FromRequest(r *http.Request) (*Claims, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok && token != "" {
			return v.Parse(strings.TrimSpace(token))
		}
	}
	if cookie, err := r.Cookie(v.cookieName); err == nil && cookie.Value != "" {
		return v.Parse(cookie.Value)
	}
	return nil, ErrNoSession
}

// Mint signs a session token. The web tier never issues tokens; this exists for
// local development and tests.
func Mint(secret string, profile models.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Username: profile.Username,
		Email:    profile.Email,
		ImageURL: profile.ImageURL,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   profile.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
