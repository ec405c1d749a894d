package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/render"
	"github.com/golang-jwt/jwt/v5"
	"github.com/neti77/anotequest-v1-sub000/config"
	"github.com/neti77/anotequest-v1-sub000/core"
	"github.com/sirupsen/logrus"
)

// LocalSubject owns the board when authentication is not required and no
// token is sent.
const LocalSubject = "local"

var (
	jwtSecret   []byte
	tokenExpiry = time.Hour * 24 * 7
)

// AppClaims represents the custom claims for the JWT. The subject is the
// board id.
type AppClaims struct {
	jwt.RegisteredClaims
	Login string `json:"login"`
	Name  string `json:"name"`
}

type (
	TokenRequest struct {
		Username string `json:"username"`
		Name     string `json:"name"`
	}

	TokenResponse struct {
		Token     string    `json:"token"`
		Subject   string    `json:"subject"`
		ExpiresAt time.Time `json:"expiresAt"`
	}
)

func InitAuth(cfg config.AuthConfig) {
	jwtSecret = []byte(cfg.JWTSecret)
	if cfg.TokenExpiry > 0 {
		tokenExpiry = cfg.TokenExpiry
	}
	if len(jwtSecret) == 0 {
		logrus.Warn("JWT_SECRET is not set. Authentication will not work.")
	}
}

// Configured reports whether tokens can be issued and verified.
func Configured() bool { return len(jwtSecret) > 0 }

// HandleToken issues a token for a local username. The username becomes the
// board id, so it must be usable as a storage name.
func HandleToken(w http.ResponseWriter, r *http.Request) {
	if !Configured() {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]string{"error": "Authentication not configured"})
		return
	}

	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]string{"error": "Invalid request body"})
		return
	}
	login := strings.ToLower(strings.TrimSpace(req.Username))
	if !core.ValidKey(login) {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]string{"error": "Invalid username"})
		return
	}

	token, expires, err := IssueToken(login, login, req.Name)
	if err != nil {
		logrus.Errorf("failed to create JWT: %s", err.Error())
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]string{"error": "Failed to create token"})
		return
	}
	render.JSON(w, r, TokenResponse{Token: token, Subject: login, ExpiresAt: expires})
}

// IssueToken signs a token for subject.
func IssueToken(subject, login, name string) (string, time.Time, error) {
	now := time.Now()
	expires := now.Add(tokenExpiry)
	claims := AppClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Login: login,
		Name:  name,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(jwtSecret)
	return signed, expires, err
}

func ParseJWT(tokenString string) (*AppClaims, error) {
	if !Configured() {
		return nil, fmt.Errorf("authentication not configured")
	}
	token, err := jwt.ParseWithClaims(tokenString, &AppClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtSecret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*AppClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// LocalClaims are the claims of an unauthenticated request.
func LocalClaims() *AppClaims {
	return &AppClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: LocalSubject},
		Login:            LocalSubject,
	}
}
