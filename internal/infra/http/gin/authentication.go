package ginserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"programhub/internal/app/policies"
)

const principalContextKey = "programhub.principal"

var errTokenSubject = errors.New("auth: token has no subject")

type principal struct {
	ID    string
	Roles []string
}

type tokenClaims struct {
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// JWTAuth resolves the caller from an HS256 bearer token issued by the identity
// provider. Requests without a token continue anonymously; a bad token is rejected.
type JWTAuth struct {
	Secret []byte
	Logger *slog.Logger
}

func (m JWTAuth) Handle(c *gin.Context) {
	raw := extractBearerToken(c.GetHeader("Authorization"))
	if raw == "" || len(m.Secret) == 0 {
		c.Next()
		return
	}
	p, err := m.parse(raw)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Debug("token validation failed", "error", err)
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	c.Set(principalContextKey, p)
	ctx := policies.WithActor(c.Request.Context(), policies.Actor{ID: p.ID, Roles: p.Roles})
	c.Request = c.Request.WithContext(ctx)
	c.Next()
}

func (m JWTAuth) parse(raw string) (principal, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return principal{}, err
	}
	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return principal{}, errTokenSubject
	}
	return principal{ID: subject, Roles: claims.Roles}, nil
}

// SignToken issues a token the middleware accepts. Used by local tooling and tests.
func SignToken(secret []byte, subject string, roles []string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func currentPrincipal(c *gin.Context) (principal, bool) {
	val, exists := c.Get(principalContextKey)
	if !exists {
		return principal{}, false
	}
	p, ok := val.(principal)
	return p, ok
}

// callerID is empty for anonymous callers; the command bus decides whether that is allowed.
func callerID(c *gin.Context) string {
	p, _ := currentPrincipal(c)
	return p.ID
}

func extractBearerToken(header string) string {
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
