package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/edulive/classroom/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog/log"
)

var ErrMissingAuthHeader = errors.New("authorization header missing")

// collabClaims is what the platform's auth service puts into tokens.
// Issuance is external; this layer only verifies.
type collabClaims struct {
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	jwt.RegisteredClaims
}

// Auth verifies the bearer token and resolves the request identity
// into a domain.User with its role, once, for everything downstream.
func Auth(jwtSecret string) gin.HandlerFunc {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty for Auth middleware")
	}

	return func(c *gin.Context) {
		tokenStr, err := extractToken(c)
		if err != nil {
			log.Warn().Err(err).Str("module", "adapters.http").Msg("auth: no token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}

		claims := &collabClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(jwtSecret), nil
		})
		if err != nil || !token.Valid {
			log.Warn().Err(err).Str("module", "adapters.http").Msg("auth: invalid token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		name := claims.DisplayName
		if name == "" {
			name = claims.Subject
		}
		user, err := domain.NewUser(domain.UserID(claims.Subject), name, domain.ParseRole(claims.Role))
		if err != nil {
			log.Warn().Err(err).Str("module", "adapters.http").Msg("auth: bad identity claims")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid identity"})
			return
		}
		c.Set("user", user)
		c.Next()
	}
}

func extractToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		// Browsers cannot set headers on websocket dials, the token
		// rides a query parameter there.
		if tok := c.Query("token"); tok != "" {
			return tok, nil
		}
		return "", ErrMissingAuthHeader
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", jwt.ErrTokenMalformed
	}
	return parts[1], nil
}
