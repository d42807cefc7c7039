package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"unionvote/internal/models"
	"unionvote/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const CheckUserKey = "user"

type Claims struct {
	UserID uint `json:"user_id"`
	jwt.RegisteredClaims
}

// IssueToken signs a bearer token for a user.
func IssueToken(secret string, userID uint) (string, error) {
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "unionvote",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func parseToken(secret, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		},
	)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// LoadUser resolves the caller from the Authorization header and sets
// it on the context. Requests without a valid token proceed anonymous;
// AuthRequired decides whether that is acceptable per route.
func LoadUser(store storage.Storage, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.Next()
			return
		}

		claims, err := parseToken(secret, strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.Next()
			return
		}

		user, err := store.GetUser(c.Request.Context(), claims.UserID)
		if err == nil {
			c.Set(CheckUserKey, user)
		}
		c.Next()
	}
}

// AuthRequired rejects requests that carry no resolved caller identity.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(CheckUserKey); !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "authentication required"})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the caller set by LoadUser, or nil.
func CurrentUser(c *gin.Context) *models.User {
	if v, exists := c.Get(CheckUserKey); exists {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}
