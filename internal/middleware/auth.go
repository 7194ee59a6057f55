package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/emilythestrangee/newsboard/internal/models"
)

const userIDKey = "user_id"

// JWT issues and verifies the HS256 tokens handed out by register and login.
type JWT struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWT(secret string, ttl time.Duration) *JWT {
	return &JWT{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for user.
func (j *JWT) Issue(user models.User) (string, error) {
	now := j.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"email":    user.Email,
		"jti":      uuid.NewString(),
		"iat":      now.Unix(),
		"exp":      now.Add(j.ttl).Unix(),
	})
	return token.SignedString(j.secret)
}

// Parse verifies tokenString and returns the user it was issued to.
func (j *JWT) Parse(tokenString string) (int, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return j.secret, nil
	}, jwt.WithTimeFunc(j.now))
	if err != nil {
		return 0, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, errors.New("invalid token claims")
	}
	id, ok := claims["user_id"].(float64)
	if !ok || id <= 0 {
		return 0, errors.New("token carries no user")
	}
	return int(id), nil
}

func bearer(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// Required rejects requests without a valid bearer token.
func (j *JWT) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearer(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}
		userID, err := j.Parse(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// Optional identifies the viewer when a valid token is present and lets
// anonymous requests through otherwise.
func (j *JWT) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString, ok := bearer(c); ok {
			if userID, err := j.Parse(tokenString); err == nil {
				c.Set(userIDKey, userID)
			}
		}
		c.Next()
	}
}

// UserID returns the authenticated viewer set by Required or Optional.
func UserID(c *gin.Context) (int, bool) {
	v, exists := c.Get(userIDKey)
	if !exists {
		return 0, false
	}
	id, ok := v.(int)
	return id, ok
}
