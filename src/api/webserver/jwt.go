package webserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func IssueToken(secret []byte, userID uint64, addr string) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid":  userID,
		"addr": addr,
		"exp":  time.Now().Add(24 * time.Hour).Unix(),
	})
	return tok.SignedString(secret)
}

func JWTMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		tok, err := jwt.Parse(h[7:], func(t *jwt.Token) (interface{}, error) { return secret, nil })
		if err != nil || !tok.Valid {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		claims := tok.Claims.(jwt.MapClaims)
		uid, ok := claims["uid"].(float64)
		if !ok {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Set("uid", uint64(uid))
		if addr, ok := claims["addr"].(string); ok {
			c.Set("addr", addr)
		}
		c.Next()
	}
}
