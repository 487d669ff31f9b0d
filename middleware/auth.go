package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// AuthMiddleware validates the Bearer token and puts user_id and
// is_staff into the request context.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Bearer token required"})
			c.Abort()
			return
		}

		claims, err := parseClaims(tokenString, jwtSecret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		userID, ok := claims["user_id"].(float64)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			c.Abort()
			return
		}

		isStaff, _ := claims["is_staff"].(bool)

		c.Set("user_id", uint(userID))
		c.Set("is_staff", isStaff)
		c.Next()
	}
}

// OptionalAuth parses a Bearer token when one is present but lets
// anonymous requests through, so public pages can still honor staff
// privileges (draft quiz visibility).
func OptionalAuth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if authHeader == "" || tokenString == authHeader {
			c.Next()
			return
		}

		if claims, err := parseClaims(tokenString, jwtSecret); err == nil {
			if userID, ok := claims["user_id"].(float64); ok {
				isStaff, _ := claims["is_staff"].(bool)
				c.Set("user_id", uint(userID))
				c.Set("is_staff", isStaff)
			}
		}
		c.Next()
	}
}

// RequireStaff gates marking, catalog mutation and CSV provisioning.
// It must run after AuthMiddleware.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsStaff(c) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Staff privileges required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// IsStaff reads the staff flag set by AuthMiddleware or OptionalAuth.
func IsStaff(c *gin.Context) bool {
	isStaff, exists := c.Get("is_staff")
	if !exists {
		return false
	}
	staff, _ := isStaff.(bool)
	return staff
}

func parseClaims(tokenString, jwtSecret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
