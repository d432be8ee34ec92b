package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/propedge/propedge/internal/models"
	"github.com/propedge/propedge/pkg/database"
	"github.com/propedge/propedge/pkg/utils"
)

// Claims is the JWT payload issued at signin.
type Claims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

func parseToken(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	// WebSocket clients cannot set headers from the browser.
	return c.Query("token")
}

// AuthRequired rejects requests without a valid bearer token.
func AuthRequired(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			utils.SendUnauthorized(c, "Missing authorization token")
			c.Abort()
			return
		}

		claims, err := parseToken(tokenString, jwtSecret)
		if err != nil {
			utils.SendUnauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set("authenticated", true)
		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Next()
	}
}

// OptionalAuth populates the user context when a valid token is present but
// lets anonymous requests through.
func OptionalAuth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString != "" {
			if claims, err := parseToken(tokenString, jwtSecret); err == nil {
				c.Set("authenticated", true)
				c.Set("user_id", claims.UserID)
				c.Set("email", claims.Email)
			}
		}
		c.Next()
	}
}

// RequireAccess gates premium endpoints behind a redeemed access code. Runs
// after AuthRequired so user_id is present.
func RequireAccess(db *database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := UserID(c)
		if userID == 0 {
			utils.SendUnauthorized(c, "User ID not found")
			c.Abort()
			return
		}

		var count int64
		err := db.Model(&models.UserAccess{}).
			Joins("JOIN access_codes ON access_codes.id = user_access.access_code_id").
			Where("user_access.user_id = ?", userID).
			Where("access_codes.expires_at IS NULL OR access_codes.expires_at > ?", time.Now()).
			Count(&count).Error
		if err != nil {
			utils.SendInternalError(c, "Failed to check access")
			c.Abort()
			return
		}

		if count == 0 {
			utils.SendForbidden(c, "An access code is required for this feature")
			c.Abort()
			return
		}

		c.Next()
	}
}

// UserID extracts the authenticated user ID from the context, or 0.
func UserID(c *gin.Context) uint {
	value, exists := c.Get("user_id")
	if !exists {
		return 0
	}
	switch v := value.(type) {
	case uint:
		return v
	case int:
		return uint(v)
	}
	return 0
}
