package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/adeelraza/income-backoffice/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const identityKey = "identity"

// AuthMiddleware returns a Gin middleware that validates the session
// token and attaches the decoded identity to the request context
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get the JWT token from the Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, models.Envelope{
				Success: false,
				Error:   "Authorization required",
			})
			c.Abort()
			return
		}

		// Check if the Authorization header starts with "Bearer "
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, models.Envelope{
				Success: false,
				Error:   "Invalid token format",
			})
			c.Abort()
			return
		}

		tokenString := parts[1]

		// Parse the JWT token
		jwtSecret := c.MustGet("jwtSecret").([]byte)
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			// Validate the signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("invalid signing method")
			}
			return jwtSecret, nil
		})

		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, models.Envelope{
				Success: false,
				Error:   "Invalid or expired token",
			})
			c.Abort()
			return
		}

		// Extract claims from the token
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, models.Envelope{
				Success: false,
				Error:   "Invalid token claims",
			})
			c.Abort()
			return
		}

		userID, ok := claims["sub"].(string)
		if !ok {
			c.JSON(http.StatusUnauthorized, models.Envelope{
				Success: false,
				Error:   "Invalid user ID in token",
			})
			c.Abort()
			return
		}

		identity := models.Identity{UserID: userID}
		if email, ok := claims["email"].(string); ok {
			identity.Email = email
		}
		if role, ok := claims["role"].(string); ok {
			identity.Role = models.Role(role)
		}
		if branch, ok := claims["branch"].(string); ok && branch != "" {
			identity.BranchID = &branch
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// identityFromContext returns the identity stored by AuthMiddleware
func identityFromContext(c *gin.Context) models.Identity {
	return c.MustGet(identityKey).(models.Identity)
}
