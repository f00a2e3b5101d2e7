package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Auth validates the bearer token and stores agent_id / agent_name /
// agent_email in locals. Any valid agent token can act on any session.
func Auth(jwtSecret string) fiber.Handler {
	secret := []byte(jwtSecret)
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(401).JSON(fiber.Map{"error": "Access token required"})
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			return c.Status(401).JSON(fiber.Map{"error": "invalid authorization format"})
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			return c.Status(403).JSON(fiber.Map{"error": "Invalid token"})
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return c.Status(403).JSON(fiber.Map{"error": "Invalid token"})
		}

		agentID, _ := claims["agent_id"].(float64)
		name, _ := claims["name"].(string)
		email, _ := claims["email"].(string)
		if agentID == 0 {
			return c.Status(403).JSON(fiber.Map{"error": "Invalid token"})
		}

		c.Locals("agent_id", int(agentID))
		c.Locals("agent_name", name)
		c.Locals("agent_email", email)
		return c.Next()
	}
}
