package handlers

import (
	"net/http"
	"strings"

	"court-reservation/models"
	"court-reservation/services"

	"github.com/labstack/echo/v5"
)

// JWTAuth extracts the caller identity from the Authorization header
// and stores (user_id, role) in the request context. The engine trusts
// this identity verbatim.
func JWTAuth(users *services.UserService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
			}

			userID, role, err := users.ParseToken(token)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid or expired token"})
			}

			c.Set("user_id", userID)
			c.Set("role", role)
			return next(c)
		}
	}
}

// RequireAdmin gates a route to admin callers. Must run after JWTAuth.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if role, _ := c.Get("role").(models.Role); role != models.RoleAdmin {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "admin access required"})
		}
		return next(c)
	}
}

func callerID(c echo.Context) string {
	id, _ := c.Get("user_id").(string)
	return id
}

func callerIsAdmin(c echo.Context) bool {
	role, _ := c.Get("role").(models.Role)
	return role == models.RoleAdmin
}
