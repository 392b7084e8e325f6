package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/insorpa/dte-api/internal/application/dto"
	"github.com/insorpa/dte-api/pkg/jwt"
)

// Locals keys para el usuario autenticado en Fiber.
const (
	LocalUserID    = "user_id"
	LocalUsername  = "username"
	LocalSuperuser = "superuser"
)

// AuthMiddleware valida el Bearer Token JWT y extrae el usuario a c.Locals.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"})
		}
		userID, username, superuser, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		c.Locals(LocalUserID, userID)
		c.Locals(LocalUsername, username)
		c.Locals(LocalSuperuser, superuser)
		return c.Next()
	}
}

// OptionalAuthMiddleware extrae el usuario a c.Locals si viene un Bearer Token
// válido, y deja pasar en cualquier otro caso. Lo usa el registro de usuarios:
// la ruta es pública para el bootstrap del primer usuario, pero un superusuario
// autenticado debe poder registrar más.
func OptionalAuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			if userID, username, superuser, err := jwt.Parse(jwtSecret, strings.TrimSpace(parts[1])); err == nil {
				c.Locals(LocalUserID, userID)
				c.Locals(LocalUsername, username)
				c.Locals(LocalSuperuser, superuser)
			}
		}
		return c.Next()
	}
}

// RequireSuperuser corta con 403 si el usuario autenticado no es superusuario.
// Debe ir después de AuthMiddleware.
func RequireSuperuser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !IsSuperuser(c) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "requiere privilegios de superusuario"})
		}
		return c.Next()
	}
}

// GetUserID devuelve el UserID del contexto (después del middleware de auth).
func GetUserID(c *fiber.Ctx) string {
	v := c.Locals(LocalUserID)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// GetUsername devuelve el username del contexto.
func GetUsername(c *fiber.Ctx) string {
	v := c.Locals(LocalUsername)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// IsSuperuser devuelve el flag de superusuario del contexto.
func IsSuperuser(c *fiber.Ctx) bool {
	v := c.Locals(LocalSuperuser)
	if v == nil {
		return false
	}
	b, _ := v.(bool)
	return b
}
