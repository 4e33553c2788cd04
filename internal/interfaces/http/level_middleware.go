package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Catalogo-api/internal/application/dto"
	"github.com/jhoicas/Catalogo-api/internal/domain/catalog"
)

// LocalLevel key de c.Locals con el catalog.Level resuelto.
const LocalLevel = "catalog_level"

// RequireLevel resuelve el parámetro de ruta param contra la topología (sin distinguir mayúsculas)
// y guarda el nivel en c.Locals. Responde 400 si el nivel no existe.
func RequireLevel(param string, topology *catalog.Topology) fiber.Handler {
	return func(c *fiber.Ctx) error {
		level, err := topology.Parse(c.Params(param))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Code:    "INVALID_LEVEL",
				Message: err.Error(),
			})
		}
		c.Locals(LocalLevel, level)
		return c.Next()
	}
}

// GetLevel devuelve el nivel resuelto por RequireLevel.
func GetLevel(c *fiber.Ctx) catalog.Level {
	l, _ := c.Locals(LocalLevel).(catalog.Level)
	return l
}
