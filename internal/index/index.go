package index

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nortecrm/whatsapp-bridge/pkg/router"
)

func Index(c *fiber.Ctx) error {
	return router.ResponseSuccess(c, "WhatsApp Bridge is running")
}
