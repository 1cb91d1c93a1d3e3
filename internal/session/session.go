package session

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nortecrm/whatsapp-bridge/pkg/router"
	"github.com/nortecrm/whatsapp-bridge/pkg/whatsapp"
)

// Restart tears the transport connection down and brings it back up.
func Restart(c *fiber.Ctx) error {
	if err := whatsapp.Restart(); err != nil {
		return router.ResponseInternalError(c, err.Error())
	}
	return router.ResponseSuccess(c, "Session restart scheduled")
}
