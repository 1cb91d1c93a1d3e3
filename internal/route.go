package internal

import (
	"github.com/gofiber/fiber/v2"

	ctlIndex "github.com/nortecrm/whatsapp-bridge/internal/index"
	ctlMessaging "github.com/nortecrm/whatsapp-bridge/internal/messaging"
	ctlSession "github.com/nortecrm/whatsapp-bridge/internal/session"
	ctlStatus "github.com/nortecrm/whatsapp-bridge/internal/status"
)

func Routes(app *fiber.App) {
	// Route for Index
	// ---------------------------------------------
	app.Get("/", ctlIndex.Index)

	// Routes for Session Status & Pairing
	// ---------------------------------------------
	app.Get("/status", ctlStatus.GetStatus)
	app.Get("/qr", ctlStatus.GetQR)
	app.Post("/restart", ctlSession.Restart)

	// Routes for Messaging
	// ---------------------------------------------
	app.Post("/send-message", ctlMessaging.SendMessage)
}
