package status

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nortecrm/whatsapp-bridge/pkg/router"
	"github.com/nortecrm/whatsapp-bridge/pkg/whatsapp"
)

type statusData struct {
	Connected   bool   `json:"connected"`
	QRAvailable bool   `json:"qr_available"`
	State       string `json:"state"`
}

// GetStatus reports the transport session state. Always 200: an unpaired or
// disconnected session is a normal state, not an error.
func GetStatus(c *fiber.Ctx) error {
	qrImage, _ := whatsapp.QRImage()
	data := statusData{
		Connected:   whatsapp.IsConnected(),
		QRAvailable: qrImage != "",
		State:       whatsapp.State().String(),
	}
	return router.ResponseSuccessWithData(c, "Session status", data)
}

// GetQR returns the current pairing code as a base64 PNG data URI, or 404
// when no pairing is in progress.
func GetQR(c *fiber.Ctx) error {
	qrImage, err := whatsapp.QRImage()
	if err != nil {
		return router.ResponseInternalError(c, err.Error())
	}
	if qrImage == "" {
		return router.ResponseNotFound(c, "No pairing in progress")
	}
	return router.ResponseSuccessWithData(c, "Scan this QR code with the WhatsApp app", fiber.Map{
		"qr_image": qrImage,
	})
}
