package messaging

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/nortecrm/whatsapp-bridge/internal/types"
	"github.com/nortecrm/whatsapp-bridge/pkg/bridge"
	"github.com/nortecrm/whatsapp-bridge/pkg/router"
	"github.com/nortecrm/whatsapp-bridge/pkg/validation"
	"github.com/nortecrm/whatsapp-bridge/pkg/whatsapp"
)

var mediaKinds = map[string]bridge.MessageKind{
	"image":    bridge.KindImage,
	"video":    bridge.KindVideo,
	"audio":    bridge.KindAudio,
	"document": bridge.KindDocument,
}

// SendMessage accepts a backend-originated send request, normalizes the
// target into a protocol handle, and delivers text or media through the
// transport session.
func SendMessage(c *fiber.Ctx) error {
	var request types.RequestSendMessage
	if err := c.BodyParser(&request); err != nil {
		return router.ResponseBadRequest(c, "Invalid request body")
	}

	request.To = strings.TrimSpace(request.To)
	if request.To == "" {
		return router.ResponseBadRequest(c, "Field 'to' is required")
	}
	if !strings.Contains(request.To, "@") {
		if err := validation.ValidatePhone(request.To); err != nil {
			return router.ResponseBadRequest(c, err.Error())
		}
	}

	target, err := bridge.SendTarget(request.To)
	if err != nil {
		return router.ResponseBadRequest(c, err.Error())
	}

	kind := strings.ToLower(strings.TrimSpace(request.Type))
	if kind == "" {
		kind = "text"
	}

	var messageID string
	switch {
	case kind == "text":
		if strings.TrimSpace(request.Message) == "" {
			return router.ResponseBadRequest(c, "Field 'message' is required for text messages")
		}
		messageID, err = whatsapp.SendText(c.UserContext(), target, request.Message)
	default:
		mediaKind, ok := mediaKinds[kind]
		if !ok {
			return router.ResponseBadRequest(c, "Unsupported message type '"+kind+"'")
		}
		if err := validation.ValidateURL(request.MediaURL); err != nil {
			return router.ResponseBadRequest(c, "Field 'media_url' is required for media messages")
		}
		messageID, err = whatsapp.SendMedia(c.UserContext(), target, mediaKind, request.MediaURL, request.Message, request.Filename)
	}

	if err != nil {
		if errors.Is(err, whatsapp.ErrNotConnected) || errors.Is(err, whatsapp.ErrNotInitialized) {
			return router.ResponseBadGateway(c, "WhatsApp session is not connected")
		}
		return router.ResponseInternalError(c, err.Error())
	}

	return router.ResponseSuccessWithData(c, "Message sent", fiber.Map{
		"message_id": messageID,
		"target":     target,
		"type":       kind,
	})
}
