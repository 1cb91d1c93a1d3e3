package whatsapp

import (
	"fmt"

	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"

	"github.com/nortecrm/whatsapp-bridge/pkg/bridge"
)

// decodeEnvelope lowers a transport message event into the bridge's raw
// envelope, decoding the content payload into its tagged variant exactly
// once at this boundary.
func decodeEnvelope(evt *events.Message) *bridge.RawEnvelope {
	info := evt.Info

	alternate := ""
	if info.IsFromMe {
		if !info.RecipientAlt.IsEmpty() {
			alternate = info.RecipientAlt.ToNonAD().String()
		}
	} else if !info.SenderAlt.IsEmpty() {
		alternate = info.SenderAlt.ToNonAD().String()
	}

	participant := ""
	if sender := info.Sender.ToNonAD(); sender.String() != info.Chat.String() {
		participant = sender.String()
	}

	return &bridge.RawEnvelope{
		PrimaryHandle:   info.Chat.String(),
		AlternateHandle: alternate,
		ParticipantHint: participant,
		FromMe:          info.IsFromMe,
		MessageID:       info.ID,
		Timestamp:       info.Timestamp.Unix(),
		Content:         decodeContent(evt.Message),
		PushName:        info.PushName,
		Raw:             evt,
	}
}

// decodeContent maps the protocol's optional-field message shape onto the
// closed content union. A nil result means the event carries no content
// payload at all (receipts, protocol bookkeeping) and must be skipped.
func decodeContent(msg *waE2E.Message) *bridge.Content {
	switch {
	case msg == nil:
		return nil
	case msg.ProtocolMessage != nil:
		return nil
	case msg.GetConversation() != "":
		return &bridge.Content{Kind: bridge.KindText, Text: msg.GetConversation()}
	case msg.ExtendedTextMessage != nil:
		return &bridge.Content{Kind: bridge.KindText, Text: msg.ExtendedTextMessage.GetText()}
	case msg.ImageMessage != nil:
		return &bridge.Content{Kind: bridge.KindImage, Media: &bridge.MediaRef{
			MimeType: msg.ImageMessage.GetMimetype(),
			Caption:  msg.ImageMessage.GetCaption(),
		}}
	case msg.VideoMessage != nil:
		return &bridge.Content{Kind: bridge.KindVideo, Media: &bridge.MediaRef{
			MimeType: msg.VideoMessage.GetMimetype(),
			Caption:  msg.VideoMessage.GetCaption(),
		}}
	case msg.AudioMessage != nil:
		return &bridge.Content{Kind: bridge.KindAudio, Media: &bridge.MediaRef{
			MimeType: msg.AudioMessage.GetMimetype(),
		}}
	case msg.DocumentMessage != nil:
		return &bridge.Content{Kind: bridge.KindDocument, Media: &bridge.MediaRef{
			MimeType: msg.DocumentMessage.GetMimetype(),
			FileName: msg.DocumentMessage.GetFileName(),
			Caption:  msg.DocumentMessage.GetCaption(),
		}}
	case msg.StickerMessage != nil:
		return &bridge.Content{Kind: bridge.KindSticker, Media: &bridge.MediaRef{
			MimeType: msg.StickerMessage.GetMimetype(),
		}}
	case msg.LocationMessage != nil:
		loc := msg.LocationMessage
		return &bridge.Content{
			Kind: bridge.KindLocation,
			Text: fmt.Sprintf("%f,%f", loc.GetDegreesLatitude(), loc.GetDegreesLongitude()),
		}
	default:
		return &bridge.Content{Kind: bridge.KindUnknown}
	}
}

// parseTargetJID parses a protocol handle produced by bridge.SendTarget.
func parseTargetJID(handle string) (types.JID, error) {
	return types.ParseJID(handle)
}
