package whatsapp

import (
	"context"
	"errors"
	"time"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types/events"

	"github.com/nortecrm/whatsapp-bridge/pkg/bridge"
	"github.com/nortecrm/whatsapp-bridge/pkg/env"
)

var ErrNoDownloadablePart = errors.New("message carries no downloadable media part")

type mediaFetcher struct{}

// Fetcher returns the transport-side implementation of bridge.MediaTransfer.
func Fetcher() bridge.MediaTransfer {
	return mediaFetcher{}
}

func (mediaFetcher) Fetch(ctx context.Context, envelope *bridge.RawEnvelope) ([]byte, error) {
	evt, ok := envelope.Raw.(*events.Message)
	if !ok || evt == nil {
		return nil, ErrNoDownloadablePart
	}
	part := downloadablePart(evt.Message)
	if part == nil {
		return nil, ErrNoDownloadablePart
	}

	s := current()
	if s == nil {
		return nil, ErrNotInitialized
	}

	timeout := env.GetEnvDurationOrDefault("WHATSAPP_MEDIA_DOWNLOAD_TIMEOUT", 30*time.Second)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return s.client.Download(ctx, part)
}

func downloadablePart(msg *waE2E.Message) whatsmeow.DownloadableMessage {
	switch {
	case msg == nil:
		return nil
	case msg.ImageMessage != nil:
		return msg.ImageMessage
	case msg.VideoMessage != nil:
		return msg.VideoMessage
	case msg.AudioMessage != nil:
		return msg.AudioMessage
	case msg.DocumentMessage != nil:
		return msg.DocumentMessage
	case msg.StickerMessage != nil:
		return msg.StickerMessage
	default:
		return nil
	}
}
