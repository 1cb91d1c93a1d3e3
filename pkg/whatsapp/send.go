package whatsapp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sunshineplan/imgconv"
	"google.golang.org/protobuf/proto"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"

	"github.com/nortecrm/whatsapp-bridge/pkg/bridge"
	"github.com/nortecrm/whatsapp-bridge/pkg/env"
	"github.com/nortecrm/whatsapp-bridge/pkg/log"
)

// SendText delivers a plain text message to a protocol handle and returns
// the generated message ID.
func SendText(ctx context.Context, to string, message string) (string, error) {
	client, err := currentClient()
	if err != nil {
		return "", err
	}

	targetJID, err := parseTargetJID(to)
	if err != nil {
		return "", err
	}

	msgExtra := whatsmeow.SendRequestExtra{ID: client.GenerateMessageID()}
	msgContent := &waE2E.Message{
		Conversation: proto.String(message),
	}
	if _, err = client.SendMessage(ctx, targetJID, msgContent, msgExtra); err != nil {
		return "", err
	}
	return msgExtra.ID, nil
}

// SendMedia fetches a binary payload from mediaURL and delivers it as the
// given media kind. Caption applies to images, videos and documents.
func SendMedia(ctx context.Context, to string, kind bridge.MessageKind, mediaURL string, caption string, fileName string) (string, error) {
	client, err := currentClient()
	if err != nil {
		return "", err
	}

	targetJID, err := parseTargetJID(to)
	if err != nil {
		return "", err
	}

	data, mimeType, err := fetchMediaURL(ctx, mediaURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch media from url: %w", err)
	}

	var msgContent *waE2E.Message
	switch kind {
	case bridge.KindImage:
		uploaded, err := client.Upload(ctx, data, whatsmeow.MediaImage)
		if err != nil {
			return "", errors.New("error while uploading media to WhatsApp server")
		}
		imageMsg := &waE2E.ImageMessage{
			URL:           proto.String(uploaded.URL),
			DirectPath:    proto.String(uploaded.DirectPath),
			Mimetype:      proto.String(mimeType),
			Caption:       proto.String(caption),
			FileLength:    proto.Uint64(uploaded.FileLength),
			FileSHA256:    uploaded.FileSHA256,
			FileEncSHA256: uploaded.FileEncSHA256,
			MediaKey:      uploaded.MediaKey,
		}
		if thumbnail := jpegThumbnail(data); thumbnail != nil {
			imageMsg.JPEGThumbnail = thumbnail
		}
		msgContent = &waE2E.Message{ImageMessage: imageMsg}
	case bridge.KindVideo:
		uploaded, err := client.Upload(ctx, data, whatsmeow.MediaVideo)
		if err != nil {
			return "", errors.New("error while uploading media to WhatsApp server")
		}
		msgContent = &waE2E.Message{VideoMessage: &waE2E.VideoMessage{
			URL:           proto.String(uploaded.URL),
			DirectPath:    proto.String(uploaded.DirectPath),
			Mimetype:      proto.String(mimeType),
			Caption:       proto.String(caption),
			FileLength:    proto.Uint64(uploaded.FileLength),
			FileSHA256:    uploaded.FileSHA256,
			FileEncSHA256: uploaded.FileEncSHA256,
			MediaKey:      uploaded.MediaKey,
		}}
	case bridge.KindAudio:
		uploaded, err := client.Upload(ctx, data, whatsmeow.MediaAudio)
		if err != nil {
			return "", errors.New("error while uploading media to WhatsApp server")
		}
		msgContent = &waE2E.Message{AudioMessage: &waE2E.AudioMessage{
			URL:           proto.String(uploaded.URL),
			DirectPath:    proto.String(uploaded.DirectPath),
			Mimetype:      proto.String(mimeType),
			FileLength:    proto.Uint64(uploaded.FileLength),
			FileSHA256:    uploaded.FileSHA256,
			FileEncSHA256: uploaded.FileEncSHA256,
			MediaKey:      uploaded.MediaKey,
		}}
	case bridge.KindDocument:
		uploaded, err := client.Upload(ctx, data, whatsmeow.MediaDocument)
		if err != nil {
			return "", errors.New("error while uploading media to WhatsApp server")
		}
		msgContent = &waE2E.Message{DocumentMessage: &waE2E.DocumentMessage{
			URL:           proto.String(uploaded.URL),
			DirectPath:    proto.String(uploaded.DirectPath),
			Mimetype:      proto.String(mimeType),
			FileName:      proto.String(fileName),
			Caption:       proto.String(caption),
			FileLength:    proto.Uint64(uploaded.FileLength),
			FileSHA256:    uploaded.FileSHA256,
			FileEncSHA256: uploaded.FileEncSHA256,
			MediaKey:      uploaded.MediaKey,
		}}
	default:
		return "", fmt.Errorf("unsupported media kind %q", kind)
	}

	msgExtra := whatsmeow.SendRequestExtra{ID: client.GenerateMessageID()}
	if _, err = client.SendMessage(ctx, targetJID, msgContent, msgExtra); err != nil {
		return "", err
	}
	return msgExtra.ID, nil
}

func fetchMediaURL(ctx context.Context, mediaURL string) ([]byte, string, error) {
	timeout := env.GetEnvDurationOrDefault("MEDIA_FETCH_TIMEOUT", 30*time.Second)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("media url returned HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return data, mimeType, nil
}

// jpegThumbnail renders a 72px-wide JPEG preview. Best effort: a thumbnail
// failure never blocks the send.
func jpegThumbnail(imageBytes []byte) []byte {
	decoded, err := imgconv.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		log.Print(nil).WithError(err).Warn("Failed to decode image for thumbnail")
		return nil
	}
	encoded := new(bytes.Buffer)
	err = imgconv.Write(encoded,
		imgconv.Resize(decoded, &imgconv.ResizeOption{Width: 72}),
		&imgconv.FormatOption{Format: imgconv.JPEG})
	if err != nil {
		log.Print(nil).WithError(err).Warn("Failed to encode image thumbnail")
		return nil
	}
	return encoded.Bytes()
}
