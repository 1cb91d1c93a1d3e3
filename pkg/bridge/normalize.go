package bridge

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nortecrm/whatsapp-bridge/pkg/contact"
)

// MediaTransfer fetches the raw bytes of a media message from the transport.
type MediaTransfer interface {
	Fetch(ctx context.Context, env *RawEnvelope) ([]byte, error)
}

// MediaUploader pushes fetched media bytes to the backend and returns the
// resulting public URL. Satisfied by *Gateway.
type MediaUploader interface {
	UploadMedia(ctx context.Context, fileName string, mimeType string, data []byte) (string, error)
}

var mediaFileExt = map[MessageKind]string{
	KindImage:   ".jpg",
	KindVideo:   ".mp4",
	KindAudio:   ".ogg",
	KindSticker: ".webp",
}

// Normalizer turns raw envelopes into normalized message records. It owns no
// I/O of its own; media transfer is delegated and its failure downgrades the
// message instead of dropping it.
type Normalizer struct {
	resolver *contact.Resolver
	media    MediaTransfer
	uploader MediaUploader
}

func NewNormalizer(resolver *contact.Resolver, media MediaTransfer, uploader MediaUploader) *Normalizer {
	return &Normalizer{resolver: resolver, media: media, uploader: uploader}
}

// Normalize produces one NormalizedMessage from a raw envelope.
// A nil result with nil error means the envelope carried no content payload
// and is skipped; resolution errors propagate and mean the envelope is
// dropped. A media-transfer failure is neither: the message is downgraded to
// an unknown kind with placeholder text so its metadata still reaches the
// backend.
func (n *Normalizer) Normalize(ctx context.Context, env *RawEnvelope) (*NormalizedMessage, error) {
	if env.Content == nil {
		return nil, nil
	}

	identity, err := n.resolver.Resolve(env.PrimaryHandle, env.AlternateHandle, env.ParticipantHint)
	if err != nil {
		return nil, err
	}

	direction := DirectionInbound
	if env.FromMe {
		direction = DirectionOutbound
	}

	msg := &NormalizedMessage{
		Contact:          identity,
		MessageID:        env.MessageID,
		TimestampSeconds: TimestampSeconds(env.Timestamp),
		Direction:        direction,
		Kind:             env.Content.Kind,
		TextContent:      env.Content.Text,
		OriginalHandle:   env.PrimaryHandle,
		AlternateHandle:  env.AlternateHandle,
		ParticipantHint:  env.ParticipantHint,
	}

	switch {
	case env.Content.Kind == KindUnknown:
		if msg.TextContent == "" {
			msg.TextContent = "unsupported message type"
		}
	case env.Content.Kind.IsMedia():
		n.transferMedia(ctx, env, msg)
	}

	if msg.TextContent == "" {
		msg.TextContent = fmt.Sprintf("%s received", msg.Kind)
	}

	return msg, nil
}

// transferMedia downloads the binary payload and uploads it to the backend.
// Any failure turns the message into a text-only placeholder; the binary
// part is best-effort, the metadata is not.
func (n *Normalizer) transferMedia(ctx context.Context, env *RawEnvelope, msg *NormalizedMessage) {
	media := env.Content.Media

	caption := ""
	if media != nil {
		caption = media.Caption
	}
	if caption != "" {
		msg.TextContent = caption
	}

	if n.media == nil || n.uploader == nil {
		return
	}

	data, err := n.media.Fetch(ctx, env)
	if err != nil {
		n.downgrade(msg)
		return
	}

	mimeType := "application/octet-stream"
	fileName := ""
	if media != nil {
		if media.MimeType != "" {
			mimeType = media.MimeType
		}
		fileName = media.FileName
	}
	if fileName == "" {
		ext := mediaFileExt[msg.Kind]
		fileName = fmt.Sprintf("%s_%s%s", msg.Kind, uuid.NewString(), ext)
	}

	mediaURL, err := n.uploader.UploadMedia(ctx, fileName, mimeType, data)
	if err != nil {
		n.downgrade(msg)
		return
	}
	msg.MediaURL = mediaURL
}

func (n *Normalizer) downgrade(msg *NormalizedMessage) {
	msg.Kind = KindUnknown
	msg.MediaURL = ""
	msg.TextContent = "media content unavailable"
}
