package bridge

import "github.com/nortecrm/whatsapp-bridge/pkg/contact"

// MessageKind is the closed set of content discriminants the backend knows.
type MessageKind string

const (
	KindText     MessageKind = "text"
	KindImage    MessageKind = "image"
	KindVideo    MessageKind = "video"
	KindAudio    MessageKind = "audio"
	KindDocument MessageKind = "document"
	KindSticker  MessageKind = "sticker"
	KindLocation MessageKind = "location"
	KindUnknown  MessageKind = "unknown"
)

// IsMedia reports whether the kind carries a binary payload that must be
// transferred to the backend.
func (k MessageKind) IsMedia() bool {
	switch k {
	case KindImage, KindVideo, KindAudio, KindDocument, KindSticker:
		return true
	}
	return false
}

// MediaRef describes the binary part of a media message before transfer.
type MediaRef struct {
	MimeType string
	FileName string
	Caption  string
}

// Content is the message payload decoded once at the transport boundary into
// a tagged variant, so the normalizer switches on a closed enum instead of
// probing optional protocol fields.
type Content struct {
	Kind  MessageKind
	Text  string
	Media *MediaRef
}

// RawEnvelope is one message event as emitted by the transport collaborator,
// prior to normalization. Immutable once handed to the pipeline.
type RawEnvelope struct {
	PrimaryHandle   string
	AlternateHandle string
	ParticipantHint string
	FromMe          bool
	MessageID       string
	// Timestamp is source-dependent: seconds or milliseconds.
	Timestamp int64
	// Content is nil for pure protocol-level status and receipt events.
	Content  *Content
	PushName string
	// Raw keeps the transport-native message so media bytes can be fetched
	// later without the pipeline importing the transport package.
	Raw any
}

type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// NormalizedMessage is the structured record delivered to the backend.
type NormalizedMessage struct {
	Contact          contact.Identity
	MessageID        string
	TimestampSeconds int64
	Direction        Direction
	Kind             MessageKind
	TextContent      string
	MediaURL         string
	// OriginalHandle keeps the raw primary handle for audit and debugging.
	OriginalHandle  string
	AlternateHandle string
	ParticipantHint string
}

// TimestampSeconds normalizes a source-dependent timestamp to seconds.
// Values above 1e12 can only be milliseconds.
func TimestampSeconds(ts int64) int64 {
	if ts > 1_000_000_000_000 {
		return ts / 1000
	}
	return ts
}
