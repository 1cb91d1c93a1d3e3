package bridge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nortecrm/whatsapp-bridge/pkg/contact"
)

type fakeTransfer struct {
	data []byte
	err  error
}

func (f fakeTransfer) Fetch(ctx context.Context, env *RawEnvelope) ([]byte, error) {
	return f.data, f.err
}

type fakeUploader struct {
	url      string
	err      error
	fileName string
	mimeType string
}

func (f *fakeUploader) UploadMedia(ctx context.Context, fileName string, mimeType string, data []byte) (string, error) {
	f.fileName = fileName
	f.mimeType = mimeType
	return f.url, f.err
}

func newTestNormalizer(media MediaTransfer, uploader MediaUploader) *Normalizer {
	return NewNormalizer(contact.NewResolver(contact.PolicyPreferPhone), media, uploader)
}

func TestNormalizeTextMessage(t *testing.T) {
	n := newTestNormalizer(nil, nil)
	msg, err := n.Normalize(context.Background(), &RawEnvelope{
		PrimaryHandle: "573001234567@s.whatsapp.net",
		MessageID:     "MSG1",
		Timestamp:     1700000000,
		Content:       &Content{Kind: KindText, Text: "hola"},
	})
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, "+57 300 123 4567", msg.Contact.CanonicalID)
	assert.Equal(t, DirectionInbound, msg.Direction)
	assert.Equal(t, KindText, msg.Kind)
	assert.Equal(t, "hola", msg.TextContent)
	assert.Equal(t, int64(1700000000), msg.TimestampSeconds)
}

func TestNormalizeSkipsContentlessEnvelope(t *testing.T) {
	n := newTestNormalizer(nil, nil)
	msg, err := n.Normalize(context.Background(), &RawEnvelope{
		PrimaryHandle: "573001234567@s.whatsapp.net",
		MessageID:     "MSG2",
	})
	require.NoError(t, err)
	assert.Nil(t, msg)
}

func TestNormalizePropagatesResolutionError(t *testing.T) {
	n := newTestNormalizer(nil, nil)
	_, err := n.Normalize(context.Background(), &RawEnvelope{
		PrimaryHandle: "something@unknown.domain",
		Content:       &Content{Kind: KindText, Text: "x"},
	})
	assert.ErrorIs(t, err, contact.ErrUnsupportedHandle)
}

func TestNormalizeMillisecondTimestamp(t *testing.T) {
	n := newTestNormalizer(nil, nil)
	msg, err := n.Normalize(context.Background(), &RawEnvelope{
		PrimaryHandle: "573001234567@s.whatsapp.net",
		Timestamp:     1700000000000,
		Content:       &Content{Kind: KindText, Text: "x"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), msg.TimestampSeconds)
}

func TestNormalizeOutboundDirection(t *testing.T) {
	n := newTestNormalizer(nil, nil)
	msg, err := n.Normalize(context.Background(), &RawEnvelope{
		PrimaryHandle: "573001234567@s.whatsapp.net",
		FromMe:        true,
		Content:       &Content{Kind: KindText, Text: "x"},
	})
	require.NoError(t, err)
	assert.Equal(t, DirectionOutbound, msg.Direction)
}

func TestNormalizeMediaMessageUploads(t *testing.T) {
	uploader := &fakeUploader{url: "https://cdn.example.com/media/abc.jpg"}
	n := newTestNormalizer(fakeTransfer{data: []byte("jpeg bytes")}, uploader)

	msg, err := n.Normalize(context.Background(), &RawEnvelope{
		PrimaryHandle: "573001234567@s.whatsapp.net",
		Content: &Content{
			Kind:  KindImage,
			Media: &MediaRef{MimeType: "image/jpeg", Caption: "look at this"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, KindImage, msg.Kind)
	assert.Equal(t, "https://cdn.example.com/media/abc.jpg", msg.MediaURL)
	assert.Equal(t, "look at this", msg.TextContent)
	assert.Equal(t, "image/jpeg", uploader.mimeType)
	assert.Contains(t, uploader.fileName, "image_")
	assert.Contains(t, uploader.fileName, ".jpg")
}

func TestNormalizeDocumentKeepsFileName(t *testing.T) {
	uploader := &fakeUploader{url: "https://cdn.example.com/media/report.pdf"}
	n := newTestNormalizer(fakeTransfer{data: []byte("pdf bytes")}, uploader)

	msg, err := n.Normalize(context.Background(), &RawEnvelope{
		PrimaryHandle: "573001234567@s.whatsapp.net",
		Content: &Content{
			Kind:  KindDocument,
			Media: &MediaRef{MimeType: "application/pdf", FileName: "report.pdf"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", uploader.fileName)
	assert.Equal(t, "document received", msg.TextContent)
}

func TestNormalizeMediaFetchFailureDowngrades(t *testing.T) {
	n := newTestNormalizer(fakeTransfer{err: errors.New("download failed")}, &fakeUploader{})

	msg, err := n.Normalize(context.Background(), &RawEnvelope{
		PrimaryHandle: "573001234567@s.whatsapp.net",
		Content: &Content{
			Kind:  KindImage,
			Media: &MediaRef{MimeType: "image/jpeg"},
		},
	})
	require.NoError(t, err, "media failure must not drop the message")
	assert.Equal(t, KindUnknown, msg.Kind)
	assert.Empty(t, msg.MediaURL)
	assert.Equal(t, "media content unavailable", msg.TextContent)
}

func TestNormalizeMediaUploadFailureDowngrades(t *testing.T) {
	n := newTestNormalizer(
		fakeTransfer{data: []byte("bytes")},
		&fakeUploader{err: errors.New("backend down")},
	)

	msg, err := n.Normalize(context.Background(), &RawEnvelope{
		PrimaryHandle: "573001234567@s.whatsapp.net",
		Content:       &Content{Kind: KindVideo, Media: &MediaRef{MimeType: "video/mp4"}},
	})
	require.NoError(t, err)
	assert.Equal(t, KindUnknown, msg.Kind)
	assert.Equal(t, "media content unavailable", msg.TextContent)
}

func TestNormalizeUnknownKindPlaceholder(t *testing.T) {
	n := newTestNormalizer(nil, nil)
	msg, err := n.Normalize(context.Background(), &RawEnvelope{
		PrimaryHandle: "573001234567@s.whatsapp.net",
		Content:       &Content{Kind: KindUnknown},
	})
	require.NoError(t, err)
	assert.Equal(t, "unsupported message type", msg.TextContent)
}

func TestTimestampSeconds(t *testing.T) {
	assert.Equal(t, int64(1700000000), TimestampSeconds(1700000000))
	assert.Equal(t, int64(1700000000), TimestampSeconds(1700000000123))
	assert.Equal(t, int64(0), TimestampSeconds(0))
}
