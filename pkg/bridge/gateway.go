package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/nortecrm/whatsapp-bridge/pkg/contact"
	"github.com/nortecrm/whatsapp-bridge/pkg/env"
)

const (
	inboundWebhookPath  = "/webhooks/whatsapp"
	outgoingWebhookPath = "/webhooks/whatsapp-outgoing"
	uploadMediaPath     = "/api/upload-media"
)

type DeliveryErrorKind string

const (
	DeliveryTimeout           DeliveryErrorKind = "timeout"
	DeliveryConnectionRefused DeliveryErrorKind = "connection_refused"
	DeliveryBackendRejected   DeliveryErrorKind = "backend_rejected"
)

// DeliveryError is a failed backend call. The gateway never retries
// internally; retry policy belongs to the caller.
type DeliveryError struct {
	Kind   DeliveryErrorKind
	Status int
	Err    error
}

func (e *DeliveryError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("backend delivery failed (%s, HTTP %d): %v", e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("backend delivery failed (%s): %v", e.Kind, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

type uploadResponse struct {
	Success  bool   `json:"success"`
	MediaURL string `json:"media_url"`
	Error    string `json:"error"`
}

// webhookPayload mirrors the field names the backend joins on.
type webhookPayload struct {
	From           string `json:"from"`
	ContactID      string `json:"contact_id"`
	PhoneNumber    string `json:"phone_number,omitempty"`
	SendToJID      string `json:"send_to_jid,omitempty"`
	RemoteJIDAlt   string `json:"remote_jid_alt,omitempty"`
	ParticipantPn  string `json:"participant_pn,omitempty"`
	ReceivedAt     string `json:"received_at,omitempty"`
	MessageID      string `json:"message_id"`
	Timestamp      int64  `json:"timestamp"`
	Type           string `json:"type"`
	Content        string `json:"content"`
	MediaURL       string `json:"media_url,omitempty"`
	IsLid          bool   `json:"is_lid"`
	IsGroup        bool   `json:"is_group"`
	OriginalJID    string `json:"original_jid,omitempty"`
	FromMe         bool   `json:"from_me,omitempty"`
}

// Gateway posts normalized messages and media blobs to the backend sink.
// Small JSON payloads and media uploads run on materially different timeout
// budgets; both are bounded, a slow backend can never hang an
// envelope-processing task indefinitely.
type Gateway struct {
	baseURL         string
	accountNumber   string
	httpClient      *http.Client
	inboundTimeout  time.Duration
	outgoingTimeout time.Duration
	mediaTimeout    time.Duration
	limiter         *rate.Limiter
}

func NewGateway(baseURL string) *Gateway {
	perSecond := env.GetEnvIntOrDefault("BACKEND_RATE_LIMIT_PER_SECOND", 20)
	return &Gateway{
		baseURL:         strings.TrimRight(baseURL, "/"),
		accountNumber:   env.GetEnvStringOrDefault("BRIDGE_ACCOUNT_NUMBER", ""),
		httpClient:      &http.Client{},
		inboundTimeout:  env.GetEnvDurationOrDefault("BACKEND_WEBHOOK_TIMEOUT", 10*time.Second),
		outgoingTimeout: env.GetEnvDurationOrDefault("BACKEND_OUTGOING_TIMEOUT", 5*time.Second),
		mediaTimeout:    env.GetEnvDurationOrDefault("BACKEND_MEDIA_TIMEOUT", 30*time.Second),
		limiter:         rate.NewLimiter(rate.Limit(perSecond), perSecond),
	}
}

// Deliver posts one normalized message to the backend webhook matching its
// direction. Errors are reported, never retried here.
func (g *Gateway) Deliver(ctx context.Context, msg *NormalizedMessage) error {
	path := inboundWebhookPath
	timeout := g.inboundTimeout
	if msg.Direction == DirectionOutbound {
		path = outgoingWebhookPath
		timeout = g.outgoingTimeout
	}

	payload := webhookPayload{
		From:          msg.Contact.CanonicalID,
		ContactID:     msg.Contact.CanonicalID,
		PhoneNumber:   msg.Contact.PhoneNumber,
		SendToJID:     msg.Contact.SendHandle,
		RemoteJIDAlt:  msg.AlternateHandle,
		ParticipantPn: msg.ParticipantHint,
		ReceivedAt:    g.accountNumber,
		MessageID:     msg.MessageID,
		Timestamp:     msg.TimestampSeconds,
		Type:          string(msg.Kind),
		Content:       msg.TextContent,
		MediaURL:      msg.MediaURL,
		IsLid:         msg.Contact.Kind == contact.KindPrivacy,
		IsGroup:       msg.Contact.IsGroup,
		OriginalJID:   msg.OriginalHandle,
		FromMe:        msg.Direction == DirectionOutbound,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return &DeliveryError{Kind: DeliveryBackendRejected, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := g.limiter.Wait(ctx); err != nil {
		return classifyDeliveryError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return &DeliveryError{Kind: DeliveryBackendRejected, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return classifyDeliveryError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &DeliveryError{
			Kind:   DeliveryBackendRejected,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody)),
		}
	}
	return nil
}

// UploadMedia posts raw media bytes to the backend's upload endpoint and
// returns the public media URL from its response.
func (g *Gateway) UploadMedia(ctx context.Context, fileName string, mimeType string, data []byte) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("media_file", fileName)
	if err != nil {
		return "", err
	}
	if _, err = part.Write(data); err != nil {
		return "", err
	}
	if err = writer.Close(); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, g.mediaTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+uploadMediaPath, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", classifyDeliveryError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &DeliveryError{
			Kind:   DeliveryBackendRejected,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("upload rejected with HTTP %d", resp.StatusCode),
		}
	}

	var decoded uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", &DeliveryError{Kind: DeliveryBackendRejected, Err: err}
	}
	if !decoded.Success {
		return "", &DeliveryError{
			Kind: DeliveryBackendRejected,
			Err:  fmt.Errorf("upload not accepted: %s", decoded.Error),
		}
	}
	return decoded.MediaURL, nil
}

func classifyDeliveryError(err error) *DeliveryError {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &DeliveryError{Kind: DeliveryTimeout, Err: err}
	case errors.As(err, &netErr) && netErr.Timeout():
		return &DeliveryError{Kind: DeliveryTimeout, Err: err}
	case errors.Is(err, syscall.ECONNREFUSED):
		return &DeliveryError{Kind: DeliveryConnectionRefused, Err: err}
	default:
		return &DeliveryError{Kind: DeliveryBackendRejected, Err: err}
	}
}

// SendTarget converts a normalized target back into a protocol handle.
// Values already carrying a domain suffix pass through verbatim; formatted
// phone strings are stripped to digits and given the standard-user suffix.
func SendTarget(to string) (string, error) {
	to = strings.TrimSpace(to)
	if to == "" {
		return "", errors.New("send target is empty")
	}
	if strings.Contains(to, "@") {
		return to, nil
	}
	digits := contact.Digits(to)
	if len(digits) < 10 || len(digits) > 15 {
		return "", errors.New("send target is not a valid phone number length")
	}
	return digits + contact.StandardSuffix, nil
}

// SendTargetForIdentity prefers the identity's send handle and falls back to
// reconstructing a standard handle from its canonical phone representation.
func SendTargetForIdentity(id contact.Identity) (string, error) {
	if id.SendHandle != "" {
		return id.SendHandle, nil
	}
	return SendTarget(id.CanonicalID)
}
