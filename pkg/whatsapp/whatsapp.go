package whatsapp

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mdp/qrterminal"
	qrCode "github.com/skip2/go-qrcode"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types/events"

	"github.com/nortecrm/whatsapp-bridge/pkg/bridge"
	"github.com/nortecrm/whatsapp-bridge/pkg/env"
	"github.com/nortecrm/whatsapp-bridge/pkg/log"
)

// SessionState is the observable connection state of the transport session.
type SessionState int

const (
	StateDisconnected SessionState = iota
	StatePairing
	StateConnected
)

func (s SessionState) String() string {
	switch s {
	case StatePairing:
		return "pairing"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// EnvelopePipeline consumes decoded envelopes and receipt correlations.
// Satisfied by *bridge.Pipeline.
type EnvelopePipeline interface {
	HandleBatch(ctx context.Context, envelopes []*bridge.RawEnvelope)
	HandleReceipt(messageID string, receiptType string)
}

// Session wraps one whatsmeow client with explicit, observable state.
// It replaces the ambient sock/isConnected/qrCode globals of earlier
// incarnations of this bridge so the core stays testable without a live
// transport.
type Session struct {
	mu             sync.Mutex
	client         *whatsmeow.Client
	datastore      *sqlstore.Container
	state          SessionState
	qrCode         string
	pipeline       EnvelopePipeline
	reconnectDelay time.Duration
	stopped        bool
}

var (
	sessionMu sync.Mutex
	session   *Session

	ErrNotConnected   = errors.New("whatsapp session is not connected")
	ErrNotInitialized = errors.New("whatsapp session is not initialized")
)

func normalizeDatastoreDriver(driver string) string {
	switch strings.ToLower(driver) {
	case "postgresql", "postgres", "pgx":
		return "pgx"
	case "sqlite", "sqlite3":
		return "sqlite3"
	default:
		return strings.ToLower(driver)
	}
}

// Init opens the session datastore and prepares the client. It does not
// connect; call Connect once wiring is complete.
func Init() error {
	sessionMu.Lock()
	defer sessionMu.Unlock()

	if session != nil {
		return nil
	}

	driver := normalizeDatastoreDriver(env.GetEnvStringOrDefault("WHATSAPP_DATASTORE_TYPE", "sqlite3"))
	dsn := env.GetEnvStringOrDefault("WHATSAPP_DATASTORE_URI", "file:whatsapp.db?_foreign_keys=on")

	log.Print(nil).Info("Initializing WhatsApp datastore with driver=" + driver)

	datastore, err := sqlstore.New(context.Background(), driver, dsn, nil)
	if err != nil {
		return err
	}
	if err := datastore.Upgrade(context.Background()); err != nil {
		return err
	}

	device, err := datastore.GetFirstDevice(context.Background())
	if err != nil {
		return err
	}

	s := &Session{
		datastore:      datastore,
		reconnectDelay: env.GetEnvDurationOrDefault("WHATSAPP_RECONNECT_DELAY", 3*time.Second),
	}
	client := whatsmeow.NewClient(device, nil)
	client.EnableAutoReconnect = false
	client.AutoTrustIdentity = true
	client.AddEventHandler(s.handleEvent)
	s.client = client

	session = s
	return nil
}

// SetPipeline attaches the envelope consumer. Must run before Connect.
func SetPipeline(p EnvelopePipeline) {
	s := current()
	if s == nil {
		return
	}
	s.mu.Lock()
	s.pipeline = p
	s.mu.Unlock()
}

func current() *Session {
	sessionMu.Lock()
	defer sessionMu.Unlock()
	return session
}

// Connect establishes the transport connection, entering the QR pairing
// flow when the session has never been paired.
func Connect() error {
	s := current()
	if s == nil {
		return ErrNotInitialized
	}
	return s.connect()
}

func (s *Session) connect() error {
	s.mu.Lock()
	s.stopped = false
	client := s.client
	s.mu.Unlock()

	if client.Store.ID == nil {
		qrChan, err := client.GetQRChannel(context.Background())
		if err != nil && !errors.Is(err, whatsmeow.ErrQRStoreContainsID) {
			return err
		}
		if err == nil {
			go s.consumeQRChannel(qrChan)
		}
	}

	if err := client.Connect(); err != nil {
		s.scheduleReconnect()
		return err
	}
	return nil
}

func (s *Session) consumeQRChannel(qrChan <-chan whatsmeow.QRChannelItem) {
	for evt := range qrChan {
		switch evt.Event {
		case "code":
			s.mu.Lock()
			s.qrCode = evt.Code
			s.state = StatePairing
			s.mu.Unlock()
			log.Session("pairing").Info("QR code generated, scan it with the WhatsApp app")
			qrterminal.GenerateHalfBlock(evt.Code, qrterminal.L, os.Stdout)
		case whatsmeow.QRChannelSuccess.Event:
			s.mu.Lock()
			s.qrCode = ""
			s.mu.Unlock()
			log.Session("pairing").Info("QR pairing completed")
		default:
			s.mu.Lock()
			s.qrCode = ""
			s.mu.Unlock()
			log.Session("pairing").Warn("QR channel ended: " + evt.Event)
		}
	}
}

// scheduleReconnect retries the connection after a fixed delay. Fixed, not
// exponential: the backend expects the bridge back quickly and the transport
// already rate-limits pairing attempts.
func (s *Session) scheduleReconnect() {
	s.mu.Lock()
	stopped := s.stopped
	delay := s.reconnectDelay
	s.mu.Unlock()
	if stopped {
		return
	}
	time.AfterFunc(delay, func() {
		log.Session("disconnected").Info("Attempting reconnect")
		if err := s.connect(); err != nil {
			log.Session("disconnected").WithError(err).Warn("Reconnect attempt failed")
		}
	})
}

func (s *Session) handleEvent(evt interface{}) {
	switch e := evt.(type) {
	case *events.Connected:
		s.mu.Lock()
		s.state = StateConnected
		s.qrCode = ""
		s.mu.Unlock()
		log.Session("connected").Info("WhatsApp session connected")
	case *events.Disconnected:
		s.mu.Lock()
		s.state = StateDisconnected
		s.mu.Unlock()
		log.Session("disconnected").Warn("WhatsApp session disconnected")
		s.scheduleReconnect()
	case *events.LoggedOut:
		s.mu.Lock()
		s.state = StateDisconnected
		s.stopped = true
		s.mu.Unlock()
		log.Session("disconnected").Warn("WhatsApp session logged out, pairing required")
	case *events.StreamReplaced:
		s.mu.Lock()
		s.state = StateDisconnected
		s.stopped = true
		s.mu.Unlock()
		log.Session("disconnected").Error("WhatsApp stream replaced by another session")
	case *events.ConnectFailure:
		log.Session("disconnected").Errorf("WhatsApp connection failure: %s", e.Reason)
	case *events.Message:
		s.dispatchMessage(e)
	case *events.Receipt:
		s.dispatchReceipt(e)
	}
}

func (s *Session) dispatchMessage(evt *events.Message) {
	s.mu.Lock()
	pipeline := s.pipeline
	s.mu.Unlock()
	if pipeline == nil {
		return
	}
	envelope := decodeEnvelope(evt)
	if envelope == nil {
		return
	}
	go pipeline.HandleBatch(context.Background(), []*bridge.RawEnvelope{envelope})
}

func (s *Session) dispatchReceipt(evt *events.Receipt) {
	s.mu.Lock()
	pipeline := s.pipeline
	s.mu.Unlock()
	if pipeline == nil {
		return
	}
	for _, id := range evt.MessageIDs {
		pipeline.HandleReceipt(id, string(evt.Type))
	}
}

// State reports the observable session state.
func State() SessionState {
	s := current()
	if s == nil {
		return StateDisconnected
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func IsConnected() bool {
	s := current()
	if s == nil {
		return false
	}
	return s.client.IsConnected() && s.client.IsLoggedIn()
}

// QRImage returns the current pairing code as a base64 PNG data URI, or an
// empty string when no pairing is in progress.
func QRImage() (string, error) {
	s := current()
	if s == nil {
		return "", ErrNotInitialized
	}
	s.mu.Lock()
	code := s.qrCode
	s.mu.Unlock()
	if code == "" {
		return "", nil
	}
	qrPNG, err := qrCode.Encode(code, qrCode.Medium, 256)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(qrPNG), nil
}

// Restart tears the connection down and reinitializes it after a short
// pause, mirroring the behavior of the /restart control endpoint.
func Restart() error {
	s := current()
	if s == nil {
		return ErrNotInitialized
	}
	s.mu.Lock()
	s.stopped = true
	s.state = StateDisconnected
	client := s.client
	s.mu.Unlock()

	client.Disconnect()

	time.AfterFunc(2*time.Second, func() {
		if err := s.connect(); err != nil {
			log.Session("disconnected").WithError(err).Error("Restart reconnect failed")
		}
	})
	return nil
}

// Shutdown disconnects without scheduling a reconnect.
func Shutdown() {
	s := current()
	if s == nil {
		return
	}
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.client.Disconnect()
}

func currentClient() (*whatsmeow.Client, error) {
	s := current()
	if s == nil {
		return nil, ErrNotInitialized
	}
	if !s.client.IsConnected() || !s.client.IsLoggedIn() {
		return nil, ErrNotConnected
	}
	return s.client, nil
}
