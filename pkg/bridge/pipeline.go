package bridge

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/nortecrm/whatsapp-bridge/pkg/contact"
	"github.com/nortecrm/whatsapp-bridge/pkg/log"
)

// Pipeline drives each envelope through normalize → cache → deliver.
// Envelopes in a batch run concurrently so media transfer on one message
// never blocks the siblings; per-envelope errors are isolated and logged.
type Pipeline struct {
	normalizer *Normalizer
	gateway    *Gateway
	cache      *RecentCache
}

func NewPipeline(normalizer *Normalizer, gateway *Gateway, cache *RecentCache) *Pipeline {
	return &Pipeline{normalizer: normalizer, gateway: gateway, cache: cache}
}

// HandleBatch processes a batch of raw envelopes to completion. It never
// returns an error to the transport: malformed protocol noise is expected
// traffic volume, not an exceptional condition.
func (p *Pipeline) HandleBatch(ctx context.Context, envelopes []*RawEnvelope) {
	group, ctx := errgroup.WithContext(ctx)
	for _, env := range envelopes {
		group.Go(func() error {
			p.handleOne(ctx, env)
			return nil
		})
	}
	_ = group.Wait()
}

func (p *Pipeline) handleOne(ctx context.Context, env *RawEnvelope) {
	msg, err := p.normalizer.Normalize(ctx, env)
	if err != nil {
		// Dropped silently from the stream's perspective: logged, not
		// retried, not surfaced as a hard failure.
		if errors.Is(err, contact.ErrUnsupportedHandle) || errors.Is(err, contact.ErrInvalidLength) {
			log.Msg("drop", env.MessageID).WithField("handle", env.PrimaryHandle).WithError(err).Warn("Envelope rejected by resolver")
		} else {
			log.Msg("drop", env.MessageID).WithError(err).Error("Failed to normalize envelope")
		}
		return
	}
	if msg == nil {
		return
	}

	if msg.Direction == DirectionInbound {
		p.cache.Put(msg.MessageID, CacheEntry{
			Content:          msg.TextContent,
			Kind:             msg.Kind,
			TimestampSeconds: msg.TimestampSeconds,
			Contact:          msg.Contact,
		})
	}

	if err := p.gateway.Deliver(ctx, msg); err != nil {
		log.Msg(string(msg.Direction), msg.MessageID).
			WithField("contact", msg.Contact.CanonicalID).
			WithError(err).
			Error("Backend delivery failed")
		return
	}
	log.Msg(string(msg.Direction), msg.MessageID).
		WithField("contact", msg.Contact.CanonicalID).
		WithField("type", string(msg.Kind)).
		Info("Message delivered to backend")
}

// HandleReceipt correlates a delivery-status update with content already
// seen, using the recent-message cache.
func (p *Pipeline) HandleReceipt(messageID string, receiptType string) {
	entry, ok := p.cache.Get(messageID)
	if !ok {
		return
	}
	log.Msg("receipt", messageID).
		WithField("receipt", receiptType).
		WithField("contact", entry.Contact.CanonicalID).
		Info("Delivery status for cached message")
}
