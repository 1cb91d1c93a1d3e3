package internal

import (
	"github.com/nortecrm/whatsapp-bridge/pkg/bridge"
	"github.com/nortecrm/whatsapp-bridge/pkg/contact"
	"github.com/nortecrm/whatsapp-bridge/pkg/env"
	"github.com/nortecrm/whatsapp-bridge/pkg/log"
	"github.com/nortecrm/whatsapp-bridge/pkg/whatsapp"
)

// Startup wires the processing pipeline and brings the transport session up.
// The wiring order matters: the pipeline must be attached before the first
// Connect so no early envelope is dropped on the floor.
func Startup() {
	log.Print(nil).Info("Running Startup Tasks")

	backendBaseURL, err := env.GetEnvString("BACKEND_BASE_URL")
	if err != nil {
		log.Print(nil).Fatal("BACKEND_BASE_URL is required")
	}

	if err := whatsapp.Init(); err != nil {
		log.Print(nil).WithError(err).Fatal("Failed to initialize WhatsApp session datastore")
	}

	resolver := contact.NewResolver(contact.ParsePolicy(env.GetEnvStringOrDefault("RESOLVER_POLICY", "prefer_phone")))
	gateway := bridge.NewGateway(backendBaseURL)
	cache := bridge.NewRecentCache(env.GetEnvIntOrDefault("RECENT_CACHE_CAPACITY", 100))
	normalizer := bridge.NewNormalizer(resolver, whatsapp.Fetcher(), gateway)

	whatsapp.SetPipeline(bridge.NewPipeline(normalizer, gateway, cache))

	go func() {
		if err := whatsapp.Connect(); err != nil {
			log.Print(nil).WithError(err).Warn("Initial WhatsApp connection failed, reconnect scheduled")
		}
	}()
}
