package internal

import (
	"github.com/robfig/cron/v3"

	"github.com/nortecrm/whatsapp-bridge/pkg/env"
	"github.com/nortecrm/whatsapp-bridge/pkg/log"
	"github.com/nortecrm/whatsapp-bridge/pkg/whatsapp"
)

// Routines schedules the periodic session health check. The event handlers
// already reconnect on Disconnected; the cron is a safety net for the cases
// where the transport dies without emitting one.
func Routines(cron *cron.Cron) {
	log.Print(nil).Info("Running Routine Tasks")

	if env.GetEnvBoolOrDefault("WHATSAPP_ENABLE_HEALTH_CHECK_CRON", true) {
		_, err := cron.AddFunc("0 */5 * * * *", func() {
			state := whatsapp.State()
			if whatsapp.IsConnected() {
				log.Session(state.String()).Info("Session healthy")
				return
			}
			log.Session(state.String()).Warn("Session unhealthy, attempting reconnect")
			if err := whatsapp.Connect(); err != nil {
				log.Session(state.String()).WithError(err).Warn("Health check reconnect failed")
			}
		})
		if err != nil {
			log.Print(nil).WithError(err).Error("Failed to add health check cron job")
		}
	} else {
		log.Print(nil).Info("Health check cron disabled; relying on transport event handlers")
	}

	cron.Start()
}
