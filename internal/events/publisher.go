package events

import (
	"fmt"

	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/config"
)

// New picks the publisher named by cfg.Backend.
func New(cfg config.EventsConfig) (Publisher, error) {
	switch cfg.Backend {
	case "", "none":
		return Nop{}, nil
	case "kafka":
		return NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	case "nats":
		return NewNATSPublisher(cfg.NATSURL, cfg.NATSSubject)
	default:
		return nil, fmt.Errorf("events: unknown backend %q", cfg.Backend)
	}
}
