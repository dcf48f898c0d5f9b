package main

import (
	"github.com/jhoicas/kitquirurgico-api/internal/application/notification"
	"github.com/jhoicas/kitquirurgico-api/internal/application/ports"
	"github.com/jhoicas/kitquirurgico-api/internal/infrastructure/rabbitmq"
	"github.com/jhoicas/kitquirurgico-api/pkg/config"
	"github.com/jhoicas/kitquirurgico-api/pkg/logger"
)

// newNotifier RabbitMQ si hay URL; si no, solo log. closeFn libera la conexión.
func newNotifier(cfg config.RabbitConfig, log *logger.Logger) (n ports.Notifier, closeFn func(), err error) {
	if cfg.URL == "" {
		return notification.NewLogNotifier(log), func() {}, nil
	}
	rmq, err := rabbitmq.NewNotifier(cfg.URL, cfg.Exchange, log)
	if err != nil {
		return nil, nil, err
	}
	return rmq, rmq.Close, nil
}
