package worker

import (
	"go.uber.org/zap"

	"github.com/mutooni/mutooni-api/internal/events"
	"github.com/mutooni/mutooni-api/internal/service"
)

// StartAuditWorker registers the audit log handlers.
func StartAuditWorker(auditService *service.AuditService) {
	if auditService == nil {
		return
	}
	auditService.RegisterHandlers()
}

// StartEventForwarder connects the AMQP forwarder when a broker URL is configured. A broker
// that cannot be reached leaves events in-process only.
func StartEventForwarder(url, exchange string, dispatcher events.Dispatcher, logger *zap.Logger) *events.AMQPForwarder {
	if url == "" {
		logger.Info("EVENTS_AMQP_URL not provided; events stay in-process")
		return nil
	}
	forwarder, err := events.NewAMQPForwarder(url, exchange, logger)
	if err != nil {
		logger.Warn("unable to connect event forwarder", zap.Error(err))
		return nil
	}
	forwarder.Register(dispatcher)
	logger.Info("forwarding events to rabbitmq", zap.String("exchange", exchange))
	return forwarder
}
