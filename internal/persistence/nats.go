package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/spec-kit/city-issue-service/internal/config"
)

// NATS wraps the message bus connection.
type NATS struct {
	Conn *nats.Conn
}

// NewNATS connects to the message bus using the provided configuration.
func NewNATS(cfg config.NATSConfig, logger *zap.Logger) (*NATS, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.Name(cfg.ClientName),
		nats.Timeout(cfg.ConnectTimeout),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, err
	}

	logger.Info("connected to nats", zap.String("url", cfg.URL))
	return &NATS{Conn: conn}, nil
}

// Close drains and closes the connection.
func (n *NATS) Close() {
	if n != nil && n.Conn != nil {
		_ = n.Conn.Drain()
	}
}

// Ping verifies bus connectivity.
func (n *NATS) Ping(ctx context.Context) error {
	if n == nil || n.Conn == nil {
		return errors.New("nats connection not configured")
	}
	if !n.Conn.IsConnected() {
		return errors.New("nats connection lost")
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(2 * time.Second)
	}
	return n.Conn.FlushTimeout(time.Until(deadline))
}
