package event

import (
	"audit-service/internal/config"
	"errors"
	"fmt"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const connectionName = "audit-service"

// Connection is one AMQP connection with the single channel the publisher uses.
type Connection struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *zap.Logger
}

// Connect dials the broker. Credentials are escaped by amqp.URI, so they may contain any character.
func Connect(cfg config.RabbitMQConfig, logger *zap.Logger) (*Connection, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	port, err := strconv.Atoi(cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("invalid RabbitMQ port %q: %w", cfg.Port, err)
	}
	uri := amqp.URI{
		Scheme:   "amqp",
		Host:     cfg.Host,
		Port:     port,
		Username: cfg.Username,
		Password: cfg.Password,
		Vhost:    "/",
	}

	conn, err := amqp.DialConfig(uri.String(), amqp.Config{
		Heartbeat:  10 * time.Second,
		Properties: amqp.Table{"connection_name": connectionName},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ at %s:%d: %w", cfg.Host, port, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}

	c := &Connection{conn: conn, channel: ch, logger: logger}
	go c.watch(conn.NotifyClose(make(chan *amqp.Error, 1)))

	logger.Info("connected to RabbitMQ", zap.String("host", cfg.Host), zap.Int("port", port))
	return c, nil
}

// watch logs a broker-initiated close. A nil error means Close was called locally.
func (c *Connection) watch(closed <-chan *amqp.Error) {
	if err, ok := <-closed; ok && err != nil {
		c.logger.Error("RabbitMQ connection lost, notifications will fail until restart",
			zap.Int("code", err.Code),
			zap.String("reason", err.Reason))
	}
}

func (c *Connection) Close() error {
	if err := c.channel.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		c.logger.Warn("failed to close RabbitMQ channel", zap.Error(err))
	}
	if err := c.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		return fmt.Errorf("failed to close RabbitMQ connection: %w", err)
	}
	return nil
}
