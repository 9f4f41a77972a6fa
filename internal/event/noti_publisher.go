package event

import (
	"audit-service/internal/models"
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// PushNotiQueue is consumed by the notification service.
const PushNotiQueue string = "push_noti_events"

// NotificationEventPushModel is the message body the notification service expects.
type NotificationEventPushModel struct {
	LstUserIds []string       `json:"lstUserIds,omitempty"`
	Title      string         `json:"title"`
	Body       string         `json:"body"`
	Data       map[string]any `json:"data,omitempty"`
}

// amqpChannel is the slice of *amqp.Channel the publisher needs.
type amqpChannel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type NotificationPublisher struct {
	channel           amqpChannel
	logger            *zap.Logger
	messagesPublished atomic.Int64
	messagesFailed    atomic.Int64
}

// NewNotificationPublisher creates a publisher on an open connection.
func NewNotificationPublisher(conn *Connection, logger *zap.Logger) *NotificationPublisher {
	return newPublisher(conn.channel, logger)
}

func newPublisher(ch amqpChannel, logger *zap.Logger) *NotificationPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationPublisher{channel: ch, logger: logger}
}

// NotifyResolved tells the report author that their report was resolved.
func (p *NotificationPublisher) NotifyResolved(ctx context.Context, record *models.AuditRecord) error {
	return p.PublishNotification(ctx, ResolutionEvent(record))
}

// PublishNotification publishes a persistent JSON event to the push_noti_events queue.
func (p *NotificationPublisher) PublishNotification(ctx context.Context, event NotificationEventPushModel) error {
	_, err := p.channel.QueueDeclare(
		PushNotiQueue, // queue name
		true,          // durable
		false,         // delete when unused
		false,         // exclusive
		false,         // no-wait
		nil,           // arguments
	)
	if err != nil {
		p.messagesFailed.Add(1)
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.messagesFailed.Add(1)
		return fmt.Errorf("failed to marshal notification event: %w", err)
	}

	err = p.channel.PublishWithContext(
		ctx,
		"",            // exchange
		PushNotiQueue, // routing key
		false,         // mandatory
		false,         // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		p.messagesFailed.Add(1)
		return fmt.Errorf("failed to publish notification event: %w", err)
	}

	p.messagesPublished.Add(1)
	p.logger.Info("notification event published",
		zap.String("queue", PushNotiQueue),
		zap.String("title", event.Title))
	return nil
}

// Stats returns the published and failed message counts.
func (p *NotificationPublisher) Stats() (published, failed int64) {
	return p.messagesPublished.Load(), p.messagesFailed.Load()
}

func ResolutionEvent(record *models.AuditRecord) NotificationEventPushModel {
	var recipients []string
	if record.AuthorID != "" {
		recipients = []string{record.AuthorID}
	}
	return NotificationEventPushModel{
		LstUserIds: recipients,
		Title:      "Audit report resolved",
		Body:       fmt.Sprintf("%s (%s, %s) was marked resolved.", record.UtilityName, record.BuildingZone, record.State),
		Data: map[string]any{
			"recordId":     record.ID.Hex(),
			"state":        record.State,
			"conditionKey": record.ConditionKey,
		},
	}
}
