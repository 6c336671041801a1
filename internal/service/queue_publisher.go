// Package queue_publisher publishes domain messages to RabbitMQ. Failures are
// logged and returned so callers can decide to carry on.
package queue_publisher

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/elemevent/site/internal/model"
	q "github.com/elemevent/site/internal/queue"
)

// Publisher sends messages over a connection opened per publish. Pushes are
// rare editorial actions, so a long-lived channel is not worth its
// reconnection handling.
type Publisher struct {
	url string
	log zerolog.Logger
	now func() time.Time
}

func NewPublisher(url string, log zerolog.Logger) *Publisher {
	return &Publisher{url: url, log: log, now: time.Now}
}

// PublishEventPush publishes m to the event.push queue as a persistent
// message. PublishedAt is filled in when empty.
func (p *Publisher) PublishEventPush(ctx context.Context, m q.EventPushMessage) error {
	if m.PublishedAt == "" {
		m.PublishedAt = p.now().UTC().Format(time.RFC3339)
	}
	body, err := json.Marshal(m)
	if err != nil {
		p.log.Error().Err(err).Msg("rabbitmq: marshal message failed")
		return err
	}
	return p.publish(ctx, q.EventPushQueue, body)
}

func (p *Publisher) publish(ctx context.Context, queue string, body []byte) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Warn().Err(err).Msg("rabbitmq: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn().Err(err).Msg("rabbitmq: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		p.log.Warn().Err(err).Str("queue", queue).Msg("rabbitmq: queue declare failed")
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    p.now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue, false, false, pub); err != nil {
		p.log.Warn().Err(err).Str("queue", queue).Msg("rabbitmq: publish failed")
		return err
	}
	p.log.Debug().Str("queue", queue).Msg("rabbitmq: published")
	return nil
}

// PushMessage builds the event.push message for ev. loc is the city's zone;
// when it is nil StartsAt is the wall time without an offset.
func PushMessage(ev *model.Event, content string, loc *time.Location) q.EventPushMessage {
	startsAt := ev.Date.String() + "T" + ev.Time.String()
	if loc != nil {
		startsAt = ev.StartIn(loc).Format(time.RFC3339)
	}
	return q.EventPushMessage{
		EventID:  ev.ID,
		Slug:     ev.Slug,
		Title:    ev.Title,
		City:     ev.City.Name,
		StartsAt: startsAt,
		Content:  content,
	}
}
