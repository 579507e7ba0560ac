package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/event-attendance/internal/model"
)

// Publisher sends AttendanceConfirmedEvent messages to RabbitMQ.  Each
// publish dials its own connection; confirmations are rare enough that a
// pooled channel is not worth the reconnect bookkeeping.  Errors are logged
// and returned so callers can ignore them without interrupting the request.
type Publisher struct {
	url     string
	timeout time.Duration
	log     *zap.Logger
}

// PublishTimeout bounds one publish, dial included.
const PublishTimeout = 2 * time.Second

// NewPublisher returns a publisher for the broker at url.
func NewPublisher(url string, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{url: url, timeout: PublishTimeout, log: log.Named("publisher")}
}

// dialBudget is how long a dial may take: max, or less when ctx expires
// sooner.
func dialBudget(ctx context.Context, max time.Duration) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if dl, ok := ctx.Deadline(); ok {
		left := time.Until(dl)
		if left <= 0 {
			return 0, context.DeadlineExceeded
		}
		if left < max {
			return left, nil
		}
	}
	return max, nil
}

// PublishConfirmed publishes c to the attendance.confirmed queue as a
// persistent JSON message.  The whole attempt gives up after the
// publisher's timeout or when ctx ends, whichever comes first.
func (p *Publisher) PublishConfirmed(ctx context.Context, c model.ConfirmedReservation) error {
	body, err := json.Marshal(NewAttendanceConfirmedEvent(c))
	if err != nil {
		p.log.Error("marshal event failed", zap.Error(err))
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	budget, err := dialBudget(ctx, p.timeout)
	if err != nil {
		p.log.Warn("publish abandoned", zap.String("reservation_id", c.ID), zap.Error(err))
		return err
	}
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(budget),
	})
	if err != nil {
		p.log.Warn("dial failed", zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn("channel open failed", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(ConfirmedQueueName, true, false, false, false, nil); err != nil {
		p.log.Warn("queue declare failed", zap.Error(err))
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", ConfirmedQueueName, false, false, pub); err != nil {
		p.log.Warn("publish failed", zap.String("reservation_id", c.ID), zap.Error(err))
		return err
	}
	return nil
}
