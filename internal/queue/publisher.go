package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/otp-session-auth/internal/model"
)

// Publisher delivers OTP challenges by publishing OtpDispatchEvent messages
// to a durable queue.  It satisfies otp.Notifier.  Each call dials the
// broker; OTPs are issued twice per signup, so there is no pool to manage.
type Publisher struct {
	URL    string
	Queue  string
	Logger *slog.Logger
}

// Notify publishes c.  Errors are logged and returned so the caller can
// choose to ignore them.  Messages are marked as persistent.
func (p Publisher) Notify(ctx context.Context, c model.OtpChallenge) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		p.Logger.ErrorContext(ctx, "rabbitmq: dial failed", "error", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.Logger.ErrorContext(ctx, "rabbitmq: channel open failed", "error", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if err := declareQueue(ch, p.Queue); err != nil {
		p.Logger.ErrorContext(ctx, "rabbitmq: queue declare failed", "error", err)
		return err
	}

	body, err := json.Marshal(NewOtpDispatchEvent(c, time.Now()))
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",      // default exchange
		p.Queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		pub,
	); err != nil {
		p.Logger.ErrorContext(ctx, "rabbitmq: publish failed", "error", err)
		return err
	}
	return nil
}

func declareQueue(ch *amqp.Channel, name string) error {
	_, err := ch.QueueDeclare(
		name,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	)
	return err
}
