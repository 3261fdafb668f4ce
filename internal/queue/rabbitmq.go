package queue

import (
	"context"

	"github.com/pkg/errors"
	"github.com/streadway/amqp"
	"gopkg.in/yaml.v2"
)

type rabbitmq struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewRabbitMQ(ctx context.Context, url string) (Channel, error) {
	conn, err := amqp.Dial(url)

	if err != nil {
		return nil, errors.Wrap(err, "rabbitmq dial")
	}

	ch, err := conn.Channel()

	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "rabbitmq channel")
	}

	// One unacked job per worker
	if err = ch.Qos(1, 0, false); err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "rabbitmq qos")
	}

	r := &rabbitmq{conn: conn, ch: ch}

	go func() {
		<-ctx.Done()
		_ = r.Close()
	}()

	return r, nil
}

func (r *rabbitmq) CreateQueue(queue string) error {
	_, err := r.ch.QueueDeclare(queue, true, false, false, false, nil)
	return errors.Wrapf(err, "declare queue '%s'", queue)
}

func (r *rabbitmq) Consume(queue string, data interface{}) (bool, Delivery, error) {
	msg, ok, err := r.ch.Get(queue, false)

	if err != nil {
		return false, nil, errors.Wrapf(err, "get from '%s'", queue)
	}

	if !ok {
		return false, nil, nil
	}

	delivery := &rabbitmqDelivery{msg: msg}

	if err = Decode(msg.Body, data); err != nil {
		// A payload that cannot be decoded will never be, drop it
		_ = delivery.Nack(false)
		return false, nil, errors.Wrapf(err, "decode message from '%s'", queue)
	}

	return true, delivery, nil
}

func (r *rabbitmq) Publish(queue string, data interface{}) error {
	body, err := Encode(data)

	if err != nil {
		return errors.Wrapf(err, "encode message for '%s'", queue)
	}

	return r.ch.Publish("", queue, false, false, amqp.Publishing{
		ContentType:  "text/yaml",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

func (r *rabbitmq) Close() error {
	err := r.conn.Close()

	if err == amqp.ErrClosed {
		return nil
	}

	return err
}

func Encode(data interface{}) ([]byte, error) {
	return yaml.Marshal(data)
}

func Decode(body []byte, data interface{}) error {
	return yaml.Unmarshal(body, data)
}
