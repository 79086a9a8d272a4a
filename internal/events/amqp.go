package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// AMQPForwarder Bus'taki bildirimleri topic exchange'e aktarır; routing key olay tipidir.
type AMQPForwarder struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	log      zerolog.Logger
}

func NewAMQPForwarder(url, exchange string, log zerolog.Logger) (*AMQPForwarder, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("AMQP bağlantısı kurulamadı: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("AMQP kanalı açılamadı: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("exchange tanımlanamadı: %w", err)
	}

	return &AMQPForwarder{conn: conn, channel: ch, exchange: exchange, log: log}, nil
}

// Handle Bus.SubscribeAll ile bağlanır. Yayın hatası loglanır, işlemi bozmaz.
func (f *AMQPForwarder) Handle(ctx context.Context, e Event) {
	body, err := json.Marshal(e)
	if err != nil {
		f.log.Error().Err(err).Str("type", string(e.Type)).Msg("olay serileştirilemedi")
		return
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	err = f.channel.PublishWithContext(pubCtx,
		f.exchange,     // exchange
		string(e.Type), // routing key
		false,          // mandatory
		false,          // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    e.At,
			Body:         body,
		})
	if err != nil {
		f.log.Error().Err(err).Str("type", string(e.Type)).Msg("olay AMQP'ye gönderilemedi")
		return
	}
	f.log.Debug().Str("type", string(e.Type)).Str("entity_id", e.EntityID).Msg("olay AMQP'ye gönderildi")
}

func (f *AMQPForwarder) Close() error {
	if f.channel != nil {
		f.channel.Close()
	}
	if f.conn != nil {
		return f.conn.Close()
	}
	return nil
}
