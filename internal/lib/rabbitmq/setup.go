package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"
)

// QueueConfig описывает очередь и ключ маршрутизации, с которым она привязана к exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// Topology описывает exchange и привязанные к нему очереди.
type Topology struct {
	Exchange string
	Queues   []QueueConfig
	Prefetch int
}

// ReminderTopology возвращает топологию для очереди писем с напоминаниями.
func ReminderTopology(exchange, queue, routingKey string, prefetch int) Topology {
	return Topology{
		Exchange: exchange,
		Queues:   []QueueConfig{{QueueName: queue, RoutingKey: routingKey}},
		Prefetch: prefetch,
	}
}

// SetupChannel открывает канал и объявляет durable direct exchange и очереди из topology.
func SetupChannel(conn *amqp.Connection, topology Topology) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if topology.Prefetch > 0 {
		if err := ch.Qos(topology.Prefetch, 0, false); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("%s: failed to set QoS: %w", op, err)
		}
	}

	err = ch.ExchangeDeclare(
		topology.Exchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, q := range topology.Queues {
		_, err := ch.QueueDeclare(
			q.QueueName,
			true,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("%s: failed to declare queue %s: %w", op, q.QueueName, err)
		}

		err = ch.QueueBind(
			q.QueueName,
			q.RoutingKey,
			topology.Exchange,
			false,
			nil,
		)
		if err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("%s: failed to bind queue %s with routing key %s: %w", op, q.QueueName, q.RoutingKey, err)
		}
	}

	return ch, nil
}
