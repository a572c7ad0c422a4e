package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/subtrack/internal/lib/sl"
)

// Handler обрабатывает тело сообщения. Ошибка возвращает сообщение в очередь.
type Handler func(ctx context.Context, body []byte) error

// ErrReject помечает сообщение, которое бессмысленно обрабатывать повторно.
// Такое сообщение отклоняется без возврата в очередь.
var ErrReject = errors.New("message rejected")

// ConsumeMessages читает очередь queueName и обрабатывает сообщения не более чем
// в concurrency горутинах. Блокируется до отмены ctx или закрытия канала доставки
// и дожидается завершения запущенных обработчиков.
func ConsumeMessages(ctx context.Context, log *slog.Logger, ch *amqp.Channel, queueName string, concurrency int, handler Handler) error {
	const op = "rabbitmq.ConsumeMessages"
	deliveries, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	Dispatch(ctx, log, deliveries, concurrency, handler)
	return nil
}

// Acknowledger подтверждает доставку, реализуется amqp.Delivery.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// Dispatch раздаёт доставки обработчикам с ограничением параллелизма.
// Успешно обработанное сообщение подтверждается, неуспешное возвращается в очередь.
func Dispatch(ctx context.Context, log *slog.Logger, deliveries <-chan amqp.Delivery, concurrency int, handler Handler) {
	if concurrency < 1 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			sem <- struct{}{}
			wg.Add(1)
			go func(delivery amqp.Delivery) {
				defer func() {
					<-sem
					wg.Done()
				}()
				Handle(ctx, log, delivery, delivery.Body, handler)
			}(d)
		case <-ctx.Done():
			return
		}
	}
}

// Handle вызывает handler и подтверждает сообщение. При ошибке сообщение возвращается в очередь,
// если ошибка не ErrReject.
func Handle(ctx context.Context, log *slog.Logger, ack Acknowledger, body []byte, handler Handler) {
	if err := handler(ctx, body); err != nil {
		requeue := !errors.Is(err, ErrReject)
		log.Error("failed to handle message", slog.Bool("requeue", requeue), sl.Err(err))
		if nackErr := ack.Nack(false, requeue); nackErr != nil {
			log.Error("failed to nack message", sl.Err(nackErr))
		}
		return
	}
	if ackErr := ack.Ack(false); ackErr != nil {
		log.Error("failed to ack message", sl.Err(ackErr))
	}
}
