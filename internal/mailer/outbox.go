package mailer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// TaskType tags mail entries on the task stream.
const TaskType = "mail"

// Outbox queues messages on the task stream; the worker delivers them.
type Outbox struct {
	client redis.Cmdable
	stream string
}

func NewOutbox(client redis.Cmdable, stream string) *Outbox {
	return &Outbox{client: client, stream: stream}
}

func (o *Outbox) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode mail: %w", err)
	}
	err = o.client.XAdd(ctx, &redis.XAddArgs{
		Stream: o.stream,
		Values: map[string]any{
			"type":    TaskType,
			"payload": string(payload),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("enqueue mail: %w", err)
	}
	return nil
}

func Decode(payload string) (Message, error) {
	var msg Message
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		return Message{}, fmt.Errorf("decode mail: %w", err)
	}
	return msg, nil
}
