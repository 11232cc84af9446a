// Package tasks executes the entries the worker reads from the task stream.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"lagimmo/api/internal/mailer"
	"lagimmo/api/internal/metrics"
)

const (
	TypeMail          = mailer.TaskType
	TypeTokensPrune   = "tokens.prune"
	TypeSessionsPurge = "sessions.purge"
)

type TokenPruner interface {
	Prune(ctx context.Context) (int, error)
}

type SessionPurger interface {
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

type Processor struct {
	mail     mailer.Sender
	tokens   TokenPruner
	sessions SessionPurger
	logger   zerolog.Logger
	now      func() time.Time
}

func NewProcessor(mail mailer.Sender, tokens TokenPruner, sessions SessionPurger, logger zerolog.Logger) *Processor {
	return &Processor{
		mail:     mail,
		tokens:   tokens,
		sessions: sessions,
		logger:   logger,
		now:      time.Now,
	}
}

// Handle runs one stream entry. A returned error leaves the entry pending so
// the consumer retries it later.
func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	taskType, _ := msg.Values["type"].(string)
	started := time.Now()

	var err error
	switch taskType {
	case TypeMail:
		err = p.handleMail(ctx, msg)
	case TypeTokensPrune:
		err = p.handlePrune(ctx)
	case TypeSessionsPurge:
		err = p.handlePurge(ctx)
	default:
		p.logger.Warn().Str("type", taskType).Str("message_id", msg.ID).Msg("unknown task type")
		return nil
	}

	metrics.RecordTask(taskType, time.Since(started), err == nil)
	return err
}

func (p *Processor) handleMail(ctx context.Context, msg redis.XMessage) error {
	payload, ok := msg.Values["payload"].(string)
	if !ok {
		return errors.New("mail task without payload")
	}
	mail, err := mailer.Decode(payload)
	if err != nil {
		return err
	}
	if err := p.mail.Send(ctx, mail); err != nil {
		return fmt.Errorf("deliver mail: %w", err)
	}
	p.logger.Info().
		Str("message_id", msg.ID).
		Int("recipients", len(mail.To)).
		Str("template", mail.TemplateID).
		Msg("mail delivered")
	return nil
}

func (p *Processor) handlePrune(ctx context.Context) error {
	removed, err := p.tokens.Prune(ctx)
	if err != nil {
		return fmt.Errorf("prune allow-list: %w", err)
	}
	p.logger.Info().Int("removed", removed).Msg("allow-list pruned")
	return nil
}

func (p *Processor) handlePurge(ctx context.Context) error {
	deleted, err := p.sessions.DeleteExpired(ctx, p.now())
	if err != nil {
		return fmt.Errorf("purge sessions: %w", err)
	}
	p.logger.Info().Int64("deleted", deleted).Msg("expired sessions purged")
	return nil
}
