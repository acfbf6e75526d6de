package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/techcreator/storefront/pkg/logger"
	"github.com/techcreator/storefront/pkg/metrics"
)

// ErrAllDeliveryMethodsFailed is returned when every step of a chain failed.
var ErrAllDeliveryMethodsFailed = errors.New("all email delivery methods failed")

// Message is a composed email. Template channels read TemplateID and Params,
// HTML channels read the addressing and body fields.
type Message struct {
	TemplateID string
	Params     map[string]any

	To      Recipient
	ReplyTo string
	Subject string
	HTML    string
	Text    string
	Tags    []string
}

// Recipient is an addressed party.
type Recipient struct {
	Email string
	Name  string
}

// Channel is one provider transport.
type Channel interface {
	Send(ctx context.Context, msg Message) error
}

// Step pairs a composer with the channel that sends its output.
type Step[T any] struct {
	Name    string
	Compose func(T) (Message, error)
	Channel Channel
}

// Chain tries steps in order and stops at the first success. Recipients may
// receive more than one email when an earlier step silently delivered.
type Chain[T any] struct {
	name    string
	steps   []Step[T]
	logg    *logger.Logger
	metrics *metrics.NotificationMetrics
}

func NewChain[T any](name string, logg *logger.Logger, m *metrics.NotificationMetrics, steps ...Step[T]) *Chain[T] {
	return &Chain[T]{name: name, steps: steps, logg: logg, metrics: m}
}

// Name returns the chain label used in logs and metrics.
func (c *Chain[T]) Name() string {
	return c.name
}

// Steps lists the configured step names in order.
func (c *Chain[T]) Steps() []string {
	names := make([]string, 0, len(c.steps))
	for _, s := range c.steps {
		names = append(names, s.Name)
	}
	return names
}

// Dispatch runs the chain and returns the name of the step that delivered.
func (c *Chain[T]) Dispatch(ctx context.Context, payload T) (string, error) {
	var errs error
	for _, step := range c.steps {
		started := time.Now()
		err := c.runStep(ctx, step, payload)
		c.metrics.ObserveStep(c.name, step.Name, err == nil, time.Since(started))
		if err == nil {
			if c.logg != nil {
				c.logg.Info(c.logg.WithFields(ctx, map[string]any{"chain": c.name, "step": step.Name}), "email delivered")
			}
			return step.Name, nil
		}
		if c.logg != nil {
			c.logg.Warn(c.logg.WithFields(ctx, map[string]any{"chain": c.name, "step": step.Name, "error": err.Error()}), "email step failed")
		}
		errs = multierr.Append(errs, fmt.Errorf("%s: %w", step.Name, err))
		if ctx.Err() != nil {
			break
		}
	}
	c.metrics.IncExhausted(c.name)
	if errs == nil {
		return "", fmt.Errorf("%s: %w: no steps configured", c.name, ErrAllDeliveryMethodsFailed)
	}
	return "", fmt.Errorf("%s: %w: %w", c.name, ErrAllDeliveryMethodsFailed, errs)
}

func (c *Chain[T]) runStep(ctx context.Context, step Step[T], payload T) error {
	if step.Channel == nil || step.Compose == nil {
		return errors.New("step not wired")
	}
	msg, err := step.Compose(payload)
	if err != nil {
		return fmt.Errorf("compose: %w", err)
	}
	return step.Channel.Send(ctx, msg)
}
