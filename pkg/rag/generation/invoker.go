package generation

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"

	"leaf-research-be/internal/pkg/logger"
	"leaf-research-be/pkg/llm"
)

// DefaultMaxTries is one attempt plus two retries.
const DefaultMaxTries = 3

// Request is a system/human message pair with optional prior turns.
type Request struct {
	SystemPrompt string
	History      []llm.Message
	HumanPrompt  string
	Temperature  *float64
	Model        string
}

// Messages flattens the request into provider order.
func (r Request) Messages() []llm.Message {
	msgs := make([]llm.Message, 0, len(r.History)+2)
	if r.SystemPrompt != "" {
		msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: r.SystemPrompt})
	}
	msgs = append(msgs, r.History...)
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: r.HumanPrompt})
	return msgs
}

type Invoker struct {
	provider llm.LLMProvider
	maxTries uint
	newBack  func() backoff.BackOff
	logger   logger.ILogger
}

type Option func(*Invoker)

func WithMaxTries(n uint) Option {
	return func(i *Invoker) {
		if n > 0 {
			i.maxTries = n
		}
	}
}

// WithBackOff replaces the wait policy between attempts.
func WithBackOff(newBack func() backoff.BackOff) Option {
	return func(i *Invoker) {
		i.newBack = newBack
	}
}

func NewInvoker(provider llm.LLMProvider, log logger.ILogger, opts ...Option) *Invoker {
	i := &Invoker{
		provider: provider,
		maxTries: DefaultMaxTries,
		newBack: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 4 * time.Second
			return b
		},
		logger: log,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Invoke calls the provider, retrying transient failures. Quota, safety and
// auth failures are returned on the first occurrence.
func (i *Invoker) Invoke(ctx context.Context, req Request) (string, error) {
	var opts []llm.Option
	if req.Temperature != nil {
		opts = append(opts, llm.WithTemperature(*req.Temperature))
	}
	if req.Model != "" {
		opts = append(opts, llm.WithModel(req.Model))
	}
	messages := req.Messages()

	attempt := 0
	out, err := backoff.Retry(ctx, func() (string, error) {
		attempt++
		text, err := i.provider.Chat(ctx, messages, opts...)
		if err != nil {
			ge := Classify(err)
			if !ge.Transient() {
				return "", backoff.Permanent(ge)
			}
			return "", ge
		}
		return text, nil
	},
		backoff.WithMaxTries(i.maxTries),
		backoff.WithBackOff(i.newBack()),
		backoff.WithNotify(func(err error, next time.Duration) {
			i.logger.Warn("GENERATION", "Generation attempt failed, retrying", map[string]interface{}{
				"attempt": attempt,
				"next_in": next.String(),
				"error":   err.Error(),
			})
		}),
	)
	if err != nil {
		// Classify sees through a PermanentError wrapper.
		ge := Classify(err)
		i.logger.Error("GENERATION", "Generation failed", map[string]interface{}{
			"kind":     string(ge.Kind),
			"attempts": attempt,
			"error":    ge.Message,
		})
		return "", ge
	}

	i.logger.Debug("GENERATION", "Generation complete", map[string]interface{}{
		"attempts": attempt,
		"chars":    len(out),
	})
	return out, nil
}
