package history

import (
	"context"
	"strings"

	"leaf-research-be/internal/repository/specification"
	"leaf-research-be/internal/repository/unitofwork"
	"leaf-research-be/pkg/llm"

	"github.com/google/uuid"
)

const DefaultLimit = 5

// Loader reads recent thread messages as model conversation turns.
type Loader struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewLoader(uowFactory unitofwork.RepositoryFactory) *Loader {
	return &Loader{uowFactory: uowFactory}
}

// Load returns the last limit messages of the thread, oldest first.
func (l *Loader) Load(ctx context.Context, threadID uuid.UUID, limit int) ([]llm.Message, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	uow := l.uowFactory.NewUnitOfWork(ctx)

	recent, err := uow.MessageRepository().FindAll(ctx,
		specification.ByThreadID{ThreadID: threadID},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Limit{N: limit},
	)
	if err != nil {
		return nil, err
	}

	messages := make([]llm.Message, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		m := recent[i]
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		messages = append(messages, llm.Message{
			Role:    llm.ParseRole(m.Role),
			Content: m.Content,
		})
	}
	return messages, nil
}
