package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"leaf-research-be/internal/entity"
	"leaf-research-be/internal/repository/contract"
	"leaf-research-be/internal/repository/specification"
	"leaf-research-be/internal/repository/unitofwork"
	"leaf-research-be/pkg/llm"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMessages struct {
	contract.MessageRepository
	rows  []*entity.Message
	specs []specification.Specification
	err   error
}

// FindAll returns rows newest first, as the ordering spec asks.
func (f *fakeMessages) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.Message, error) {
	f.specs = specs
	if f.err != nil {
		return nil, f.err
	}
	limit := len(f.rows)
	for _, s := range specs {
		if l, ok := s.(specification.Limit); ok && l.N < limit {
			limit = l.N
		}
	}
	out := make([]*entity.Message, 0, limit)
	for i := len(f.rows) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.rows[i])
	}
	return out, nil
}

type fakeUoW struct {
	unitofwork.UnitOfWork
	messages *fakeMessages
}

func (u *fakeUoW) MessageRepository() contract.MessageRepository {
	return u.messages
}

type fakeFactory struct {
	uow *fakeUoW
}

func (f *fakeFactory) NewUnitOfWork(context.Context) unitofwork.UnitOfWork {
	return f.uow
}

func newLoader(msgs *fakeMessages) *Loader {
	return NewLoader(&fakeFactory{uow: &fakeUoW{messages: msgs}})
}

func TestLoader_LastMessagesChronological(t *testing.T) {
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	var rows []*entity.Message
	for i, content := range []string{"m1", "m2", "m3", "m4", "m5", "m6", "m7"} {
		role := "user"
		if i%2 == 1 {
			role = "model"
		}
		rows = append(rows, &entity.Message{Role: role, Content: content, CreatedAt: base.Add(time.Duration(i) * time.Minute)})
	}
	msgs := &fakeMessages{rows: rows}

	got, err := newLoader(msgs).Load(context.Background(), uuid.New(), 0)

	require.NoError(t, err)
	require.Len(t, got, DefaultLimit)
	assert.Equal(t, "m3", got[0].Content)
	assert.Equal(t, "m7", got[4].Content)
	assert.Equal(t, llm.RoleUser, got[0].Role)
	assert.Equal(t, llm.RoleAssistant, got[1].Role)
	assert.Contains(t, msgs.specs, specification.Limit{N: DefaultLimit})
}

func TestLoader_SkipsBlankMessages(t *testing.T) {
	msgs := &fakeMessages{rows: []*entity.Message{
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: "   "},
	}}

	got, err := newLoader(msgs).Load(context.Background(), uuid.New(), 5)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "hello", got[0].Content)
}

func TestLoader_Error(t *testing.T) {
	msgs := &fakeMessages{err: errors.New("db down")}

	_, err := newLoader(msgs).Load(context.Background(), uuid.New(), 5)

	assert.Error(t, err)
}
