package session

import (
	"context"
	"time"

	"leaf-research-be/internal/pkg/logger"
	"leaf-research-be/pkg/rag/sources"
)

// Context is the last evidence a thread was answered with. The repair step
// falls back to it when the model drops its source blocks.
type Context struct {
	ThreadID  string                 `json:"thread_id"`
	Web       []sources.WebSource    `json:"web"`
	Vectors   []sources.VectorSource `json:"vectors"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// Store persists one Context per thread. Get reports found=false for
// unknown or expired threads.
type Store interface {
	Get(ctx context.Context, threadID string) (*Context, bool, error)
	Save(ctx context.Context, c *Context) error
	Delete(ctx context.Context, threadID string) error
}

// Manager handles session context reads and writes. Store failures are
// logged and never returned: the cache only improves repair quality.
type Manager struct {
	store  Store
	logger logger.ILogger
	now    func() time.Time
}

func NewManager(store Store, log logger.ILogger) *Manager {
	return &Manager{store: store, logger: log, now: time.Now}
}

// Remember overwrites the thread's cached sources. Concurrent requests on the
// same thread are last-write-wins.
func (m *Manager) Remember(ctx context.Context, threadID string, set sources.Set) {
	if m == nil || m.store == nil || threadID == "" {
		return
	}
	c := &Context{
		ThreadID:  threadID,
		Web:       set.Web,
		Vectors:   set.Vectors,
		UpdatedAt: m.now(),
	}
	if err := m.store.Save(ctx, c); err != nil {
		m.logger.Warn("SESSION", "Failed to save session context", map[string]interface{}{
			"thread_id": threadID,
			"error":     err.Error(),
		})
	}
}

// Recall returns the cached context, or an empty one for unknown threads.
func (m *Manager) Recall(ctx context.Context, threadID string) Context {
	empty := Context{ThreadID: threadID}
	if m == nil || m.store == nil || threadID == "" {
		return empty
	}
	c, found, err := m.store.Get(ctx, threadID)
	if err != nil {
		m.logger.Warn("SESSION", "Failed to load session context", map[string]interface{}{
			"thread_id": threadID,
			"error":     err.Error(),
		})
		return empty
	}
	if !found || c == nil {
		return empty
	}
	return *c
}

// Forget drops the cached context, used when a thread is deleted.
func (m *Manager) Forget(ctx context.Context, threadID string) {
	if m == nil || m.store == nil {
		return
	}
	if err := m.store.Delete(ctx, threadID); err != nil {
		m.logger.Warn("SESSION", "Failed to delete session context", map[string]interface{}{
			"thread_id": threadID,
			"error":     err.Error(),
		})
	}
}
