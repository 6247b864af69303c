package memory

import (
	"context"
	"testing"
	"time"

	"leaf-research-be/pkg/rag/session"
	"leaf-research-be/pkg/rag/sources"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRepository_SaveGet(t *testing.T) {
	repo := NewSessionRepository(10, time.Minute)
	ctx := context.Background()

	in := &session.Context{ThreadID: "t1", Web: []sources.WebSource{{Index: 1, URL: "https://a"}}}
	require.NoError(t, repo.Save(ctx, in))

	// Mutating the caller's value must not change the stored copy.
	in.ThreadID = "changed"

	got, found, err := repo.Get(ctx, "t1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "t1", got.ThreadID)
	assert.Equal(t, "https://a", got.Web[0].URL)

	require.NoError(t, repo.Delete(ctx, "t1"))
	_, found, _ = repo.Get(ctx, "t1")
	assert.False(t, found)
}

func TestSessionRepository_Capacity(t *testing.T) {
	repo := NewSessionRepository(2, time.Minute)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Save(ctx, &session.Context{ThreadID: id}))
		time.Sleep(2 * time.Millisecond)
	}

	assert.Equal(t, 2, repo.Len())
	_, found, _ := repo.Get(ctx, "a")
	assert.False(t, found, "oldest entry evicted")
	_, found, _ = repo.Get(ctx, "c")
	assert.True(t, found)
}

func TestSessionRepository_OverwriteDoesNotEvict(t *testing.T) {
	repo := NewSessionRepository(2, time.Minute)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &session.Context{ThreadID: "a"}))
	require.NoError(t, repo.Save(ctx, &session.Context{ThreadID: "b"}))
	require.NoError(t, repo.Save(ctx, &session.Context{ThreadID: "a", Web: []sources.WebSource{{URL: "https://new"}}}))

	assert.Equal(t, 2, repo.Len())
	got, found, _ := repo.Get(ctx, "a")
	require.True(t, found)
	assert.Equal(t, "https://new", got.Web[0].URL)
}

func TestSessionRepository_TTL(t *testing.T) {
	repo := NewSessionRepository(10, 20*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &session.Context{ThreadID: "t"}))
	time.Sleep(40 * time.Millisecond)

	_, found, _ := repo.Get(ctx, "t")
	assert.False(t, found)
}
