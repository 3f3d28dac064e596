package history

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedMessages(t *testing.T, store Store) {
	t.Helper()
	for i, m := range []Message{
		{Role: "user", Content: "first question"},
		{Role: "agent", Content: "first answer"},
		{Role: "agent", Content: "delegated request", Visibility: VisibilityInternal, SubAgentID: "research"},
		{Role: "user", Content: "second question"},
	} {
		m.ID = fmt.Sprintf("m-%d", i)
		m.TenantID = "tenant-1"
		m.ProjectID = "project-1"
		m.ConversationID = "conv-1"
		if m.Visibility == "" {
			m.Visibility = VisibilityUser
		}
		require.NoError(t, store.Append(context.Background(), m))
	}
}

func runStoreTests(t *testing.T, store Store) {
	seedMessages(t, store)

	msgs, err := store.Messages(context.Background(), Query{
		TenantID: "tenant-1", ProjectID: "project-1", ConversationID: "conv-1",
	})
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, "first question", msgs[0].Content)
	assert.Equal(t, "second question", msgs[3].Content)

	scoped, err := store.Messages(context.Background(), Query{
		TenantID: "tenant-1", ProjectID: "project-1", ConversationID: "conv-1",
		SubAgentID: "research",
	})
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "delegated request", scoped[0].Content)

	limited, err := store.Messages(context.Background(), Query{
		TenantID: "tenant-1", ProjectID: "project-1", ConversationID: "conv-1",
		Limit: 2,
	})
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "delegated request", limited[0].Content)
	assert.Equal(t, "second question", limited[1].Content)

	other, err := store.Messages(context.Background(), Query{
		TenantID: "tenant-1", ProjectID: "project-1", ConversationID: "conv-2",
	})
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	runStoreTests(t, store)
}

func TestSQLiteStore(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()
	runStoreTests(t, store)
}
