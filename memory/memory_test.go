package memory

import (
	"context"
	"testing"
	"time"

	"github.com/phbpx/leadsync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeadStoreUpdateKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	s := NewLeadStore()
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, s.Insert(ctx, leadsync.Lead{UserID: "1", Name: "Alice", Status: "new", CreatedAt: created}))
	assert.ErrorIs(t, s.Insert(ctx, leadsync.Lead{UserID: "1"}), leadsync.ErrDuplicatedLead)

	require.NoError(t, s.Update(ctx, leadsync.Lead{UserID: "1", Name: "Alicia", Status: "lost", CreatedAt: time.Now()}))

	got, err := s.FindByUserID(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Alicia", got.Name)
	assert.Equal(t, "lost", got.Status)
	assert.Equal(t, created, got.CreatedAt)

	assert.ErrorIs(t, s.Update(ctx, leadsync.Lead{UserID: "2"}), leadsync.ErrLeadNotFound)
	_, err = s.FindByUserID(ctx, "2")
	assert.ErrorIs(t, err, leadsync.ErrLeadNotFound)
}

func TestLeadStoreCount(t *testing.T) {
	ctx := context.Background()
	s := NewLeadStore()
	for id, status := range map[string]string{"1": "new", "2": "contacted", "3": "qualified", "4": "odd"} {
		require.NoError(t, s.Insert(ctx, leadsync.Lead{UserID: id, Status: status}))
	}

	total, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, total)

	qualified, err := s.Count(ctx, "qualified", "contacted")
	require.NoError(t, err)
	assert.Equal(t, 2, qualified)

	lost, err := s.Count(ctx, "lost")
	require.NoError(t, err)
	assert.Zero(t, lost)
}

func TestLeadStoreListNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewLeadStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.Insert(ctx, leadsync.Lead{UserID: id, CreatedAt: base.Add(time.Duration(i) * time.Hour)}))
	}

	leads, err := s.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, "c", leads[0].UserID)
	assert.Equal(t, "b", leads[1].UserID)
}

func TestStatusCheckStore(t *testing.T) {
	ctx := context.Background()
	s := NewStatusCheckStore()
	require.NoError(t, s.Create(ctx, leadsync.StatusCheck{ID: "1", ClientName: "a"}))
	require.NoError(t, s.Create(ctx, leadsync.StatusCheck{ID: "2", ClientName: "b"}))

	all, err := s.List(ctx, leadsync.ListLimit)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	one, err := s.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "a", one[0].ClientName)
}
