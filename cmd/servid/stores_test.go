package main

import (
	"context"
	"testing"
	"time"

	"github.com/phbpx/leadsync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestOpenStoresMemory(t *testing.T) {
	ctx := context.Background()

	st, err := openStores(ctx, storeConfig{Kind: "memory"}, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	defer st.close()

	require.NoError(t, st.check(ctx))
	require.NoError(t, st.leads.Insert(ctx, leadsync.Lead{UserID: "1"}))

	n, err := st.leads.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestOpenStoresUnknownKind(t *testing.T) {
	_, err := openStores(context.Background(), storeConfig{Kind: "sqlite"}, zaptest.NewLogger(t).Sugar())
	assert.ErrorContains(t, err, "sqlite")
}

func TestStartupContext(t *testing.T) {
	ctx, cancel := startupContext(context.Background(), 0)
	defer cancel()
	_, ok := ctx.Deadline()
	assert.False(t, ok)
	assert.NoError(t, ctx.Err())

	ctx, cancel = startupContext(context.Background(), -time.Second)
	defer cancel()
	assert.NoError(t, ctx.Err())

	ctx, cancel = startupContext(context.Background(), time.Minute)
	defer cancel()
	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
}
