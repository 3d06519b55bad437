package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/phbpx/leadsync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func leadDoc(userID, status string, created time.Time) bson.D {
	return bson.D{
		{Key: "user_id", Value: userID},
		{Key: "name", Value: "Lead " + userID},
		{Key: "gym_name", Value: "Gym"},
		{Key: "phone_number", Value: "555"},
		{Key: "status", Value: status},
		{Key: "created_at", Value: created},
	}
}

func TestLeadStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	created := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)

	mt.Run("find missing", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + leadsCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := NewLeadStore(mt.DB).FindByUserID(ctx, "1")
		assert.ErrorIs(mt, err, leadsync.ErrLeadNotFound)
	})

	mt.Run("find existing", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + leadsCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, leadDoc("1", "new", created)))

		lead, err := NewLeadStore(mt.DB).FindByUserID(ctx, "1")
		require.NoError(mt, err)
		assert.Equal(mt, "1", lead.UserID)
		assert.Equal(mt, "Lead 1", lead.Name)
		assert.Equal(mt, "new", lead.Status)
		assert.True(mt, created.Equal(lead.CreatedAt))
	})

	mt.Run("insert", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		err := NewLeadStore(mt.DB).Insert(ctx, leadsync.Lead{UserID: "1", Name: "A", PhoneNumber: "1", CreatedAt: created})
		assert.NoError(mt, err)
	})

	mt.Run("insert duplicate", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		err := NewLeadStore(mt.DB).Insert(ctx, leadsync.Lead{UserID: "1"})
		assert.ErrorIs(mt, err, leadsync.ErrDuplicatedLead)
	})

	mt.Run("update", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		err := NewLeadStore(mt.DB).Update(ctx, leadsync.Lead{UserID: "1", Status: "converted"})
		require.NoError(mt, err)

		cmd := mt.GetStartedEvent().Command.String()
		assert.Contains(mt, cmd, "$set")
		assert.NotContains(mt, cmd, "created_at")
	})

	mt.Run("update missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		err := NewLeadStore(mt.DB).Update(ctx, leadsync.Lead{UserID: "1"})
		assert.ErrorIs(mt, err, leadsync.ErrLeadNotFound)
	})

	mt.Run("count statuses", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + leadsCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: int64(2)}}))

		n, err := NewLeadStore(mt.DB).Count(ctx, "qualified", "contacted")
		require.NoError(mt, err)
		assert.Equal(mt, 2, n)

		cmd := mt.GetStartedEvent().Command.String()
		assert.Contains(mt, cmd, "$in")
		assert.Contains(mt, cmd, "contacted")
	})

	mt.Run("count failure", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Message: "bad query",
			Name:    "BadValue",
		}))

		_, err := NewLeadStore(mt.DB).Count(ctx)
		assert.ErrorIs(mt, err, leadsync.ErrStore)
	})

	mt.Run("list", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + leadsCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			leadDoc("2", "new", created.Add(time.Hour)),
			leadDoc("1", "lost", created),
		))

		leads, err := NewLeadStore(mt.DB).List(ctx, leadsync.ListLimit)
		require.NoError(mt, err)
		require.Len(mt, leads, 2)
		assert.Equal(mt, "2", leads[0].UserID)
		assert.Equal(mt, "lost", leads[1].Status)
	})

	mt.Run("list limit", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + leadsCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			leadDoc("3", "new", created.Add(2*time.Hour)),
		))

		leads, err := NewLeadStore(mt.DB).List(ctx, 1)
		require.NoError(mt, err)
		require.Len(mt, leads, 1)

		cmd := mt.GetStartedEvent().Command
		limit, ok := cmd.Lookup("limit").AsInt64OK()
		require.True(mt, ok)
		assert.Equal(mt, int64(1), limit)
		assert.Contains(mt, cmd.Lookup("sort").String(), "created_at")
	})
}

func TestStatusCheckStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	ts := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)

	mt.Run("create and list", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + statusChecksCollection
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
				{Key: "id", Value: "abc"},
				{Key: "client_name", Value: "uptime-monitor"},
				{Key: "timestamp", Value: ts},
			}),
		)

		store := NewStatusCheckStore(mt.DB)
		require.NoError(mt, store.Create(ctx, leadsync.StatusCheck{ID: "abc", ClientName: "uptime-monitor", Timestamp: ts}))

		checks, err := store.List(ctx, leadsync.ListLimit)
		require.NoError(mt, err)
		require.Len(mt, checks, 1)
		assert.Equal(mt, "uptime-monitor", checks[0].ClientName)
		assert.True(mt, ts.Equal(checks[0].Timestamp))
	})
}
