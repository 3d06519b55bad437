package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/phbpx/leadsync"
	"github.com/phbpx/leadsync/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap/zaptest"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) FindByUserID(ctx context.Context, userID string) (leadsync.Lead, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(leadsync.Lead), args.Error(1)
}

func (m *mockStore) Insert(ctx context.Context, lead leadsync.Lead) error {
	return m.Called(ctx, lead).Error(0)
}

func (m *mockStore) Update(ctx context.Context, lead leadsync.Lead) error {
	return m.Called(ctx, lead).Error(0)
}

func (m *mockStore) Count(ctx context.Context, statuses ...string) (int, error) {
	args := m.Called(ctx, statuses)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) List(ctx context.Context, limit int) ([]leadsync.Lead, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]leadsync.Lead), args.Error(1)
}

func records(t *testing.T, raw string) []json.RawMessage {
	t.Helper()
	var out []json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	return out
}

func newReconciler(t *testing.T, store leadsync.LeadStore, now time.Time) *Reconciler {
	r := New(store, otelzap.New(zaptest.NewLogger(t)).Sugar())
	r.now = func() time.Time { return now }
	return r
}

func TestReconcileNormalizesAndInserts(t *testing.T) {
	ctx := context.Background()
	store := memory.NewLeadStore()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	report := newReconciler(t, store, now).Reconcile(ctx, records(t,
		`[{"user id ":"1","name ":" Alice ","gym name ":"G1","phone number ":"555","status ":"New"}]`))

	want := leadsync.Lead{UserID: "1", Name: "Alice", GymName: "G1", PhoneNumber: "555", Status: "new", CreatedAt: now}
	assert.Equal(t, []leadsync.Lead{want}, report.Leads())
	assert.Equal(t, 1, report.Count(Inserted))

	got, err := store.FindByUserID(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestReconcileSkipsIncomplete(t *testing.T) {
	store := new(mockStore)

	report := newReconciler(t, store, time.Now()).Reconcile(context.Background(), records(t, `[
		{"user id ":"2","name ":"","phone number ":"555","status ":"new"},
		{"user id ":"3","name ":"Bob","phone number ":"   ","status ":"new"},
		{"user id ":"4","name ":"Carol"}
	]`))

	assert.Empty(t, report.Leads())
	assert.Equal(t, 3, report.Count(Skipped))
	for _, o := range report.Outcomes {
		assert.ErrorIs(t, o.Err, ErrIncompleteRecord)
	}
	store.AssertNotCalled(t, "FindByUserID", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestReconcileIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewLeadStore()
	first := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	r := newReconciler(t, store, first)

	r.Reconcile(ctx, records(t, `[{"user id ":"1","name ":"Alice","gym name ":"G1","phone number ":"555","status ":"New"}]`))

	r.now = func() time.Time { return first.Add(time.Hour) }
	report := r.Reconcile(ctx, records(t, `[{"user id ":"1","name ":"Alice","gym name ":"G2","phone number ":"555","status ":"Converted"}]`))

	require.Len(t, report.Leads(), 1)
	assert.Equal(t, 1, report.Count(Updated))
	assert.Equal(t, first, report.Leads()[0].CreatedAt)

	total, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	got, err := store.FindByUserID(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "converted", got.Status)
	assert.Equal(t, "G2", got.GymName)
	assert.Equal(t, first, got.CreatedAt)
}

func TestReconcileIsolatesBadRecords(t *testing.T) {
	ctx := context.Background()
	store := memory.NewLeadStore()

	report := newReconciler(t, store, time.Now()).Reconcile(ctx, records(t, `[
		{"user id ":"1","name ":"Alice","phone number ":"1"},
		"not an object",
		{"user id ":"2","name ":42,"phone number ":"2"},
		{"user id ":"3","name ":"Carol","phone number ":"3"},
		null,
		{"user id ":"4","name ":"Dan","phone number ":"4"},
		{"user id ":null,"name ":"Eve","gym name ":null,"phone number ":"5","status ":null}
	]`))

	leads := report.Leads()
	require.Len(t, leads, 3)
	assert.Equal(t, "1", leads[0].UserID)
	assert.Equal(t, "3", leads[1].UserID)
	assert.Equal(t, "4", leads[2].UserID)
	assert.Equal(t, 4, report.Count(Failed))

	for _, i := range []int{1, 2, 4, 6} {
		o := report.Outcomes[i]
		assert.Equal(t, i, o.Index)
		assert.Equal(t, Failed, o.Kind)
		assert.ErrorIs(t, o.Err, ErrMalformedRecord)
	}

	total, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestReconcileStoreErrorIsPerRecord(t *testing.T) {
	ctx := context.Background()
	store := new(mockStore)
	boom := errors.New("connection reset")

	store.On("FindByUserID", mock.Anything, "1").Return(leadsync.Lead{}, boom)
	store.On("FindByUserID", mock.Anything, "2").Return(leadsync.Lead{}, leadsync.ErrLeadNotFound)
	store.On("Insert", mock.Anything, mock.MatchedBy(func(l leadsync.Lead) bool { return l.UserID == "2" })).Return(nil)
	store.On("FindByUserID", mock.Anything, "3").Return(leadsync.Lead{UserID: "3"}, nil)
	store.On("Update", mock.Anything, mock.Anything).Return(boom)

	report := newReconciler(t, store, time.Now()).Reconcile(ctx, records(t, `[
		{"user id ":"1","name ":"A","phone number ":"1"},
		{"user id ":"2","name ":"B","phone number ":"2"},
		{"user id ":"3","name ":"C","phone number ":"3"}
	]`))

	require.Len(t, report.Outcomes, 3)
	assert.Equal(t, Failed, report.Outcomes[0].Kind)
	assert.ErrorIs(t, report.Outcomes[0].Err, boom)
	assert.Equal(t, Inserted, report.Outcomes[1].Kind)
	assert.Equal(t, Failed, report.Outcomes[2].Kind)
	assert.ErrorIs(t, report.Outcomes[2].Err, boom)
	assert.Len(t, report.Leads(), 1)
	store.AssertExpectations(t)
}

func TestReconcileDuplicateInsertFails(t *testing.T) {
	store := new(mockStore)
	store.On("FindByUserID", mock.Anything, "1").Return(leadsync.Lead{}, leadsync.ErrLeadNotFound)
	store.On("Insert", mock.Anything, mock.Anything).Return(leadsync.ErrDuplicatedLead)

	report := newReconciler(t, store, time.Now()).Reconcile(context.Background(), records(t,
		`[{"user id ":"1","name ":"A","phone number ":"1"}]`))

	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, Failed, report.Outcomes[0].Kind)
	assert.ErrorIs(t, report.Outcomes[0].Err, leadsync.ErrDuplicatedLead)
}

func TestReconcileTruncatesCreatedAt(t *testing.T) {
	ctx := context.Background()
	store := memory.NewLeadStore()
	now := time.Date(2024, 5, 1, 10, 0, 0, 123456789, time.UTC)

	report := newReconciler(t, store, now).Reconcile(ctx, records(t, `[{"user id ":"1","name ":"A","phone number ":"1"}]`))

	require.Len(t, report.Leads(), 1)
	assert.Equal(t, 123000000, report.Leads()[0].CreatedAt.Nanosecond())
}
