package service_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"streaksvc/internal/model"
	"streaksvc/internal/service"
	"streaksvc/internal/streak"
)

var today = time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)

type mockCompletions struct {
	listFn func(ctx context.Context, userID int, since string) ([]model.Completion, error)
}

func (m *mockCompletions) ListByUserSince(ctx context.Context, userID int, since string) ([]model.Completion, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, since)
	}
	return nil, nil
}

type mockHabits struct {
	listFn func(ctx context.Context, userID int) ([]model.Habit, error)
	daysFn func(ctx context.Context, userID int) ([]model.HabitDay, error)
}

func (m *mockHabits) ListByUser(ctx context.Context, userID int) ([]model.Habit, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockHabits) ListDaysByUser(ctx context.Context, userID int) ([]model.HabitDay, error) {
	if m.daysFn != nil {
		return m.daysFn(ctx, userID)
	}
	return nil, nil
}

type mockStore struct {
	getFn    func(ctx context.Context, userID int) (*model.StreakAggregate, error)
	upsertFn func(ctx context.Context, agg *model.StreakAggregate) error
	upserts  atomic.Int64
}

func (m *mockStore) Get(ctx context.Context, userID int) (*model.StreakAggregate, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockStore) Upsert(ctx context.Context, agg *model.StreakAggregate) error {
	m.upserts.Add(1)
	if m.upsertFn != nil {
		return m.upsertFn(ctx, agg)
	}
	return nil
}

type mockRanker struct {
	setFn func(ctx context.Context, userID int, currentStreak int) error
	calls atomic.Int64
}

func (m *mockRanker) SetScore(ctx context.Context, userID int, currentStreak int) error {
	m.calls.Add(1)
	if m.setFn != nil {
		return m.setFn(ctx, userID, currentStreak)
	}
	return nil
}

type mockEvents struct {
	publishFn func(routingKey string, payload any) error
	calls     atomic.Int64
}

func (m *mockEvents) Publish(routingKey string, payload any) error {
	m.calls.Add(1)
	if m.publishFn != nil {
		return m.publishFn(routingKey, payload)
	}
	return nil
}

// oneHabitFixture returns sources describing one daily habit bound to all
// weekdays with completions on the given days before today.
func oneHabitFixture(daysAgo ...int) (*mockCompletions, *mockHabits) {
	comps := &mockCompletions{
		listFn: func(_ context.Context, userID int, _ string) ([]model.Completion, error) {
			out := make([]model.Completion, 0, len(daysAgo))
			for _, n := range daysAgo {
				out = append(out, model.Completion{
					UserID:  userID,
					HabitID: 1,
					Date:    today.AddDate(0, 0, -n).Format(streak.DateLayout),
				})
			}
			return out, nil
		},
	}
	habits := &mockHabits{
		listFn: func(_ context.Context, userID int) ([]model.Habit, error) {
			return []model.Habit{{ID: 1, UserID: userID, IsActive: true}}, nil
		},
		daysFn: func(_ context.Context, _ int) ([]model.HabitDay, error) {
			var days []model.HabitDay
			for wd := 0; wd < 7; wd++ {
				days = append(days, model.HabitDay{HabitID: 1, Weekday: wd})
			}
			return days, nil
		},
	}
	return comps, habits
}

func TestSync_PublishesWhenNothingPersisted(t *testing.T) {
	comps, habits := oneHabitFixture(0, 1, 2)
	store := &mockStore{}
	ranker := &mockRanker{}
	events := &mockEvents{}
	svc := service.NewSyncService(comps, habits, store, ranker, events, zap.NewNop())

	agg, published, err := svc.Sync(context.Background(), 7, today)

	require.NoError(t, err)
	assert.True(t, published)
	assert.Equal(t, 7, agg.UserID)
	assert.Equal(t, 3, agg.CurrentStreak)
	assert.Equal(t, int64(1), store.upserts.Load())
	assert.Equal(t, int64(1), ranker.calls.Load())
	assert.Equal(t, int64(1), events.calls.Load())
}

func TestSync_SkipsWhenAlreadySyncedToday(t *testing.T) {
	comps, habits := oneHabitFixture(0, 1, 2)
	persisted := &model.StreakAggregate{
		UserID:           7,
		CurrentStreak:    1,
		LongestStreak:    1,
		LastComputedDate: today.Format(streak.DateLayout),
	}
	store := &mockStore{
		getFn: func(_ context.Context, _ int) (*model.StreakAggregate, error) {
			return persisted, nil
		},
	}
	svc := service.NewSyncService(comps, habits, store, &mockRanker{}, &mockEvents{}, zap.NewNop())

	// The completion data would yield a different streak, but the gate is
	// date-based: the stale value is returned and nothing is written.
	agg, published, err := svc.Sync(context.Background(), 7, today)

	require.NoError(t, err)
	assert.False(t, published)
	assert.Equal(t, persisted, agg)
	assert.Equal(t, int64(0), store.upserts.Load())
}

func TestSync_ResyncsOnNewDay(t *testing.T) {
	comps, habits := oneHabitFixture(0, 1)
	store := &mockStore{
		getFn: func(_ context.Context, _ int) (*model.StreakAggregate, error) {
			return &model.StreakAggregate{
				UserID:           7,
				LastComputedDate: today.AddDate(0, 0, -1).Format(streak.DateLayout),
			}, nil
		},
	}
	svc := service.NewSyncService(comps, habits, store, &mockRanker{}, &mockEvents{}, zap.NewNop())

	_, published, err := svc.Sync(context.Background(), 7, today)

	require.NoError(t, err)
	assert.True(t, published)
	assert.Equal(t, int64(1), store.upserts.Load())
}

func TestSync_FetchFailurePropagates(t *testing.T) {
	comps := &mockCompletions{
		listFn: func(_ context.Context, _ int, _ string) ([]model.Completion, error) {
			return nil, errors.New("backend unavailable")
		},
	}
	store := &mockStore{}
	svc := service.NewSyncService(comps, &mockHabits{}, store, &mockRanker{}, &mockEvents{}, zap.NewNop())

	_, published, err := svc.Sync(context.Background(), 7, today)

	assert.Error(t, err)
	assert.False(t, published)
	assert.Equal(t, int64(0), store.upserts.Load())
}

func TestSync_UpsertFailurePropagates(t *testing.T) {
	comps, habits := oneHabitFixture(0)
	store := &mockStore{
		upsertFn: func(_ context.Context, _ *model.StreakAggregate) error {
			return errors.New("write failed")
		},
	}
	svc := service.NewSyncService(comps, habits, store, &mockRanker{}, &mockEvents{}, zap.NewNop())

	_, _, err := svc.Sync(context.Background(), 7, today)

	assert.Error(t, err)
}

func TestSync_ProjectionFailuresAreBestEffort(t *testing.T) {
	comps, habits := oneHabitFixture(0)
	store := &mockStore{}
	ranker := &mockRanker{
		setFn: func(_ context.Context, _ int, _ int) error {
			return errors.New("redis down")
		},
	}
	events := &mockEvents{
		publishFn: func(_ string, _ any) error {
			return errors.New("mq down")
		},
	}
	svc := service.NewSyncService(comps, habits, store, ranker, events, zap.NewNop())

	_, published, err := svc.Sync(context.Background(), 7, today)

	require.NoError(t, err)
	assert.True(t, published)
}

func TestSyncBackground_SwallowsErrors(t *testing.T) {
	store := &mockStore{
		getFn: func(_ context.Context, _ int) (*model.StreakAggregate, error) {
			return nil, errors.New("backend unavailable")
		},
	}
	svc := service.NewSyncService(&mockCompletions{}, &mockHabits{}, store, &mockRanker{}, &mockEvents{}, zap.NewNop())

	// Must not panic or surface anything.
	svc.SyncBackground(context.Background(), 7, today)
}

func TestSyncAll_FailuresDoNotAbortOthers(t *testing.T) {
	comps, habits := oneHabitFixture(0)
	store := &mockStore{
		upsertFn: func(_ context.Context, agg *model.StreakAggregate) error {
			if agg.UserID == 3 {
				return errors.New("write failed")
			}
			return nil
		},
	}
	svc := service.NewSyncService(comps, habits, store, &mockRanker{}, &mockEvents{}, zap.NewNop())

	userIDs := make([]int, 0, 15)
	for i := 1; i <= 15; i++ {
		userIDs = append(userIDs, i)
	}

	synced, skipped, failed := svc.SyncAll(context.Background(), userIDs, today)

	assert.Equal(t, 14, synced)
	assert.Equal(t, 0, skipped)
	assert.Equal(t, 1, failed)
	assert.Equal(t, int64(15), store.upserts.Load())
}

func TestSyncAll_SkipsFreshUsers(t *testing.T) {
	comps, habits := oneHabitFixture(0)
	store := &mockStore{
		getFn: func(_ context.Context, userID int) (*model.StreakAggregate, error) {
			if userID%2 == 0 {
				return &model.StreakAggregate{
					UserID:           userID,
					LastComputedDate: today.Format(streak.DateLayout),
				}, nil
			}
			return nil, nil
		},
	}
	svc := service.NewSyncService(comps, habits, store, &mockRanker{}, &mockEvents{}, zap.NewNop())

	synced, skipped, failed := svc.SyncAll(context.Background(), []int{1, 2, 3, 4, 5, 6}, today)

	assert.Equal(t, 3, synced)
	assert.Equal(t, 3, skipped)
	assert.Equal(t, 0, failed)
}
