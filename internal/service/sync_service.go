package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"streaksvc/contracts/mq"
	"streaksvc/internal/model"
	"streaksvc/internal/streak"
	"streaksvc/pkg/metrics"
)

// Collaborators of the sync orchestration. The pgx repositories and the
// Redis leaderboard satisfy these in production; tests substitute mocks.
type CompletionSource interface {
	ListByUserSince(ctx context.Context, userID int, since string) ([]model.Completion, error)
}

type HabitSource interface {
	ListByUser(ctx context.Context, userID int) ([]model.Habit, error)
	ListDaysByUser(ctx context.Context, userID int) ([]model.HabitDay, error)
}

type StreakStore interface {
	Get(ctx context.Context, userID int) (*model.StreakAggregate, error)
	Upsert(ctx context.Context, agg *model.StreakAggregate) error
}

type Ranker interface {
	SetScore(ctx context.Context, userID int, currentStreak int) error
}

type EventPublisher interface {
	Publish(routingKey string, payload any) error
}

const (
	// SyncAll works through users in fixed batches with a pause in
	// between, as backpressure against the shared stores.
	syncBatchSize  = 10
	syncBatchPause = 1 * time.Second
)

type SyncService struct {
	completions CompletionSource
	habits      HabitSource
	streaks     StreakStore
	ranker      Ranker
	events      EventPublisher
	logger      *zap.Logger
}

func NewSyncService(
	completions CompletionSource,
	habits HabitSource,
	streaks StreakStore,
	ranker Ranker,
	events EventPublisher,
	logger *zap.Logger,
) *SyncService {
	return &SyncService{
		completions: completions,
		habits:      habits,
		streaks:     streaks,
		ranker:      ranker,
		events:      events,
		logger:      logger,
	}
}

// Compute fetches the user's inputs and derives the streak aggregate
// without persisting anything.
func (s *SyncService) Compute(ctx context.Context, userID int, today time.Time) (*model.StreakAggregate, error) {
	completions, err := s.completions.ListByUserSince(ctx, userID, streak.WindowStart(today))
	if err != nil {
		return nil, err
	}

	habits, err := s.habits.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	days, err := s.habits.ListDaysByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	agg := streak.ComputeStreaks(completions, habits, days, today)
	agg.UserID = userID
	return &agg, nil
}

// Sync recomputes and publishes the user's streak aggregate unless it was
// already published today. The returned bool reports whether a publish
// happened. Fetch and upsert failures propagate to the caller; the
// leaderboard and event projections are best-effort.
func (s *SyncService) Sync(ctx context.Context, userID int, today time.Time) (*model.StreakAggregate, bool, error) {
	last, err := s.streaks.Get(ctx, userID)
	if err != nil {
		metrics.IncrementStreakSync("failed")
		return nil, false, err
	}

	if !streak.ShouldSync(last, today) {
		s.logger.Debug("Streak already synced today, skipping",
			zap.Int("user_id", userID),
			zap.String("date", last.LastComputedDate),
		)
		metrics.IncrementStreakSync("skipped")
		return last, false, nil
	}

	agg, err := s.Compute(ctx, userID, today)
	if err != nil {
		metrics.IncrementStreakSync("failed")
		return nil, false, err
	}

	if err := s.streaks.Upsert(ctx, agg); err != nil {
		metrics.IncrementStreakSync("failed")
		return nil, false, err
	}

	// Projections past this point never fail the sync; the aggregate is
	// already persisted and the next daily run refreshes them anyway.
	if s.ranker != nil {
		if err := s.ranker.SetScore(ctx, userID, agg.CurrentStreak); err != nil {
			s.logger.Warn("Leaderboard update failed",
				zap.Int("user_id", userID),
				zap.Error(err),
			)
		}
	}

	if s.events != nil {
		payload := mq.StreakUpdatedPayload{
			UserID:        agg.UserID,
			CurrentStreak: agg.CurrentStreak,
			LongestStreak: agg.LongestStreak,
			ComputedDate:  agg.LastComputedDate,
		}
		if err := s.events.Publish("streak.updated", payload); err != nil {
			s.logger.Warn("Failed to publish streak.updated event",
				zap.Int("user_id", userID),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("Streak synced",
		zap.Int("user_id", userID),
		zap.Int("current_streak", agg.CurrentStreak),
		zap.Int("longest_streak", agg.LongestStreak),
	)
	metrics.IncrementStreakSync("synced")
	return agg, true, nil
}

// SyncBackground is the fire-and-forget entry point for opportunistic
// triggers. Failures are logged and swallowed; the next natural trigger is
// the retry.
func (s *SyncService) SyncBackground(ctx context.Context, userID int, today time.Time) {
	if _, _, err := s.Sync(ctx, userID, today); err != nil {
		s.logger.Warn("Background streak sync failed",
			zap.Int("user_id", userID),
			zap.Error(err),
		)
	}
}

// SyncAll syncs the given users in batches of ten, users within a batch in
// parallel, with a one second pause between batches. A failure for one user
// never aborts the others.
func (s *SyncService) SyncAll(ctx context.Context, userIDs []int, today time.Time) (synced, skipped, failed int) {
	start := time.Now()

	var mu sync.Mutex
	for offset := 0; offset < len(userIDs); offset += syncBatchSize {
		end := offset + syncBatchSize
		if end > len(userIDs) {
			end = len(userIDs)
		}
		batch := userIDs[offset:end]

		var wg sync.WaitGroup
		for _, userID := range batch {
			wg.Add(1)
			go func(userID int) {
				defer wg.Done()
				_, published, err := s.Sync(ctx, userID, today)

				mu.Lock()
				defer mu.Unlock()
				switch {
				case err != nil:
					failed++
				case published:
					synced++
				default:
					skipped++
				}
			}(userID)
		}
		wg.Wait()

		if end < len(userIDs) {
			time.Sleep(syncBatchPause)
		}
	}

	metrics.RecordSyncBatchDuration(time.Since(start))
	s.logger.Info("Batched streak sync completed",
		zap.Int("total", len(userIDs)),
		zap.Int("synced", synced),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
		zap.Duration("took", time.Since(start)),
	)
	return synced, skipped, failed
}
