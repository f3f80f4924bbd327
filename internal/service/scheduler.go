package service

import (
	"context"
	"time"

	"github.com/yzeman/yzemanbot-mini-app/pkg/logger"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

const processedRequestTTL = 24 * time.Hour

// StartDailyReset schedules the midnight-UTC maintenance job: per-day ad
// counters go back to zero and idempotency keys past their retention window
// are pruned. The returned scheduler should be shut down on exit.
func (s *RewardService) StartDailyReset(ctx context.Context) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 0, 0))),
		gocron.NewTask(func() {
			log := logger.Logger()

			users, err := s.repo.ResetDailyTaskCounters(ctx)
			if err != nil {
				log.Error("daily task counter reset failed", zap.Error(err))
			} else {
				log.Info("daily task counters reset", zap.Int64("users", users))
			}

			pruned, err := s.repo.PruneProcessedRequests(ctx, processedRequestTTL)
			if err != nil {
				log.Error("processed request pruning failed", zap.Error(err))
			} else {
				log.Info("processed requests pruned", zap.Int64("removed", pruned))
			}
		}),
	)
	if err != nil {
		return nil, err
	}

	sched.Start()
	return sched, nil
}
