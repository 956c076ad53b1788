package app

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"drivepool/internal/config"
	"drivepool/internal/domain"
	internalRedis "drivepool/internal/redis"
	"drivepool/internal/service"
)

// Scheduler runs the periodic settlement and ranking jobs. Every job takes a
// Redis lock first so only one instance of a horizontally scaled deployment
// executes it.
type Scheduler struct {
	cron        *cron.Cron
	locks       internalRedis.LockStoreInterface
	settlement  *service.SettlementService
	leaderboard *service.LeaderboardService
}

// NewScheduler wires the background jobs onto their cron schedules.
func NewScheduler(
	cfg config.JobsConfig,
	locks internalRedis.LockStoreInterface,
	settlement *service.SettlementService,
	leaderboard *service.LeaderboardService,
) (*Scheduler, error) {
	s := &Scheduler{
		cron:        cron.New(),
		locks:       locks,
		settlement:  settlement,
		leaderboard: leaderboard,
	}

	if _, err := s.cron.AddFunc(cfg.RecalculateSpec, s.runRecalculate); err != nil {
		return nil, err
	}
	if _, err := s.cron.AddFunc(cfg.FinalizeSpec, s.runFinalize); err != nil {
		return nil, err
	}
	if _, err := s.cron.AddFunc(cfg.LeaderboardSpec, s.runLeaderboards); err != nil {
		return nil, err
	}

	return s, nil
}

// Start begins job execution.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runRecalculate() {
	s.withLock("pool-recalculate", 10*time.Minute, func(ctx context.Context) {
		if err := s.settlement.Recalculate(ctx); err != nil {
			log.Printf("job pool-recalculate failed: %v", err)
		}
	})
}

func (s *Scheduler) runFinalize() {
	s.withLock("pool-finalize", 30*time.Minute, func(ctx context.Context) {
		if err := s.settlement.FinalizePeriod(ctx); err != nil {
			log.Printf("job pool-finalize failed: %v", err)
		}
	})
}

func (s *Scheduler) runLeaderboards() {
	s.withLock("leaderboard-rebuild", 5*time.Minute, func(ctx context.Context) {
		for _, period := range []domain.LeaderboardPeriod{
			domain.LeaderboardPeriodWeekly,
			domain.LeaderboardPeriodMonthly,
			domain.LeaderboardPeriodAllTime,
		} {
			if _, err := s.leaderboard.Rebuild(ctx, period); err != nil {
				log.Printf("job leaderboard-rebuild (%s) failed: %v", period, err)
			}
		}
	})
}

// withLock runs fn only when this instance wins the job lock. The lock is
// released on completion; the TTL covers crashed holders.
func (s *Scheduler) withLock(job string, ttl time.Duration, fn func(ctx context.Context)) {
	ctx, cancel := context.WithTimeout(context.Background(), ttl)
	defer cancel()

	periodKey := time.Now().UTC().Format("2006-01-02T15:04")
	acquired, err := s.locks.AcquireJobLock(ctx, job, periodKey, ttl)
	if err != nil {
		log.Printf("job %s: lock acquisition failed: %v", job, err)
		return
	}
	if !acquired {
		return
	}
	defer func() {
		if err := s.locks.ReleaseJobLock(ctx, job, periodKey); err != nil {
			log.Printf("job %s: lock release failed: %v", job, err)
		}
	}()

	fn(ctx)
}
