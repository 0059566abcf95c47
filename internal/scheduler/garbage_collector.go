// Package scheduler runs periodic maintenance in the background.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/tenancy/internal/logger"
	redisstore "github.com/MrSnakeDoc/tenancy/internal/store/redis"
)

const (
	// DefaultGCThreshold is how long a service may go unseen before its
	// usage counters are dropped.
	DefaultGCThreshold = 30 * 24 * time.Hour // 30 days
	// DefaultGCInterval is the time between two collections.
	DefaultGCInterval = 24 * time.Hour
)

// UsageStore reads and drops per-service counters.
type UsageStore interface {
	Usage(ctx context.Context) ([]redisstore.ServiceUsage, error)
	Reset(ctx context.Context, service string) error
}

// GarbageCollector drops the usage counters of services that left the
// catalog or have not been seen for longer than the threshold.
type GarbageCollector struct {
	store     UsageStore
	known     func(service string) bool
	logger    logger.Logger
	interval  time.Duration
	threshold time.Duration
	now       func() time.Time
	stopCh    chan struct{}
}

// NewGarbageCollector creates a collector. known reports whether a service
// is still part of the catalog.
func NewGarbageCollector(
	store UsageStore,
	known func(service string) bool,
	log logger.Logger,
	interval time.Duration,
	threshold time.Duration,
) *GarbageCollector {
	if interval <= 0 {
		interval = DefaultGCInterval
	}
	if threshold <= 0 {
		threshold = DefaultGCThreshold
	}
	if log == nil {
		log = logger.NewNop()
	}

	return &GarbageCollector{
		store:     store,
		known:     known,
		logger:    log,
		interval:  interval,
		threshold: threshold,
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}
}

// Start runs a collection immediately, then one per interval until Stop or
// ctx is done.
func (gc *GarbageCollector) Start(ctx context.Context) {
	if _, err := gc.Collect(ctx); err != nil {
		gc.logger.Warn("initial usage collection failed", logger.Error(err))
	}

	ticker := time.NewTicker(gc.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := gc.Collect(ctx); err != nil {
					gc.logger.Error("usage collection failed", logger.Error(err))
				}
			case <-gc.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the garbage collector.
func (gc *GarbageCollector) Stop() {
	close(gc.stopCh)
}

// Collect drops stale counters and returns the services it removed.
func (gc *GarbageCollector) Collect(ctx context.Context) ([]string, error) {
	usage, err := gc.store.Usage(ctx)
	if err != nil {
		return nil, fmt.Errorf("read usage: %w", err)
	}

	now := gc.now()
	var removed []string
	for _, u := range usage {
		reason := gc.staleReason(u, now)
		if reason == "" {
			continue
		}
		if err := gc.store.Reset(ctx, u.Service); err != nil {
			gc.logger.Warn("failed to drop usage counters",
				logger.String("service", u.Service),
				logger.Error(err))
			continue
		}
		gc.logger.Info("garbage collected usage counters",
			logger.String("service", u.Service),
			logger.String("reason", reason),
			logger.Int64("requests", u.Requests))
		removed = append(removed, u.Service)
	}

	if len(removed) == 0 {
		gc.logger.Debug("no usage counters to garbage collect")
	}
	return removed, nil
}

func (gc *GarbageCollector) staleReason(u redisstore.ServiceUsage, now time.Time) string {
	if gc.known != nil && !gc.known(u.Service) {
		return "not in catalog"
	}
	if !u.LastSeen.IsZero() && now.Sub(u.LastSeen) >= gc.threshold {
		return "idle for " + now.Sub(u.LastSeen).Truncate(time.Hour).String()
	}
	return ""
}
