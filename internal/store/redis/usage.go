// Package redis stores per-service usage counters in Redis hashes.
package redis

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ServiceUsage is the recorded traffic of one service.
type ServiceUsage struct {
	Service  string    `json:"service"`
	Requests int64     `json:"requests"`
	LastSeen time.Time `json:"last_seen,omitempty"`
}

// Store handles usage counters.
type Store struct {
	client redis.Cmdable
	scope  string
	now    func() time.Time
}

// NewStore creates a usage store. scope isolates the keys of one deployment.
func NewStore(client redis.Cmdable, scope string) *Store {
	return &Store{
		client: client,
		scope:  scope,
		now:    time.Now,
	}
}

// IncrementUsage counts one request for service and stamps its last-seen time.
func (s *Store) IncrementUsage(ctx context.Context, service string) error {
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HIncrBy(ctx, UsageKey(s.scope), service, 1)
		p.HSet(ctx, LastSeenKey(s.scope), service, s.now().Unix())
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to increment usage of %s: %w", service, err)
	}
	return nil
}

// Usage returns the counters of every service seen, most requested first.
func (s *Store) Usage(ctx context.Context) ([]ServiceUsage, error) {
	counters, err := s.client.HGetAll(ctx, UsageKey(s.scope)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get usage: %w", err)
	}
	seen, err := s.client.HGetAll(ctx, LastSeenKey(s.scope)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get last seen: %w", err)
	}
	return mergeUsage(counters, seen), nil
}

// Reset drops the counters of service.
func (s *Store) Reset(ctx context.Context, service string) error {
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HDel(ctx, UsageKey(s.scope), service)
		p.HDel(ctx, LastSeenKey(s.scope), service)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to reset usage of %s: %w", service, err)
	}
	return nil
}

// mergeUsage joins the raw hashes. Unparseable values count as zero.
func mergeUsage(counters, seen map[string]string) []ServiceUsage {
	out := make([]ServiceUsage, 0, len(counters))
	for service, raw := range counters {
		n, _ := strconv.ParseInt(raw, 10, 64)
		u := ServiceUsage{Service: service, Requests: n}
		if ts, err := strconv.ParseInt(seen[service], 10, 64); err == nil && ts > 0 {
			u.LastSeen = time.Unix(ts, 0).UTC()
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Requests != out[j].Requests {
			return out[i].Requests > out[j].Requests
		}
		return out[i].Service < out[j].Service
	})
	return out
}
