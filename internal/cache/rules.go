package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"github.com/godesk-io/godesk-ce/internal/models"
	"github.com/godesk-io/godesk-ce/internal/repository"
)

// RuleCache fronts the rule repository with a Redis-backed copy of the
// active rule set. Resolution happens on every ticket touch, so the read
// path must not hit the database each time. Any mutation through the admin
// API invalidates the cached set.
type RuleCache struct {
	repo    repository.RuleRepository
	client  *redis.Client
	ttl     time.Duration
	key     string
	metrics *ruleCacheMetrics
}

type ruleCacheMetrics struct {
	hits   prometheus.Counter
	misses prometheus.Counter
	errors prometheus.Counter
}

// Registered once; RuleCache instances share the counters.
var ruleMetrics = &ruleCacheMetrics{
	hits: promauto.NewCounter(prometheus.CounterOpts{
		Name: "godesk_sla_rule_cache_hits_total",
		Help: "Number of active rule set reads served from Redis",
	}),
	misses: promauto.NewCounter(prometheus.CounterOpts{
		Name: "godesk_sla_rule_cache_misses_total",
		Help: "Number of active rule set reads that fell through to the database",
	}),
	errors: promauto.NewCounter(prometheus.CounterOpts{
		Name: "godesk_sla_rule_cache_errors_total",
		Help: "Number of Redis errors on the rule cache",
	}),
}

const defaultRuleSetKey = "godesk:sla:rules:active"

// NewRuleCache builds a cache over repo. A nil client degrades to
// pass-through reads so the server still works without Redis.
func NewRuleCache(repo repository.RuleRepository, client *redis.Client, ttl time.Duration) *RuleCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RuleCache{
		repo:    repo,
		client:  client,
		ttl:     ttl,
		key:     defaultRuleSetKey,
		metrics: ruleMetrics,
	}
}

// ActiveRules returns the active rule set, from Redis when fresh.
func (c *RuleCache) ActiveRules(ctx context.Context) ([]models.SLARule, error) {
	if c.client != nil {
		data, err := c.client.Get(ctx, c.key).Bytes()
		switch {
		case err == nil:
			var rules []models.SLARule
			if jsonErr := json.Unmarshal(data, &rules); jsonErr == nil {
				c.metrics.hits.Inc()
				return rules, nil
			}
			// Corrupt entry: drop it and fall through to the database.
			c.metrics.errors.Inc()
			c.client.Del(ctx, c.key)
		case err == redis.Nil:
			c.metrics.misses.Inc()
		default:
			c.metrics.errors.Inc()
			log.Printf("rule cache read failed, falling back to database: %v", err)
		}
	}

	rules, err := c.repo.ListRules(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load active rules: %w", err)
	}

	if c.client != nil {
		if data, err := json.Marshal(rules); err == nil {
			if err := c.client.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
				c.metrics.errors.Inc()
				log.Printf("rule cache write failed: %v", err)
			}
		}
	}
	return rules, nil
}

// Invalidate drops the cached rule set. Called after every rule mutation.
func (c *RuleCache) Invalidate(ctx context.Context) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		c.metrics.errors.Inc()
		log.Printf("rule cache invalidation failed: %v", err)
	}
}
