package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"Athena/internal/knowledge/interfaces"
	"Athena/internal/knowledge/schema"
	"Athena/pkg/logger"
)

const keyPrefix = "cache:llm:"

// minConfidence is the admission floor: answers the model itself is not
// confident about are recomputed rather than replayed.
const minConfidence = 0.7

// Questions containing these markers are never cached. Time-sensitive
// answers go stale the moment they are produced; personal questions must not
// leak one asker's answer to another user of the same tenant.
var (
	timeMarkers     = []string{"today", "now", "current", "latest", "deadline"}
	personalMarkers = []string{"my", "i ", "me ", "mine"}
)

// AnswerCache stores synthesized answers in Redis, keyed by a fingerprint of
// the tenant, the question and the retrieved fragment set.
type AnswerCache struct {
	rdb        *redis.Client
	defaultTTL time.Duration
	log        *logger.Logger
}

// NewAnswerCache creates an AnswerCache with the given default TTL.
func NewAnswerCache(rdb *redis.Client, defaultTTL time.Duration, log *logger.Logger) *AnswerCache {
	return &AnswerCache{rdb: rdb, defaultTTL: defaultTTL, log: log}
}

// Key derives the deterministic cache fingerprint. Document ids are sorted
// before hashing so the key does not depend on retrieval order.
func Key(tenantID, question string, documentIDs []string) string {
	ids := make([]string, len(documentIDs))
	copy(ids, documentIDs)
	sort.Strings(ids)

	content := fmt.Sprintf("%s:%s:%s", tenantID, question, strings.Join(ids, ":"))
	sum := sha256.Sum256([]byte(content))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// Get returns the cached answer for the given inputs, or nil on a miss. A
// miss is an expected state, never an error.
func (c *AnswerCache) Get(ctx context.Context, tenantID, question string, documentIDs []string) (*schema.Answer, error) {
	data, err := c.rdb.Get(ctx, Key(tenantID, question, documentIDs)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read answer cache: %w", err)
	}

	var answer schema.Answer
	if err := json.Unmarshal(data, &answer); err != nil {
		// A corrupt entry is treated as a miss; it will be overwritten on
		// the next admission.
		c.log.Warn(fmt.Sprintf("discarding unreadable cache entry: %v", err))
		return nil, nil
	}
	return &answer, nil
}

// Put stores an answer unless the admission policy rejects it. Rejection is
// silent: the caller already has the answer, caching is purely an
// optimization. A zero ttl uses the configured default.
func (c *AnswerCache) Put(ctx context.Context, tenantID, question string, documentIDs []string, answer *schema.Answer, ttl time.Duration) error {
	if !Admissible(question, answer) {
		return nil
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	data, err := json.Marshal(answer)
	if err != nil {
		return fmt.Errorf("failed to marshal answer for cache: %w", err)
	}
	if err := c.rdb.Set(ctx, Key(tenantID, question, documentIDs), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write answer cache: %w", err)
	}
	return nil
}

// Admissible applies the cache admission policy to a computed answer.
func Admissible(question string, answer *schema.Answer) bool {
	if answer == nil || answer.Confidence < minConfidence || answer.InsufficientContext {
		return false
	}

	lower := strings.ToLower(question)
	for _, marker := range timeMarkers {
		if strings.Contains(lower, marker) {
			return false
		}
	}
	for _, marker := range personalMarkers {
		if strings.Contains(lower, marker) {
			return false
		}
	}
	return true
}

var _ interfaces.AnswerCache = (*AnswerCache)(nil)
