package session

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheUnavailable is returned when the backing Redis instance cannot be
// reached or rejects a command.
var ErrCacheUnavailable = errors.New("session cache unavailable")

// admitScript persists a record, registers it in the principal's index, and
// enforces the per-principal cap in a single atomic step. Eviction runs after
// insertion and removes the oldest entries by admit order; the entry just
// added carries the highest score and is never eviction-eligible.
const admitScript = `
redis.call("SET", KEYS[1], ARGV[1], "EX", ARGV[2])
redis.call("ZADD", KEYS[2], ARGV[3], ARGV[4])
redis.call("EXPIRE", KEYS[2], ARGV[2])

local max = tonumber(ARGV[5])
if max <= 0 then
  return {}
end

local count = redis.call("ZCARD", KEYS[2])
if count <= max then
  return {}
end

local evicted = redis.call("ZRANGE", KEYS[2], 0, count - max - 1)
for _, sid in ipairs(evicted) do
  redis.call("DEL", ARGV[6] .. sid)
  redis.call("ZREM", KEYS[2], sid)
end
return evicted
`

var admitLua = redis.NewScript(admitScript)

// deleteScript removes a record and its index membership atomically. The
// EXISTS probe keeps the operation idempotent: repeat deletes are no-ops.
const deleteScript = `
local existed = redis.call("EXISTS", KEYS[1])
redis.call("ZREM", KEYS[2], ARGV[1])
if existed == 1 then
  redis.call("DEL", KEYS[1])
end
return existed
`

var deleteLua = redis.NewScript(deleteScript)

// Store is a Redis-backed session store handling record persistence, TTL
// refresh on read, per-principal cap enforcement, and cascade invalidation.
//
// The per-principal index is a sorted set scored by a monotonic admit score
// (wall-clock microsecond slots, bumped under contention), so ZRANGE order is
// insertion order. All mutations that touch both a record and its index run
// through Lua scripts and are atomic from the point of view of concurrent
// callers, including concurrent admits for the same principal.
type Store struct {
	redis           redis.UniversalClient
	prefix          string
	indexPrefix     string
	ttl             time.Duration
	maxPerPrincipal int
	maxRecordSize   int

	lastScore atomic.Int64
}

// NewStore creates a session [Store] backed by the given Redis client.
// prefix and indexPrefix set the record and index key namespaces, ttl is the
// full session lifetime applied on admit and reset on every read, and
// maxPerPrincipal caps concurrent sessions per principal (0 disables the cap).
func NewStore(
	rdb redis.UniversalClient,
	prefix string,
	indexPrefix string,
	ttl time.Duration,
	maxPerPrincipal int,
	maxRecordSize int,
) *Store {
	return &Store{
		redis:           rdb,
		prefix:          prefix,
		indexPrefix:     indexPrefix,
		ttl:             ttl,
		maxPerPrincipal: maxPerPrincipal,
		maxRecordSize:   maxRecordSize,
	}
}

func (s *Store) key(sessionID string) string {
	return s.prefix + ":" + sessionID
}

func (s *Store) indexKey(principalID string) string {
	return s.indexPrefix + ":" + principalID
}

func (s *Store) ttlSeconds() int64 {
	secs := int64(s.ttl / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// nextAdmitScore returns a strictly increasing index score. The base is the
// wall clock in microsecond slots so scores stay ordered across restarts and
// across store instances sharing the cache; same-slot admits from different
// instances tie and fall back to lexical member order.
func (s *Store) nextAdmitScore() int64 {
	for {
		last := s.lastScore.Load()
		next := time.Now().UnixMilli() * 1000
		if next <= last {
			next = last + 1
		}
		if s.lastScore.CompareAndSwap(last, next) {
			return next
		}
	}
}

// Save persists a [Record] under its SessionID, registers the id in the
// principal's index, refreshes the index TTL, and enforces the per-principal
// cap. Returns the session ids evicted by cap enforcement, oldest first.
//
//	Performance: 1 Lua EVALSHA (SET + ZADD + EXPIRE + eviction).
func (s *Store) Save(ctx context.Context, rec *Record) ([]string, error) {
	data, err := Encode(rec, s.maxRecordSize)
	if err != nil {
		return nil, err
	}

	result, err := admitLua.Run(
		ctx,
		s.redis,
		[]string{s.key(rec.SessionID), s.indexKey(rec.PrincipalID)},
		data,
		s.ttlSeconds(),
		s.nextAdmitScore(),
		rec.SessionID,
		s.maxPerPrincipal,
		s.prefix+":",
	).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	parts, ok := result.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: invalid admit script response", ErrCacheUnavailable)
	}

	evicted := make([]string, 0, len(parts))
	for _, part := range parts {
		switch v := part.(type) {
		case string:
			evicted = append(evicted, v)
		case []byte:
			evicted = append(evicted, string(v))
		default:
			return nil, fmt.Errorf("%w: invalid admit script member", ErrCacheUnavailable)
		}
	}

	return evicted, nil
}

// Get retrieves a session by id, bumps LastActivityAt, and re-persists the
// record with the TTL reset to its full duration (sliding window). Returns
// redis.Nil when the session does not exist or has expired; the index is left
// untouched on a miss to keep the hot read path write-free.
//
//	Performance: 1 Redis GET + 1 SET on hit.
func (s *Store) Get(ctx context.Context, sessionID string) (*Record, error) {
	key := s.key(sessionID)

	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	rec, err := Decode(data)
	if err != nil {
		return nil, err
	}
	rec.SessionID = sessionID
	rec.LastActivityAt = time.Now().Unix()

	refreshed, err := Encode(rec, s.maxRecordSize)
	if err != nil {
		return nil, err
	}
	if err := s.redis.Set(ctx, key, refreshed, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	return rec, nil
}

// Delete removes a session and its index membership. Unknown or already
// expired ids are a no-op, never an error.
//
//	Performance: 1 Redis GET + 1 Lua EVALSHA.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	key := s.key(sessionID)

	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	rec, decErr := Decode(data)
	if decErr != nil {
		// Owning index entry cannot be located; drop the record and let the
		// dangling index id fall out via lazy cleanup.
		if err := s.redis.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
		}
		return nil
	}

	_, err = deleteLua.Run(
		ctx,
		s.redis,
		[]string{key, s.indexKey(rec.PrincipalID)},
		sessionID,
	).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	return nil
}

// DeleteAllForPrincipal removes every session listed in the principal's index
// and then the index entry itself. Session keys are deleted before the index
// so a crash mid-operation leaves orphaned record keys that self-heal via TTL
// expiry, never an index pointing at nothing from the caller's perspective.
// Returns the number of records actually deleted.
func (s *Store) DeleteAllForPrincipal(ctx context.Context, principalID string) (int, error) {
	indexKey := s.indexKey(principalID)

	sessionIDs, err := s.redis.ZRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	var removed int64
	if len(sessionIDs) > 0 {
		sessionKeys := make([]string, 0, len(sessionIDs))
		for _, sid := range sessionIDs {
			sessionKeys = append(sessionKeys, s.key(sid))
		}
		removed, err = s.redis.Del(ctx, sessionKeys...).Result()
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
		}
	}

	if err := s.redis.Del(ctx, indexKey).Err(); err != nil {
		return int(removed), fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	return int(removed), nil
}

// MergeExtension shallow-merges patch into the session's extension bag and
// re-persists the record with the TTL reset, mirroring Get's refresh
// semantics. A missing session is a silent no-op.
func (s *Store) MergeExtension(ctx context.Context, sessionID string, patch map[string]interface{}) error {
	key := s.key(sessionID)

	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	rec, err := Decode(data)
	if err != nil {
		return err
	}
	rec.SessionID = sessionID
	rec.MergeExtension(patch)
	rec.LastActivityAt = time.Now().Unix()

	updated, err := Encode(rec, s.maxRecordSize)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, key, updated, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	return nil
}

// ListForPrincipal resolves every id in the principal's index to its record,
// oldest first. Ids that no longer resolve are skipped and pruned from the
// index opportunistically; a prune failure does not fail the listing.
func (s *Store) ListForPrincipal(ctx context.Context, principalID string) ([]*Record, error) {
	indexKey := s.indexKey(principalID)

	sessionIDs, err := s.redis.ZRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []*Record{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	if len(sessionIDs) == 0 {
		return []*Record{}, nil
	}

	pipe := s.redis.Pipeline()
	cmds := make([]*redis.StringCmd, len(sessionIDs))
	for i, sid := range sessionIDs {
		cmds[i] = pipe.Get(ctx, s.key(sid))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	records := make([]*Record, 0, len(sessionIDs))
	var dangling []interface{}
	for i, cmd := range cmds {
		data, cmdErr := cmd.Bytes()
		if cmdErr != nil {
			if errors.Is(cmdErr, redis.Nil) {
				dangling = append(dangling, sessionIDs[i])
				continue
			}
			return nil, fmt.Errorf("%w: %v", ErrCacheUnavailable, cmdErr)
		}

		rec, decErr := Decode(data)
		if decErr != nil {
			return nil, decErr
		}
		rec.SessionID = sessionIDs[i]
		records = append(records, rec)
	}

	if len(dangling) > 0 {
		_ = s.redis.ZRem(ctx, indexKey, dangling...).Err()
	}

	return records, nil
}

// IndexCardinality returns the number of tracked session ids for a principal.
func (s *Store) IndexCardinality(ctx context.Context, principalID string) (int, error) {
	count, err := s.redis.ZCard(ctx, s.indexKey(principalID)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return int(count), nil
}

// KeyspaceSize returns the cache's keyspace size. This is the totalSessions
// probe for statistics: on a shared cache it can include non-session keys and
// is documented as an approximation.
func (s *Store) KeyspaceSize(ctx context.Context) (int64, error) {
	size, err := s.redis.DBSize(ctx).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return size, nil
}

// ScanIndexes walks every principal index via SCAN and returns the number of
// principals with an index entry and the total tracked session ids across
// them. This is an admin-only O(n) operation and must not be used in request
// hot paths.
func (s *Store) ScanIndexes(ctx context.Context) (principals int, tracked int64, err error) {
	pattern := s.indexPrefix + ":*"
	var cursor uint64

	for {
		keys, next, scanErr := s.redis.Scan(ctx, cursor, pattern, 1000).Result()
		if scanErr != nil {
			return 0, 0, fmt.Errorf("%w: %v", ErrCacheUnavailable, scanErr)
		}

		if len(keys) > 0 {
			pipe := s.redis.Pipeline()
			cardCmds := make([]*redis.IntCmd, len(keys))
			for i, key := range keys {
				cardCmds[i] = pipe.ZCard(ctx, key)
			}
			if _, pipeErr := pipe.Exec(ctx); pipeErr != nil {
				return 0, 0, fmt.Errorf("%w: %v", ErrCacheUnavailable, pipeErr)
			}
			for _, cmd := range cardCmds {
				card, cmdErr := cmd.Result()
				if cmdErr != nil {
					return 0, 0, fmt.Errorf("%w: %v", ErrCacheUnavailable, cmdErr)
				}
				principals++
				tracked += card
			}
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return principals, tracked, nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return time.Since(start), nil
}
