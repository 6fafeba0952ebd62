package repository

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// NumberAllocator hands out gapless-enough, duplicate-free document numbers
// of the form <PREFIX>-<YYYYMMDD>-<NNN>. Allocation must stay correct under
// concurrent requests, so both backends serialize at the store: Redis INCR
// when available, otherwise a Postgres upsert on the invoice_sequences table.
type NumberAllocator interface {
	Next(ctx context.Context, prefix string) (string, error)
}

type numberAllocator struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewNumberAllocator returns an allocator backed by Redis when rdb is
// non-nil, with the database as fallback.
func NewNumberAllocator(db *gorm.DB, rdb *redis.Client) NumberAllocator {
	return &numberAllocator{db: db, rdb: rdb}
}

func (a *numberAllocator) Next(ctx context.Context, prefix string) (string, error) {
	day := time.Now().Format("20060102")

	if a.rdb != nil {
		seq, err := a.nextRedis(ctx, prefix, day)
		if err == nil {
			return fmt.Sprintf("%s-%s-%03d", prefix, day, seq), nil
		}
		log.Printf("sequence: redis allocation failed, falling back to database: %v", err)
	}

	seq, err := a.nextDB(ctx, prefix, day)
	if err != nil {
		return "", fmt.Errorf("failed to allocate %s sequence: %w", prefix, err)
	}
	return fmt.Sprintf("%s-%s-%03d", prefix, day, seq), nil
}

func (a *numberAllocator) nextRedis(ctx context.Context, prefix, day string) (int64, error) {
	key := fmt.Sprintf("seq:%s:%s", prefix, day)
	seq, err := a.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	// Counters are per-day; let stale keys expire on their own.
	if seq == 1 {
		a.rdb.Expire(ctx, key, 48*time.Hour)
	}
	return seq, nil
}

// nextDB bumps the (prefix, day) row atomically. The upsert runs as a single
// statement so concurrent callers each observe a distinct value.
func (a *numberAllocator) nextDB(ctx context.Context, prefix, day string) (int64, error) {
	var seq int64
	err := GetDB(ctx, a.db).Raw(`
		INSERT INTO invoice_sequences (prefix, day, last_seq)
		VALUES (?, ?, 1)
		ON CONFLICT (prefix, day)
		DO UPDATE SET last_seq = invoice_sequences.last_seq + 1
		RETURNING last_seq
	`, prefix, day).Scan(&seq).Error
	if err != nil {
		return 0, err
	}
	return seq, nil
}
