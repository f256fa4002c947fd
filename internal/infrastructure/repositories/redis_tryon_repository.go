package repositories

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/weirdqq-coder/troyyon/internal/domain/entities"
	domainrepos "github.com/weirdqq-coder/troyyon/internal/domain/repositories"
)

const redisKeyPrefix = "tryon:history:"

type RedisOptions struct {
	Addr     string
	Password string
	UseTLS   bool
	TTL      time.Duration
}

// RedisTryOnRepository keeps history records as JSON strings with a TTL.
type RedisTryOnRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// ConnectRedis dials Redis and pings it before returning.
func ConnectRedis(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	var tlsConfig *tls.Config
	if opts.UseTLS {
		tlsConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		TLSConfig:    tlsConfig,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}

	log.Info().Str("addr", opts.Addr).Bool("tls", opts.UseTLS).Msg("connected to redis")
	return rdb, nil
}

func NewRedisTryOnRepository(client *redis.Client, ttl time.Duration) *RedisTryOnRepository {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisTryOnRepository{client: client, ttl: ttl}
}

func (r *RedisTryOnRepository) Save(ctx context.Context, request *entities.TryOnRequest) error {
	return r.put(ctx, newPendingRecord(request))
}

func (r *RedisTryOnRepository) FindByID(ctx context.Context, id entities.TryOnRequestID) (*domainrepos.TryOnRecord, error) {
	raw, err := r.client.Get(ctx, redisKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("request %s: %w", id, domainrepos.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", id, err)
	}

	var record domainrepos.TryOnRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decode history record %s: %w", id, err)
	}
	return &record, nil
}

func (r *RedisTryOnRepository) SaveResult(ctx context.Context, result *entities.TryOnResult) error {
	record, err := r.FindByID(ctx, result.RequestID())
	if err != nil {
		return err
	}
	applyResult(record, result)
	return r.put(ctx, record)
}

func (r *RedisTryOnRepository) SaveFailure(ctx context.Context, id entities.TryOnRequestID, reason string) error {
	record, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	applyFailure(record, reason)
	return r.put(ctx, record)
}

func (r *RedisTryOnRepository) Close() error {
	return r.client.Close()
}

func (r *RedisTryOnRepository) put(ctx context.Context, record *domainrepos.TryOnRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode history record: %w", err)
	}
	if err := r.client.Set(ctx, redisKey(record.RequestID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", record.RequestID, err)
	}
	return nil
}

func redisKey(id entities.TryOnRequestID) string {
	return redisKeyPrefix + string(id)
}

var _ domainrepos.TryOnRepository = (*RedisTryOnRepository)(nil)
