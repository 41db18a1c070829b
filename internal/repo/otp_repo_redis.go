package repo

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/xxxsen/otpverify/internal/config"
	"github.com/xxxsen/otpverify/internal/model"
	appErr "github.com/xxxsen/otpverify/internal/pkg/errors"
)

type redisConfig struct {
	Addr     string `json:"addr" validate:"required"`
	Username string `json:"username"`
	Password string `json:"password"`
	DB       int    `json:"db" validate:"gte=0"`
	Prefix   string `json:"prefix"`
}

// KEYS: record hash, per-email index, ctime index. ARGV: code, id.
var deleteIfMatchScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'code') ~= ARGV[1] then
	return 0
end
redis.call('DEL', KEYS[1])
redis.call('ZREM', KEYS[2], ARGV[2])
redis.call('ZREM', KEYS[3], ARGV[2])
return 1
`)

func init() {
	Register("redis", createRedisOtpRepo)
}

func createRedisOtpRepo(ctx context.Context, args interface{}) (OtpRepo, error) {
	cfg := &redisConfig{}
	if err := config.DecodeData(args, cfg); err != nil {
		return nil, err
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisOtpRepo(rdb, cfg.Prefix), nil
}

// RedisOtpRepo stores each record as a hash, indexed per email by a sorted
// set scored with a global write sequence, and globally by ctime.
type RedisOtpRepo struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisOtpRepo(rdb *redis.Client, prefix string) *RedisOtpRepo {
	if prefix == "" {
		prefix = "otp"
	}
	return &RedisOtpRepo{rdb: rdb, prefix: prefix}
}

func (r *RedisOtpRepo) recordKey(id string) string {
	return r.prefix + ":record:" + id
}

func (r *RedisOtpRepo) emailKey(email string) string {
	return r.prefix + ":email:" + email
}

func (r *RedisOtpRepo) ctimeKey() string {
	return r.prefix + ":ctime"
}

func (r *RedisOtpRepo) seqKey() string {
	return r.prefix + ":seq"
}

func (r *RedisOtpRepo) Insert(ctx context.Context, record *model.OtpRecord) error {
	seq, err := r.rdb.Incr(ctx, r.seqKey()).Result()
	if err != nil {
		return err
	}
	// ctime comes from the redis server clock; ordering uses seq.
	now, err := r.rdb.Time(ctx).Result()
	if err != nil {
		return err
	}
	record.ID = uuid.NewString()
	record.Ctime = now.UnixMilli()
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.recordKey(record.ID), map[string]interface{}{
			"email": record.Email,
			"code":  record.Code,
			"ctime": record.Ctime,
		})
		pipe.ZAdd(ctx, r.emailKey(record.Email), redis.Z{Score: float64(seq), Member: record.ID})
		pipe.ZAdd(ctx, r.ctimeKey(), redis.Z{Score: float64(record.Ctime), Member: record.ID})
		return nil
	})
	return err
}

func (r *RedisOtpRepo) Latest(ctx context.Context, email string) (*model.OtpRecord, error) {
	ids, err := r.rdb.ZRevRange(ctx, r.emailKey(email), 0, 0).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, appErr.ErrNotFound
	}
	fields, err := r.rdb.HGetAll(ctx, r.recordKey(ids[0])).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, appErr.ErrNotFound
	}
	ctime, err := strconv.ParseInt(fields["ctime"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse ctime of record %s: %w", ids[0], err)
	}
	return &model.OtpRecord{
		ID:    ids[0],
		Email: fields["email"],
		Code:  fields["code"],
		Ctime: ctime,
	}, nil
}

func (r *RedisOtpRepo) DeleteIfMatch(ctx context.Context, id, code string) (bool, error) {
	email, err := r.rdb.HGet(ctx, r.recordKey(id), "email").Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	deleted, err := deleteIfMatchScript.Run(ctx, r.rdb,
		[]string{r.recordKey(id), r.emailKey(email), r.ctimeKey()}, code, id).Int()
	if err != nil {
		return false, err
	}
	return deleted == 1, nil
}

func (r *RedisOtpRepo) DeleteBefore(ctx context.Context, cutoff int64) (int64, error) {
	ids, err := r.rdb.ZRangeByScore(ctx, r.ctimeKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(cutoff, 10),
	}).Result()
	if err != nil {
		return 0, err
	}
	var removed int64
	for _, id := range ids {
		email, err := r.rdb.HGet(ctx, r.recordKey(id), "email").Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return removed, err
		}
		_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, r.recordKey(id))
			if email != "" {
				pipe.ZRem(ctx, r.emailKey(email), id)
			}
			pipe.ZRem(ctx, r.ctimeKey(), id)
			return nil
		})
		if err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func (r *RedisOtpRepo) Close() error {
	return r.rdb.Close()
}
