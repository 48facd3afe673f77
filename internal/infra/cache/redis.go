package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store はRedisの薄いラッパー。
// キーは「エンティティ種別:所有者ID」で揃える（例 cart:5f0c...）。
// 書き込み側が必ずDeleteしてから次の読み取りが作り直すので、
// read-after-writeで古い値は見えない。
type Store struct {
	rdb *redis.Client
}

func NewStore(addr string, password string, db int) *Store {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Store{rdb: rdb}
}

// 起動時の疎通確認
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Get はキーの値を返す。無ければ(nil, false, nil)。
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (s *Store) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return s.rdb.Set(ctx, key, val, ttl).Err()
}

// Delete は無効化。無いキーを消してもエラーにしない。
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

// Key は「エンティティ種別:所有者」のキャッシュキーを作る。
func Key(entity string, owner string) string {
	return fmt.Sprintf("%s:%s", entity, owner)
}
