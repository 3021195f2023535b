package redis

import (
	"context"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/decayscope/internal/db"
)

// PushCapped prepends value and trims the list to maxLen entries in one round trip.
func (s *Store) PushCapped(ctx context.Context, key string, value []byte, maxLen int64) error {
	cmds := rueidis.Commands{
		s.b().Lpush().Key(key).Element(rueidis.BinaryString(value)).Build(),
		s.b().Ltrim().Key(key).Start(0).Stop(maxLen - 1).Build(),
	}
	for _, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return &db.Error{Op: db.OpLPush, Err: err}
		}
	}
	return nil
}

// Range returns list entries between start and stop inclusive.
func (s *Store) Range(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	items, err := s.client.Do(ctx, s.b().Lrange().Key(key).Start(start).Stop(stop).Build()).AsStrSlice()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, nil
		}
		return nil, &db.Error{Op: db.OpLRange, Err: err}
	}
	out := make([][]byte, len(items))
	for i, it := range items {
		out[i] = []byte(it)
	}
	return out, nil
}
