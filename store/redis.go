// Package store provides the durable credential and draft stores backed by
// Redis, plus in-memory equivalents for tests and single-process use.
package store

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/sportsfed/memberauth"
)

// ErrRedisUnavailable wraps transport-level Redis failures.
var ErrRedisUnavailable = errors.New("redis unavailable")

const (
	accessTokenSlot   = "access_token"
	refreshTokenSlot  = "refresh_token"
	draftTypeSlot     = "registration_user_type"
	draftRequiredSlot = "registration_required_fields"
)

// RedisCredentials persists the token pair in two Redis string slots. Both
// slots are written with a single MSET and erased with a single DEL, so a
// reader never observes a half-written pair from this process.
type RedisCredentials struct {
	client *redis.Client
	prefix string
}

// NewRedisCredentials creates a credential store with the given key prefix.
// An empty prefix defaults to "memberauth".
func NewRedisCredentials(client *redis.Client, prefix string) *RedisCredentials {
	if prefix == "" {
		prefix = "memberauth"
	}
	return &RedisCredentials{
		client: client,
		prefix: prefix,
	}
}

func (s *RedisCredentials) key(slot string) string {
	return s.prefix + ":" + slot
}

// Save writes both token slots together.
func (s *RedisCredentials) Save(ctx context.Context, tokens memberauth.TokenPair) error {
	err := s.client.MSet(ctx,
		s.key(accessTokenSlot), tokens.AccessToken,
		s.key(refreshTokenSlot), tokens.RefreshToken,
	).Err()
	if err != nil {
		return errors.Join(ErrRedisUnavailable, err)
	}
	return nil
}

// Load reads the token pair. A store holding exactly one of the two slots
// is treated as corrupt: it is repaired by erasing both slots and reported
// as absent.
func (s *RedisCredentials) Load(ctx context.Context) (memberauth.TokenPair, bool, error) {
	vals, err := s.client.MGet(ctx, s.key(accessTokenSlot), s.key(refreshTokenSlot)).Result()
	if err != nil {
		return memberauth.TokenPair{}, false, errors.Join(ErrRedisUnavailable, err)
	}

	access, _ := vals[0].(string)
	refresh, _ := vals[1].(string)

	if access == "" && refresh == "" {
		return memberauth.TokenPair{}, false, nil
	}
	if access == "" || refresh == "" {
		if err := s.Clear(ctx); err != nil {
			return memberauth.TokenPair{}, false, err
		}
		return memberauth.TokenPair{}, false, nil
	}

	return memberauth.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
	}, true, nil
}

// Clear erases both token slots together.
func (s *RedisCredentials) Clear(ctx context.Context) error {
	err := s.client.Del(ctx, s.key(accessTokenSlot), s.key(refreshTokenSlot)).Err()
	if err != nil {
		return errors.Join(ErrRedisUnavailable, err)
	}
	return nil
}

// RedisDrafts persists the registration draft in two Redis string slots,
// keyed separately from the credential slots under the same prefix.
type RedisDrafts struct {
	client *redis.Client
	prefix string
}

// NewRedisDrafts creates a draft store with the given key prefix. An empty
// prefix defaults to "memberauth".
func NewRedisDrafts(client *redis.Client, prefix string) *RedisDrafts {
	if prefix == "" {
		prefix = "memberauth"
	}
	return &RedisDrafts{
		client: client,
		prefix: prefix,
	}
}

func (s *RedisDrafts) key(slot string) string {
	return s.prefix + ":" + slot
}

// SaveType stores the chosen principal type.
func (s *RedisDrafts) SaveType(ctx context.Context, principalType string) error {
	err := s.client.Set(ctx, s.key(draftTypeSlot), principalType, 0).Err()
	if err != nil {
		return errors.Join(ErrRedisUnavailable, err)
	}
	return nil
}

// SaveRequired stores the serialized required-fields record.
func (s *RedisDrafts) SaveRequired(ctx context.Context, record []byte) error {
	err := s.client.Set(ctx, s.key(draftRequiredSlot), record, 0).Err()
	if err != nil {
		return errors.Join(ErrRedisUnavailable, err)
	}
	return nil
}

// Load reads both draft slots. ok is false when no type was stored; the
// field record may legitimately be absent when only the first stage was
// completed.
func (s *RedisDrafts) Load(ctx context.Context) (string, []byte, bool, error) {
	vals, err := s.client.MGet(ctx, s.key(draftTypeSlot), s.key(draftRequiredSlot)).Result()
	if err != nil {
		return "", nil, false, errors.Join(ErrRedisUnavailable, err)
	}

	principalType, _ := vals[0].(string)
	if principalType == "" {
		return "", nil, false, nil
	}

	record, _ := vals[1].(string)
	if record == "" {
		return principalType, nil, true, nil
	}
	return principalType, []byte(record), true, nil
}

// Clear erases both draft slots together.
func (s *RedisDrafts) Clear(ctx context.Context) error {
	err := s.client.Del(ctx, s.key(draftTypeSlot), s.key(draftRequiredSlot)).Err()
	if err != nil {
		return errors.Join(ErrRedisUnavailable, err)
	}
	return nil
}
