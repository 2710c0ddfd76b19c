// Package store holds the key-value persistence the mock backend and the
// site controllers share. Every value is an opaque blob, usually JSON, kept
// under a flat string key in the same way the site keeps them in browser
// storage.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Well-known keys.
const (
	KeyAuthToken      = "authToken"
	KeyRememberMe     = "rememberMe"
	KeyDevModeEnabled = "hoa_dev_mode_enabled"
	KeyMockUsers      = "mockUsers"
	KeyMockSession    = "mockSession"
	KeyMockOrders     = "mockTransactions"
	PrefixForumTopics = "mockForumTopics_"
	PrefixForumPosts  = "mockForumPosts_"
)

var ErrUnknownBackend = errors.New("unknown store backend")

// Store is a flat key-value store. Get returns (nil, nil) for a missing key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Keys lists every key starting with prefix. An empty prefix lists all keys.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// TopicsKey returns the key holding the topics of one forum category.
func TopicsKey(categoryID string) string { return PrefixForumTopics + categoryID }

// PostsKey returns the key holding the posts of one forum topic.
func PostsKey(topicID string) string { return PrefixForumPosts + topicID }

// LoadJSON decodes the value under key into v. It reports false when the
// key is absent or holds an empty value, leaving v untouched.
func LoadJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SaveJSON encodes v and stores it under key.
func SaveJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// GetString returns the value under key as a string, "" when absent.
func GetString(ctx context.Context, s Store, key string) (string, error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
