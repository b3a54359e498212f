package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redis_v9 "github.com/redis/go-redis/v9"

	"mcq-app/internal/quiz"
)

const DefaultKey = "mcq:history"

type Options struct {
	Addr     string
	Password string
	DB       int
	// Key is the list holding the JSON-encoded records.
	Key string
}

// HistoryStore keeps the history list as a redis list of JSON records, one
// element per completed quiz in append order.
type HistoryStore struct {
	client *redis_v9.Client
	key    string
}

func NewHistoryStore(ctx context.Context, opts Options) (*HistoryStore, error) {
	client := redis_v9.NewClient(&redis_v9.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
	}
	return NewHistoryStoreWithClient(client, opts.Key), nil
}

func NewHistoryStoreWithClient(client *redis_v9.Client, key string) *HistoryStore {
	key = strings.TrimSpace(key)
	if key == "" {
		key = DefaultKey
	}
	return &HistoryStore{client: client, key: key}
}

func (s *HistoryStore) Append(ctx context.Context, record quiz.HistoryRecord) error {
	payload, err := encodeRecord(record)
	if err != nil {
		return err
	}
	if err := s.client.RPush(ctx, s.key, payload).Err(); err != nil {
		return fmt.Errorf("append history to %s: %w", s.key, err)
	}
	return nil
}

// ReadAll skips elements that fail to decode rather than losing the whole list.
func (s *HistoryStore) ReadAll(ctx context.Context) ([]quiz.HistoryRecord, error) {
	items, err := s.client.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read history from %s: %w", s.key, err)
	}
	return decodeRecords(items), nil
}

func (s *HistoryStore) Close() error {
	return s.client.Close()
}

func encodeRecord(record quiz.HistoryRecord) ([]byte, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Date.IsZero() {
		record.Date = time.Now().UTC()
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encode history record: %w", err)
	}
	return payload, nil
}

func decodeRecords(items []string) []quiz.HistoryRecord {
	records := make([]quiz.HistoryRecord, 0, len(items))
	for _, item := range items {
		var record quiz.HistoryRecord
		if err := json.Unmarshal([]byte(item), &record); err != nil {
			continue
		}
		records = append(records, record)
	}
	return records
}
