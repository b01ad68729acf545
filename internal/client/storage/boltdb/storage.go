package boltdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"github.com/iudanet/forkful/internal/client/storage"
)

// errNoRecord ключа нет в bucket'е; методы переводят его в ошибки пакета storage
var errNoRecord = errors.New("record not found")

var (
	// BoltDB bucket names
	bucketAuth      = []byte("auth")
	bucketSnapshots = []byte("snapshots")
)

// Storage represents BoltDB storage implementation for client
type Storage struct {
	db *bbolt.DB
	mu sync.RWMutex
}

// New creates a new BoltDB storage instance
// dbPath is the path to the BoltDB database file
func New(ctx context.Context, dbPath string) (*Storage, error) {
	// Открываем BoltDB; таймаут защищает от второго процесса, держащего lock файла
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	storage := &Storage{db: db}

	// Инициализируем buckets
	if err := storage.initBuckets(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return storage, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// initBuckets создает необходимые buckets если они не существуют
func (s *Storage) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		// Создаем bucket для аутентификационных данных
		if _, err := tx.CreateBucketIfNotExists(bucketAuth); err != nil {
			return fmt.Errorf("failed to create auth bucket: %w", err)
		}

		// Создаем bucket для warm-start snapshot'ов
		if _, err := tx.CreateBucketIfNotExists(bucketSnapshots); err != nil {
			return fmt.Errorf("failed to create snapshots bucket: %w", err)
		}

		return nil
	})
}

// update выполняет read-write транзакцию, если хранилище открыто
func (s *Storage) update(fn func(tx *bbolt.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return storage.ErrStorageClosed
	}
	return s.db.Update(fn)
}

// view выполняет read-only транзакцию, если хранилище открыто
func (s *Storage) view(fn func(tx *bbolt.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return storage.ErrStorageClosed
	}
	return s.db.View(fn)
}

// putRecord сериализует v в JSON и кладет под key
func (s *Storage) putRecord(ctx context.Context, bucket, key []byte, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s record: %w", bucket, err)
	}

	return s.update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return fmt.Errorf("%s bucket not found", bucket)
		}
		return b.Put(key, data)
	})
}

// getRecord читает запись key в v; errNoRecord если ее нет
func (s *Storage) getRecord(ctx context.Context, bucket, key []byte, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.view(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return fmt.Errorf("%s bucket not found", bucket)
		}
		// Get возвращает срез, живущий только до конца транзакции
		data := b.Get(key)
		if data == nil {
			return errNoRecord
		}
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("unmarshal %s record: %w", bucket, err)
		}
		return nil
	})
}

// deleteRecord удаляет key. С mustExist отсутствующая запись дает errNoRecord.
func (s *Storage) deleteRecord(ctx context.Context, bucket, key []byte, mustExist bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return fmt.Errorf("%s bucket not found", bucket)
		}
		if mustExist && b.Get(key) == nil {
			return errNoRecord
		}
		return b.Delete(key)
	})
}
