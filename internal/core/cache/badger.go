package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// 寫入衝突重試次數
const badgerConflictRetries = 3

// Badger 以單一嵌入式 badger 資料庫保存所有供應商的回應
type Badger struct {
	db     *badger.DB
	mu     sync.RWMutex
	closed bool
}

// NewBadger 在目錄中開啟 badger 資料庫
func NewBadger(dir string) (*Badger, error) {
	if dir == "" {
		dir = "data/badger"
	}
	return openBadger(badger.DefaultOptions(dir).WithLogger(nil))
}

// NewBadgerInMemory 建立純記憶體的 badger 資料庫
func NewBadgerInMemory() (*Badger, error) {
	return openBadger(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
}

func openBadger(opts badger.Options) (*Badger, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Badger{db: db}, nil
}

func badgerKey(provider, kind, key string) []byte {
	return []byte(kind + "/" + provider + "/" + key)
}

// Initialize 所有供應商共用同一個資料庫，只確認資料庫仍可用
func (b *Badger) Initialize(_ context.Context, _ string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return errors.New("badger cache is closed")
	}
	return nil
}

func (b *Badger) FetchSearch(ctx context.Context, provider, signature string) (string, error) {
	return b.fetch(provider, KindSearch, signature)
}

func (b *Badger) FetchRecipe(ctx context.Context, provider, recipeID string) (string, error) {
	return b.fetch(provider, KindRecipe, recipeID)
}

func (b *Badger) StoreSearch(ctx context.Context, provider, signature, response string) error {
	return b.insert(provider, KindSearch, signature, response)
}

func (b *Badger) StoreRecipe(ctx context.Context, provider, recipeID, response string) error {
	return b.insert(provider, KindRecipe, recipeID, response)
}

func (b *Badger) fetch(provider, kind, key string) (string, error) {
	var value string
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(provider, kind, key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = string(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", miss(provider, kind, key)
	}
	if err != nil {
		return "", fmt.Errorf("badger get: %w", err)
	}
	return value, nil
}

// insert 只在鍵不存在時寫入；併發寫入同一鍵造成的衝突重試後即成為 no-op
func (b *Badger) insert(provider, kind, key, value string) error {
	k := badgerKey(provider, kind, key)
	var err error
	for attempt := 0; attempt < badgerConflictRetries; attempt++ {
		err = b.db.Update(func(txn *badger.Txn) error {
			_, getErr := txn.Get(k)
			if getErr == nil {
				return nil
			}
			if !errors.Is(getErr, badger.ErrKeyNotFound) {
				return getErr
			}
			return txn.SetEntry(badger.NewEntry(k, []byte(value)))
		})
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
	}
	return settleInsert(err)
}

// settleInsert 重試用盡仍衝突代表其他寫入者已提交同一鍵，不覆寫即為成功
func settleInsert(err error) error {
	if err == nil || errors.Is(err, badger.ErrConflict) {
		return nil
	}
	return fmt.Errorf("badger put: %w", err)
}

func (b *Badger) Ping(_ context.Context) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed || b.db.IsClosed() {
		return errors.New("badger cache is closed")
	}
	return nil
}

func (b *Badger) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.db.Close()
}
