package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	_ "modernc.org/sqlite"
)

const createSQLiteTables = `
CREATE TABLE IF NOT EXISTS recipe_search (
	ingredients TEXT PRIMARY KEY,
	response TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS recipe (
	recipe_id TEXT PRIMARY KEY,
	response TEXT NOT NULL,
	image BLOB,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// SQLite 每個供應商一個資料庫檔案（<dir>/<provider>.db）
type SQLite struct {
	dir string
	mu  sync.Mutex
	dbs map[string]*sql.DB
}

// NewSQLite 建立以目錄為根的 SQLite 快取
func NewSQLite(dir string) (*SQLite, error) {
	if dir == "" {
		dir = "data/cache"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &SQLite{dir: dir, dbs: make(map[string]*sql.DB)}, nil
}

func (s *SQLite) path(provider string) string {
	return filepath.Join(s.dir, unsafeFileChars.ReplaceAllString(provider, "_")+".db")
}

// open 取得供應商的資料庫；create 為 false 且檔案不存在時回傳 nil
func (s *SQLite) open(ctx context.Context, provider string, create bool) (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if db, ok := s.dbs[provider]; ok {
		return db, nil
	}

	path := s.path(provider)
	if !create {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	// 單一連線避免併發寫入時 SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, createSQLiteTables); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}

	s.dbs[provider] = db
	return db, nil
}

func (s *SQLite) Initialize(ctx context.Context, provider string) error {
	_, err := s.open(ctx, provider, true)
	return err
}

func (s *SQLite) FetchSearch(ctx context.Context, provider, signature string) (string, error) {
	return s.fetch(ctx, provider, KindSearch,
		`SELECT response FROM recipe_search WHERE ingredients = ?`, signature)
}

func (s *SQLite) FetchRecipe(ctx context.Context, provider, recipeID string) (string, error) {
	return s.fetch(ctx, provider, KindRecipe,
		`SELECT response FROM recipe WHERE recipe_id = ?`, recipeID)
}

func (s *SQLite) StoreSearch(ctx context.Context, provider, signature, response string) error {
	return s.insert(ctx, provider,
		`INSERT OR IGNORE INTO recipe_search (ingredients, response) VALUES (?, ?)`, signature, response)
}

func (s *SQLite) StoreRecipe(ctx context.Context, provider, recipeID, response string) error {
	return s.insert(ctx, provider,
		`INSERT OR IGNORE INTO recipe (recipe_id, response, image) VALUES (?, ?, NULL)`, recipeID, response)
}

func (s *SQLite) fetch(ctx context.Context, provider, kind, query, key string) (string, error) {
	db, err := s.open(ctx, provider, false)
	if err != nil {
		return "", err
	}
	if db == nil {
		return "", miss(provider, kind, key)
	}

	var response string
	err = db.QueryRowContext(ctx, query, key).Scan(&response)
	if errors.Is(err, sql.ErrNoRows) {
		return "", miss(provider, kind, key)
	}
	if err != nil {
		return "", fmt.Errorf("cache get: %w", err)
	}
	return response, nil
}

func (s *SQLite) insert(ctx context.Context, provider, query string, args ...interface{}) error {
	db, err := s.open(ctx, provider, true)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// Ping 確認目錄可用並檢查已開啟的資料庫
func (s *SQLite) Ping(ctx context.Context) error {
	if _, err := os.Stat(s.dir); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for provider, db := range s.dbs {
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("ping %s cache: %w", provider, err)
		}
	}
	return nil
}

func (s *SQLite) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for provider, db := range s.dbs {
		if err := db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s cache: %w", provider, err))
		}
		delete(s.dbs, provider)
	}
	return errors.Join(errs...)
}
