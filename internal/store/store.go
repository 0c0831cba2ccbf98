package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// FileName 数据目录下的数据库文件名
const FileName = "albstats.db"

// schemaVersion 写入 PRAGMA user_version；改 schema.sql 时递增并在 migrate 中补步骤
const schemaVersion = 1

// Store 导入历史库：导入记录与上次的源文件等键值
type Store struct {
	db   *sql.DB
	path string
}

// Open 在数据目录下打开（必要时创建）导入历史库
func Open(dataDir string) (*Store, error) {
	return New(filepath.Join(dataDir, FileName))
}

// New 打开指定路径的历史库，并把结构升级到 schemaVersion
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("Verzeichnis für %s kann nicht angelegt werden: %w", dbPath, err)
	}

	// 浏览器与 CLI 可能同时写入，等锁而不是立即 SQLITE_BUSY
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("Datenbank %s kann nicht geöffnet werden: %w", dbPath, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("Datenbank %s nicht erreichbar: %w", dbPath, err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// migrate 按 user_version 执行缺失的步骤
func (s *Store) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("Schemaversion nicht lesbar: %w", err)
	}
	if version > schemaVersion {
		return fmt.Errorf("Datenbank %s hat Schemaversion %d, unterstützt wird höchstens %d", s.path, version, schemaVersion)
	}
	if version == schemaVersion {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("Migration nicht startbar: %w", err)
	}
	defer tx.Rollback()

	if version < 1 {
		if _, err := tx.Exec(schemaSQL); err != nil {
			return fmt.Errorf("Schema nicht anlegbar: %w", err)
		}
	}
	// PRAGMA 不支持占位符
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("Schemaversion nicht schreibbar: %w", err)
	}
	return tx.Commit()
}

// Path 数据库文件路径
func (s *Store) Path() string {
	return s.path
}

// Close 关闭数据库连接
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
