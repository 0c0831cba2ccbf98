package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// KeyLastSourcePath 上次成功加载的导出文件路径
const KeyLastSourcePath = "last_source_path"

// ErrConfigNotFound 配置项不存在
var ErrConfigNotFound = errors.New("config key not found")

// GetConfig 获取配置项
func (s *Store) GetConfig(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: %s", ErrConfigNotFound, key)
		}
		return "", err
	}
	return value, nil
}

// SetConfig 设置配置项
func (s *Store) SetConfig(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = ?, updated_at = CURRENT_TIMESTAMP
	`, key, value, value)
	return err
}

// GetAllConfig 获取所有配置项
func (s *Store) GetAllConfig() (map[string]string, error) {
	rows, err := s.db.Query("SELECT key, value FROM config")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	config := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		config[key] = value
	}

	return config, rows.Err()
}

// LastSourcePath 上次加载的文件；未记录时返回空串
func (s *Store) LastSourcePath() (string, error) {
	path, err := s.GetConfig(KeyLastSourcePath)
	if errors.Is(err, ErrConfigNotFound) {
		return "", nil
	}
	return path, err
}

// SetLastSourcePath 记录成功加载的文件
func (s *Store) SetLastSourcePath(path string) error {
	return s.SetConfig(KeyLastSourcePath, path)
}
