package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"time"
)

// 导入状态
const (
	ImportProcessing = "processing"
	ImportSuccess    = "success"
	ImportFailed     = "failed"
)

// ImportLog 导入记录
type ImportLog struct {
	ID           int64      `json:"id"`
	DatasetID    string     `json:"datasetId"`
	Filename     string     `json:"filename"`
	FilePath     string     `json:"filePath"`
	FileSize     int64      `json:"fileSize"`
	FileHash     string     `json:"fileHash"`
	SheetName    string     `json:"sheetName"`
	Members      int        `json:"members"`
	Assignments  int        `json:"assignments"`
	Warnings     int        `json:"warnings"`
	Status       string     `json:"status"`
	ErrorMessage string     `json:"errorMessage"`
	StartedAt    time.Time  `json:"startedAt"`
	CompletedAt  *time.Time `json:"completedAt"`
}

// ImportResult 导入完成时回写的统计
type ImportResult struct {
	DatasetID   string
	SheetName   string
	Members     int
	Assignments int
	Warnings    int
	Err         error
}

// HashReader 计算内容的 sha256，返回十六进制摘要与字节数
func HashReader(r io.Reader) (string, int64, error) {
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// CreateImportLog 创建导入日志，返回 import_log_id
func (s *Store) CreateImportLog(filename, filePath string, fileSize int64, fileHash string) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO import_logs (filename, file_path, file_size, file_hash, status)
		VALUES (?, ?, ?, ?, ?)
	`, filename, filePath, fileSize, fileHash, ImportProcessing)
	if err != nil {
		return 0, fmt.Errorf("failed to create import log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get import log id: %w", err)
	}
	return id, nil
}

// FinishImportLog 完成导入日志更新
func (s *Store) FinishImportLog(id int64, r ImportResult) error {
	status, msg := ImportSuccess, ""
	if r.Err != nil {
		status, msg = ImportFailed, r.Err.Error()
	}
	_, err := s.db.Exec(`
		UPDATE import_logs SET
			dataset_id = ?,
			sheet_name = ?,
			members = ?,
			assignments = ?,
			warnings = ?,
			status = ?,
			error_message = ?,
			completed_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, r.DatasetID, r.SheetName, r.Members, r.Assignments, r.Warnings, status, msg, id)
	if err != nil {
		return fmt.Errorf("failed to update import log: %w", err)
	}
	return nil
}

// ListImportLogs 最近的导入记录（新的在前）
func (s *Store) ListImportLogs(limit int) ([]ImportLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, dataset_id, filename, file_path, file_size, file_hash, sheet_name,
		       members, assignments, warnings, status, error_message, started_at, completed_at
		FROM import_logs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query import logs failed: %w", err)
	}
	defer rows.Close()

	out := []ImportLog{}
	for rows.Next() {
		var it ImportLog
		var completed sql.NullTime
		if err := rows.Scan(
			&it.ID, &it.DatasetID, &it.Filename, &it.FilePath, &it.FileSize, &it.FileHash, &it.SheetName,
			&it.Members, &it.Assignments, &it.Warnings, &it.Status, &it.ErrorMessage, &it.StartedAt, &completed,
		); err != nil {
			return nil, fmt.Errorf("scan import log failed: %w", err)
		}
		if completed.Valid {
			t := completed.Time
			it.CompletedAt = &t
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate import logs failed: %w", err)
	}
	return out, nil
}
