package session

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"albstats/internal/classifier"
	"albstats/internal/importer"
	"albstats/internal/model"
	"albstats/internal/override"
	"albstats/internal/stats"
	"albstats/internal/store"
)

// ErrNoDataset 尚未加载任何导出文件
var ErrNoDataset = errors.New("Keine Daten geladen")

// ErrUploadTooLarge 上传文件超过上限
var ErrUploadTooLarge = errors.New("Datei zu groß")

// maxUploadBytes 上传文件大小上限
const maxUploadBytes = 64 << 20

// Deps 管理器依赖；History 可为空（不记录导入历史）
type Deps struct {
	Loader     importer.Options
	Classifier *classifier.Classifier
	Overrides  *override.Store
	History    *store.Store
	Analysis   stats.Options
	Logger     *slog.Logger
}

// Manager 当前会话：持有数据集、覆盖表与分类器，每次交互同步重算
type Manager struct {
	loaderOpts importer.Options
	classifier *classifier.Classifier
	overrides  *override.Store
	history    *store.Store
	analysis   stats.Options
	logger     *slog.Logger
	now        func() time.Time

	mu        sync.RWMutex
	dataset   *model.Dataset
	path      string
	lastError string
}

// NewManager 创建会话管理器
func NewManager(deps Deps) *Manager {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Classifier == nil {
		deps.Classifier = classifier.New(classifier.RoleTable{})
	}
	if deps.Overrides == nil {
		deps.Overrides = override.Open("", deps.Logger)
	}
	return &Manager{
		loaderOpts: deps.Loader,
		classifier: deps.Classifier,
		overrides:  deps.Overrides,
		history:    deps.History,
		analysis:   deps.Analysis,
		logger:     deps.Logger,
		now:        time.Now,
	}
}

// SetClock 替换时钟（测试用）
func (m *Manager) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Today 本地日历日期的 UTC 零点，与 model.NewDate 的日期同一基准；一次计算只取一次
func (m *Manager) Today() time.Time {
	m.mu.RLock()
	now := m.now
	m.mu.RUnlock()
	return startOfDay(now())
}

func startOfDay(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}

// Dataset 当前数据集，未加载时为 nil
func (m *Manager) Dataset() *model.Dataset {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dataset
}

// Replace 整体替换数据集；旧数据集及其派生结果随之丢弃
func (m *Manager) Replace(ds *model.Dataset, path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dataset = ds
	m.path = path
	m.lastError = ""
}

// LoadFile 从磁盘加载并替换当前数据集；成功时记住路径
func (m *Manager) LoadFile(path string) (*model.Dataset, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		m.setError(err)
		return nil, fmt.Errorf("Datei kann nicht gelesen werden: %w", err)
	}

	ds, err := m.load(data, filepath.Base(abs), abs)
	if err != nil {
		return nil, err
	}
	if m.history != nil {
		if err := m.history.SetLastSourcePath(abs); err != nil {
			m.logger.Warn("remember source path failed", slog.String("path", abs), slog.Any("err", err))
		}
	}
	return ds, nil
}

// LoadUpload 加载上传的文件（内容完整读入内存后解析）
func (m *Manager) LoadUpload(r io.Reader, filename string) (*model.Dataset, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxUploadBytes+1))
	if err != nil {
		m.setError(err)
		return nil, fmt.Errorf("Upload kann nicht gelesen werden: %w", err)
	}
	if len(data) > maxUploadBytes {
		err := fmt.Errorf("%w (max. %d MB)", ErrUploadTooLarge, maxUploadBytes>>20)
		m.setError(err)
		return nil, err
	}
	return m.load(data, filepath.Base(filename), "")
}

func (m *Manager) load(data []byte, source, path string) (*model.Dataset, error) {
	logID := m.startImportLog(data, source, path)

	opts := m.loaderOpts
	opts.Today = m.Today()
	ds, err := importer.NewLoader(opts, m.logger).LoadReader(bytes.NewReader(data), source)

	m.finishImportLog(logID, ds, err)
	if err != nil {
		m.setError(err)
		return nil, err
	}
	m.Replace(ds, path)
	return ds, nil
}

func (m *Manager) startImportLog(data []byte, source, path string) int64 {
	if m.history == nil {
		return 0
	}
	hash, size, err := store.HashReader(bytes.NewReader(data))
	if err != nil {
		return 0
	}
	id, err := m.history.CreateImportLog(source, path, size, hash)
	if err != nil {
		m.logger.Warn("create import log failed", slog.Any("err", err))
		return 0
	}
	return id
}

func (m *Manager) finishImportLog(id int64, ds *model.Dataset, loadErr error) {
	if m.history == nil || id == 0 {
		return
	}
	res := store.ImportResult{Err: loadErr}
	if ds != nil {
		res.DatasetID = ds.ID
		res.SheetName = ds.Sheet
		res.Members = len(ds.Members)
		res.Assignments = len(ds.Assignments)
		res.Warnings = len(ds.Warnings)
	}
	if err := m.history.FinishImportLog(id, res); err != nil {
		m.logger.Warn("finish import log failed", slog.Int64("id", id), slog.Any("err", err))
	}
}

func (m *Manager) setError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastError = err.Error()
}

// Classified 以当前覆盖表对数据集分类
func (m *Manager) Classified() (*model.ClassifiedDataset, error) {
	today := m.Today()
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.dataset == nil {
		return nil, ErrNoDataset
	}
	return m.classifier.ClassifyAll(m.dataset, m.overrides, today), nil
}

// Compute 分类 + 汇总，一次交互一次同步重算
func (m *Manager) Compute(f stats.Filters) (*stats.Bundle, error) {
	cd, err := m.Classified()
	if err != nil {
		return nil, err
	}
	return stats.Aggregate(cd, f, m.analysis), nil
}

// Candidates 覆盖候选
func (m *Manager) Candidates() (stats.Candidates, error) {
	cd, err := m.Classified()
	if err != nil {
		return stats.Candidates{}, err
	}
	return stats.BuildCandidates(cd), nil
}

// Overrides 当前全部覆盖
func (m *Manager) Overrides() []override.Entry {
	return m.overrides.Entries()
}

// SetOverride 写入覆盖并持久化
func (m *Manager) SetOverride(key override.Key, cat model.Category) error {
	if err := m.overrides.Set(key, cat); err != nil {
		return err
	}
	m.logger.Info("override set", slog.String("key", key.String()), slog.String("category", string(cat)))
	return nil
}

// DeleteOverride 删除覆盖并持久化
func (m *Manager) DeleteOverride(key override.Key) error {
	if err := m.overrides.Delete(key); err != nil {
		return err
	}
	m.logger.Info("override deleted", slog.String("key", key.String()))
	return nil
}

// ImportHistory 最近的导入记录；未配置数据库时为空
func (m *Manager) ImportHistory(limit int) ([]store.ImportLog, error) {
	if m.history == nil {
		return []store.ImportLog{}, nil
	}
	return m.history.ListImportLogs(limit)
}

// Status 会话概况
type Status struct {
	HasData      bool      `json:"hasData"`
	DatasetID    string    `json:"datasetId,omitempty"`
	Source       string    `json:"source,omitempty"`
	Path         string    `json:"path,omitempty"`
	Sheet        string    `json:"sheet,omitempty"`
	LoadedAt     time.Time `json:"loadedAt,omitempty"`
	Members      int       `json:"members"`
	Assignments  int       `json:"assignments"`
	Warnings     []string  `json:"warnings"`
	Overrides    int       `json:"overrides"`
	OverridePath string    `json:"overridePath"`
	Today        string    `json:"today"`
	LastError    string    `json:"lastError,omitempty"`
}

// Status 当前会话概况
func (m *Manager) Status() Status {
	today := m.Today()
	m.mu.RLock()
	defer m.mu.RUnlock()

	st := Status{
		Warnings:     []string{},
		Overrides:    m.overrides.Len(),
		OverridePath: m.overrides.Path(),
		Today:        today.Format("2006-01-02"),
		LastError:    m.lastError,
	}
	if ds := m.dataset; ds != nil {
		st.HasData = true
		st.DatasetID = ds.ID
		st.Source = ds.Source
		st.Path = m.path
		st.Sheet = ds.Sheet
		st.LoadedAt = ds.LoadedAt
		st.Members = len(ds.Members)
		st.Assignments = len(ds.Assignments)
		if ds.Warnings != nil {
			st.Warnings = ds.Warnings
		}
	}
	return st
}
