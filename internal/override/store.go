package override

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"albstats/internal/model"
	"albstats/internal/parser"
)

// FileName 覆盖文件名
const FileName = "chargen_class_overrides.json"

// Wildcard 匹配任意成员或学期
const Wildcard = "*"

const keySep = "|"

// ErrInvalidOverride 覆盖的键或分类不合法
var ErrInvalidOverride = errors.New("invalid override")

// ErrInvalidKey 键缺少角色名
var ErrInvalidKey = fmt.Errorf("%w: key requires a role", ErrInvalidOverride)

// Key 覆盖键：成员 + 角色 + 学期，不含任何日期字段
type Key struct {
	Member   string `json:"member"`
	Role     string `json:"role"`
	Semester string `json:"semester"`
}

// NewKey 构造规范化的键，空成员/学期视为通配
func NewKey(member, role, semester string) Key {
	k := Key{
		Member:   parser.NormalizeText(member),
		Role:     parser.RoleName(role),
		Semester: strings.TrimSpace(semester),
	}
	if k.Member == "" {
		k.Member = Wildcard
	}
	if k.Semester == "" || k.Semester == Wildcard {
		k.Semester = Wildcard
	} else {
		k.Semester = model.CanonicalSemester(k.Semester)
	}
	return k
}

// keyEscaper 成员名与角色名是自由文本，分隔符和反斜杠需转义
var keyEscaper = strings.NewReplacer(`\`, `\\`, keySep, `\`+keySep)

// String 规范字符串 "Member|Role|Semester"，字段内的 | 写作 \|
func (k Key) String() string {
	return keyEscaper.Replace(k.Member) + keySep + keyEscaper.Replace(k.Role) + keySep + keyEscaper.Replace(k.Semester)
}

// splitKey 按未转义的分隔符切分并去掉转义
func splitKey(s string) []string {
	var parts []string
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\\' && i+1 < len(s):
			i++
			b.WriteByte(s[i])
		case c == keySep[0]:
			parts = append(parts, b.String())
			b.Reset()
		default:
			b.WriteByte(c)
		}
	}
	return append(parts, b.String())
}

// ParseKey 解析规范字符串；只有角色名的旧格式视为全局规则
func ParseKey(s string) (Key, error) {
	parts := splitKey(s)
	switch len(parts) {
	case 1:
		k := NewKey("", parts[0], "")
		if k.Role == "" {
			return Key{}, ErrInvalidKey
		}
		return k, nil
	case 3:
		k := NewKey(parts[0], parts[1], parts[2])
		if k.Role == "" {
			return Key{}, ErrInvalidKey
		}
		return k, nil
	}
	return Key{}, fmt.Errorf("malformed override key %q", s)
}

// Store 覆盖存储，每次修改都同步写回文件
type Store struct {
	mu      sync.RWMutex
	path    string
	entries map[Key]model.Category
	logger  *slog.Logger
}

// Open 加载覆盖文件；文件不存在或损坏时返回空存储并记录警告。path 为空时只保存在内存
func Open(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{path: path, entries: make(map[Key]model.Category), logger: logger}
	if path == "" {
		return s
	}

	var raw map[string]string
	if err := readJSON(path, &raw); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("override file unreadable, starting empty",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
		}
		return s
	}

	for rawKey, rawCat := range raw {
		key, err := ParseKey(rawKey)
		if err != nil {
			logger.Warn("skip override entry", slog.String("key", rawKey), slog.String("error", err.Error()))
			continue
		}
		cat := model.Category(strings.TrimSpace(rawCat))
		if !cat.Manual() {
			logger.Warn("skip override entry", slog.String("key", rawKey), slog.String("category", rawCat))
			continue
		}
		s.entries[key] = cat
	}
	logger.Info("overrides loaded", slog.String("path", path), slog.Int("count", len(s.entries)))
	return s
}

// Path 覆盖文件路径
func (s *Store) Path() string {
	return s.path
}

// Len 条目数
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Get 精确查询
func (s *Store) Get(key Key) (model.Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cat, ok := s.entries[key]
	return cat, ok
}

// Lookup 按优先级查询：精确 > 成员+角色 > 仅角色
func (s *Store) Lookup(member, role, semester string) (model.Category, bool) {
	exact := NewKey(member, role, semester)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.entries) == 0 {
		return "", false
	}
	for _, k := range []Key{
		exact,
		{Member: exact.Member, Role: exact.Role, Semester: Wildcard},
		{Member: Wildcard, Role: exact.Role, Semester: Wildcard},
	} {
		if cat, ok := s.entries[k]; ok {
			return cat, true
		}
	}
	return "", false
}

// Set 写入覆盖并持久化；写盘失败时回滚内存
func (s *Store) Set(key Key, cat model.Category) error {
	if key.Role == "" {
		return ErrInvalidKey
	}
	if key.Member == Wildcard && key.Semester != Wildcard {
		return fmt.Errorf("%w: all members must not name a semester: %s", ErrInvalidOverride, key)
	}
	if !cat.Manual() {
		return fmt.Errorf("%w: category %q", ErrInvalidOverride, cat)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.entries[key]
	s.entries[key] = cat
	if err := s.saveLocked(); err != nil {
		if had {
			s.entries[key] = prev
		} else {
			delete(s.entries, key)
		}
		return err
	}
	return nil
}

// Delete 删除覆盖并持久化，键不存在时无操作
func (s *Store) Delete(key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.entries[key]
	if !had {
		return nil
	}
	delete(s.entries, key)
	if err := s.saveLocked(); err != nil {
		s.entries[key] = prev
		return err
	}
	return nil
}

// All 返回副本
func (s *Store) All() map[Key]model.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[Key]model.Category, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out
}

// Entry 列表展示用
type Entry struct {
	Key
	Category model.Category `json:"category"`
	Label    string         `json:"label"`
}

// Entries 按键排序的列表
func (s *Store) Entries() []Entry {
	all := s.All()
	out := make([]Entry, 0, len(all))
	for k, cat := range all {
		out = append(out, Entry{Key: k, Category: cat, Label: cat.Label()})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key.String() < out[j].Key.String()
	})
	return out
}

func (s *Store) saveLocked() error {
	if s.path == "" {
		return nil
	}
	flat := make(map[string]string, len(s.entries))
	for k, v := range s.entries {
		flat[k.String()] = string(v)
	}
	if err := writeJSONAtomic(s.path, flat); err != nil {
		return fmt.Errorf("save overrides: %w", err)
	}
	return nil
}
