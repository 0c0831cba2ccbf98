package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"

	"albstats/internal/classifier"
	"albstats/internal/override"
	"albstats/internal/stats"
)

// FileName 配置文件名
const FileName = "config.toml"

// EnvPrefix 环境变量前缀，如 ALBSTATS_SERVER_PORT
const EnvPrefix = "ALBSTATS"

// AppConfig 应用配置
type AppConfig struct {
	Server         ServerConfig         `toml:"server" envconfig:"SERVER"`
	Data           DataConfig           `toml:"data" envconfig:"DATA"`
	Excel          ExcelConfig          `toml:"excel" envconfig:"EXCEL"`
	Analysis       stats.Options        `toml:"analysis" envconfig:"ANALYSIS"`
	Classification classifier.RoleTable `toml:"classification" envconfig:"CLASSIFICATION"`
	Log            LogConfig            `toml:"log" envconfig:"LOG"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host    string `toml:"host" envconfig:"HOST" validate:"required"`
	Port    int    `toml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	DevMode bool   `toml:"dev_mode" envconfig:"DEV_MODE"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir      string `toml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	OverrideFile string `toml:"override_file" envconfig:"OVERRIDE_FILE"` // 空 = 数据目录下的默认文件
}

// ExcelConfig 导出文件读取配置
type ExcelConfig struct {
	SheetName   string `toml:"sheet_name" envconfig:"SHEET_NAME" validate:"required"`
	HeaderRow   int    `toml:"header_row" envconfig:"HEADER_ROW" validate:"min=1,max=1000"`
	FilePattern string `toml:"file_pattern" envconfig:"FILE_PATTERN" validate:"required"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `toml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format string `toml:"format" envconfig:"FORMAT" validate:"oneof=text json"`
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path  string
	Found bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Host:    "127.0.0.1",
			Port:    8050,
			DevMode: false,
		},
		Data: DataConfig{
			DataDir: "data",
		},
		Excel: ExcelConfig{
			SheetName:   "Exportdaten",
			HeaderRow:   5,
			FilePattern: "Datenexport*.xlsx",
		},
		Analysis:       stats.DefaultOptions(),
		Classification: classifier.DefaultRoleTable(),
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// DefaultPath 可执行文件同目录下的 config.toml
func DefaultPath() string {
	exeDir, err := GetExeDir()
	if err != nil {
		// 无法获取可执行文件目录，使用当前目录
		exeDir = "."
	}
	return filepath.Join(exeDir, FileName)
}

// LoadConfigWithInfo 依次应用默认值、config.toml、环境变量并校验；path 为空时使用 DefaultPath
func LoadConfigWithInfo(path string) (*AppConfig, LoadConfigInfo, error) {
	if path == "" {
		path = DefaultPath()
	}
	info := LoadConfigInfo{Path: path}
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		info.Found = true
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// 配置文件不存在，使用默认配置
	default:
		return nil, info, err
	}

	if err := envconfig.Process(EnvPrefix, config); err != nil {
		return nil, info, fmt.Errorf("environment: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, info, err
	}
	return config, info, nil
}

// LoadConfig 从 config.toml 加载配置
func LoadConfig(path string) (*AppConfig, error) {
	config, _, err := LoadConfigWithInfo(path)
	return config, err
}

var validate = validator.New()

// Validate 校验配置取值
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// SaveConfig 保存配置到 path
func SaveConfig(path string, config *AppConfig) error {
	if path == "" {
		path = DefaultPath()
	}
	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// EnsureDataDir 确保数据目录存在；相对路径基于可执行文件目录
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := config.Data.DataDir
	if !filepath.IsAbs(dataDir) {
		exeDir, err := GetExeDir()
		if err != nil {
			exeDir = "."
		}
		dataDir = filepath.Join(exeDir, dataDir)
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}
	return dataDir, nil
}

// OverridePath 覆盖文件位置
func OverridePath(config *AppConfig, dataDir string) string {
	if p := config.Data.OverrideFile; p != "" {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dataDir, p)
	}
	return filepath.Join(dataDir, override.FileName)
}
