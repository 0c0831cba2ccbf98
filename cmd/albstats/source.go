package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// resolveSource 依次取 --file、上次成功加载的文件、dir 下最新的匹配文件
// 全部没有时返回空串
func resolveSource(explicit, last, dir, pattern string) (string, error) {
	if explicit != "" {
		path, err := filepath.Abs(explicit)
		if err != nil {
			return "", err
		}
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("Exportdatei nicht gefunden: %s", path)
		}
		return path, nil
	}
	if last != "" {
		if fi, err := os.Stat(last); err == nil && !fi.IsDir() {
			return last, nil
		}
	}
	return newestMatch(dir, pattern)
}

// newestMatch 修改时间最新的匹配文件，跳过 Excel 锁文件 (~$...)
func newestMatch(dir, pattern string) (string, error) {
	if dir == "" || pattern == "" {
		return "", nil
	}
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return "", fmt.Errorf("ungültiges Dateimuster %q: %w", pattern, err)
	}
	var best string
	var bestInfo os.FileInfo
	for _, m := range matches {
		if strings.HasPrefix(filepath.Base(m), "~$") {
			continue
		}
		fi, err := os.Stat(m)
		if err != nil || fi.IsDir() {
			continue
		}
		if bestInfo == nil || fi.ModTime().After(bestInfo.ModTime()) {
			best, bestInfo = m, fi
		}
	}
	if best == "" {
		return "", nil
	}
	return filepath.Abs(best)
}
