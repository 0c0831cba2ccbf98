package util

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
)

// launcher 打开 URL 的一条系统命令，URL 追加在 args 之后
type launcher struct {
	name string
	args []string
}

// launchers 按平台排列的候选命令，前面的优先
func launchers(goos string) []launcher {
	switch goos {
	case "windows":
		// rundll32 在 Windows 7 上比 cmd /c start 可靠
		return []launcher{
			{name: "rundll32", args: []string{"url.dll,FileProtocolHandler"}},
			{name: "explorer"},
		}
	case "darwin":
		return []launcher{{name: "open"}}
	default:
		return []launcher{
			{name: "xdg-open"},
			{name: "sensible-browser"},
			{name: "firefox"},
			{name: "chromium"},
			{name: "google-chrome"},
		}
	}
}

// OpenBrowser 依次尝试本平台的命令打开 url；全部失败时返回合并的错误
func OpenBrowser(url string) error {
	return openWith(launchers(runtime.GOOS), url, startCommand)
}

func startCommand(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait()
	return nil
}

func openWith(candidates []launcher, url string, start func(string, ...string) error) error {
	var errs []error
	for _, l := range candidates {
		args := append(append([]string(nil), l.args...), url)
		if err := start(l.name, args...); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", l.name, err))
			continue
		}
		return nil
	}
	return fmt.Errorf("Browser konnte nicht gestartet werden: %w", errors.Join(errs...))
}
