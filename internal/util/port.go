package util

import (
	"net"
	"strconv"
)

// FindAvailablePort 从 startPort 起查找可监听的端口，最多尝试 attempts 个
// 全部被占用时返回 startPort，由启动流程报告错误
func FindAvailablePort(host string, startPort, attempts int) int {
	for i := 0; i < attempts; i++ {
		port := startPort + i
		if port > 65535 {
			break
		}
		ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
		if err != nil {
			continue
		}
		ln.Close()
		return port
	}
	return startPort
}
