package service

import (
	"fmt"
	"net/url"

	"github.com/jimyag/pvegate/internal/pvegate/entity"
)

// ConsoleService 构造控制台地址
type ConsoleService struct {
	consolePath string
}

// NewConsoleService 创建 ConsoleService，consolePath 为反向代理到上游控制台的路径
func NewConsoleService(consolePath string) *ConsoleService {
	if consolePath == "" {
		consolePath = "/proxmox/"
	}
	return &ConsoleService{consolePath: consolePath}
}

// ConsoleURL 返回 noVNC 控制台地址
func (s *ConsoleService) ConsoleURL(req *entity.OpenConsoleRequest) (string, error) {
	if err := req.IsValid(); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s?console=kvm&novnc=1&node=%s&vmid=%s&resize=scale",
		s.consolePath, url.QueryEscape(req.Node), req.VMID), nil
}
