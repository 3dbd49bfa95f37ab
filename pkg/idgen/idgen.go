package idgen

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sony/sonyflake"
)

// Generator 递增 ID 生成器
// 使用 Sonyflake 算法生成全局唯一且递增的 ID
type Generator struct {
	sf *sonyflake.Sonyflake
}

var (
	defaultGenerator     *Generator
	defaultGeneratorOnce sync.Once
)

// DefaultGenerator 返回默认的 ID 生成器
func DefaultGenerator() *Generator {
	defaultGeneratorOnce.Do(func() {
		defaultGenerator = New()
	})
	return defaultGenerator
}

// New 创建新的 ID 生成器
func New() *Generator {
	settings := sonyflake.Settings{
		StartTime: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	sf := sonyflake.NewSonyflake(settings)
	if sf == nil {
		// 没有私有 IP 时默认的机器 ID 获取会失败，退回到进程号
		settings.MachineID = func() (uint16, error) {
			return uint16(os.Getpid()), nil
		}
		sf = sonyflake.NewSonyflake(settings)
	}

	return &Generator{
		sf: sf,
	}
}

// GenerateRequestID 生成请求 ID（格式：req-{递增 ID}）
// 该 ID 同时作为登录失败等用户可见错误的关联 ID
func (g *Generator) GenerateRequestID() (string, error) {
	id, err := g.sf.NextID()
	if err != nil {
		return "", fmt.Errorf("generate request ID: %w", err)
	}
	return fmt.Sprintf("req-%d", id), nil
}
