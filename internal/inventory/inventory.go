package inventory

import (
	"context"
	"errors"
	"strings"

	"github.com/sshcollectorpro/sysvers/internal/detect"
	"github.com/sshcollectorpro/sysvers/internal/model"
)

// ErrNoToken 未配置 Infrahub API token
var ErrNoToken = errors.New("infrahub api token not set")

// Descriptor 清单中的一台设备
type Descriptor struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Port            int          `json:"port,omitempty"`
	Family          model.Family `json:"family,omitempty"` // 空表示自动探测
	RecordedVersion string       `json:"recorded_version,omitempty"`
}

// Source 设备清单来源
type Source interface {
	List(ctx context.Context) ([]Descriptor, error)
}

// Target 转换为批量检查目标
func (d Descriptor) Target() detect.Target {
	return detect.Target{
		Host:   d.Name,
		Port:   d.Port,
		Family: d.Family,
	}
}

// Targets 批量转换
func Targets(devices []Descriptor) []detect.Target {
	out := make([]detect.Target, 0, len(devices))
	for _, d := range devices {
		out = append(out, d.Target())
	}
	return out
}

// Recorded 设备名 -> 已记录版本，作为漂移判断的基准；未记录的设备不出现
func Recorded(devices []Descriptor) map[string]string {
	out := make(map[string]string, len(devices))
	for _, d := range devices {
		name := strings.TrimSpace(d.Name)
		if name != "" && d.RecordedVersion != "" {
			out[name] = d.RecordedVersion
		}
	}
	return out
}
