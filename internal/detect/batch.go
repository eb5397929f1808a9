package detect

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/sshcollectorpro/sysvers/internal/model"
)

// Target 批量检查中的一台主机
type Target struct {
	Host   string       `json:"host"`
	Port   int          `json:"port,omitempty"`
	Family model.Family `json:"device_type,omitempty"` // 空表示自动探测
}

// CheckBatch 批量检查多台主机，返回 主机 -> 结果。
// 每台主机内部严格串行；不同主机之间并发（上限 BatchConcurrency）。
// 单台主机失败不会中断或影响其他主机；重复主机只检查一次。
func (e *Engine) CheckBatch(ctx context.Context, targets []Target, base model.ConnectionParams) map[string]model.Result {
	results := make(map[string]model.Result, len(targets))
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(e.opts.BatchConcurrency)

	seen := make(map[string]bool, len(targets))
	for _, t := range targets {
		host := strings.TrimSpace(t.Host)
		if host == "" || seen[host] {
			continue
		}
		seen[host] = true

		t := t
		g.Go(func() error {
			params := base.WithHost(host)
			if t.Port > 0 {
				params.Port = t.Port
			}
			r := e.Detect(ctx, t.Family, params)
			r.Host = host

			mu.Lock()
			results[host] = r
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Drift 成功检测到的版本与已记录版本不一致时返回 true；未记录或未成功不算漂移
func Drift(r model.Result, recorded string) bool {
	recorded = strings.TrimSpace(recorded)
	if !r.OK() || recorded == "" {
		return false
	}
	return !strings.Contains(strings.ToLower(r.Output), strings.ToLower(recorded))
}
