package detect

import (
	"context"
	"errors"
	"time"

	"github.com/sshcollectorpro/sysvers/internal/model"
)

const (
	// DefaultProbeTimeout 自动探测阶段每次建连/命令的超时
	DefaultProbeTimeout = 10 * time.Second
	// DefaultBatchConcurrency 批量检查时同时处理的主机数
	DefaultBatchConcurrency = 8
)

// DefaultAutoOrder 自动探测时依次尝试的设备族
var DefaultAutoOrder = []model.Family{
	model.FamilyCisco,
	model.FamilyJuniper,
	model.FamilyUbiquiti,
	model.FamilyLinux,
	model.FamilyMacOS,
	model.FamilyWindows,
}

// Options 引擎参数
type Options struct {
	AutoOrder        []model.Family
	ProbeTimeout     time.Duration
	BatchConcurrency int
}

// Engine 远程版本探测引擎。无内部可变状态，可被多个 goroutine 同时用于不同主机。
type Engine struct {
	transport Transport
	reporter  Reporter
	resolve   Resolver
	opts      Options
}

// NewEngine 创建探测引擎
func NewEngine(transport Transport, reporter Reporter, opts Options) *Engine {
	if reporter == nil {
		reporter = NopReporter{}
	}
	if len(opts.AutoOrder) == 0 {
		opts.AutoOrder = DefaultAutoOrder
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = DefaultProbeTimeout
	}
	if opts.BatchConcurrency <= 0 {
		opts.BatchConcurrency = DefaultBatchConcurrency
	}
	return &Engine{
		transport: transport,
		reporter:  reporter,
		resolve:   Resolve,
		opts:      opts,
	}
}

// WithResolver 返回使用自定义命令表的引擎副本
func (e *Engine) WithResolver(r Resolver) *Engine {
	cp := *e
	cp.resolve = r
	return &cp
}

// AutoOrder 自动探测顺序
func (e *Engine) AutoOrder() []model.Family {
	out := make([]model.Family, len(e.opts.AutoOrder))
	copy(out, e.opts.AutoOrder)
	return out
}

// Execute 以候选声明的策略单独执行一条命令（独立连接，执行后关闭）
func (e *Engine) Execute(ctx context.Context, params model.ConnectionParams, c model.Candidate) model.Result {
	sess := newSession(e.transport, params)
	defer sess.close()
	return sess.execute(ctx, c)
}

// Detect 按声明的设备族检测；family 为 auto 时走自动探测
func (e *Engine) Detect(ctx context.Context, family model.Family, params model.ConnectionParams) model.Result {
	if family == model.FamilyAuto || family == "" {
		return e.AutoDetect(ctx, params, nil)
	}
	return e.DetectForFamily(ctx, family, params)
}

// cancelled 调用方取消时的结果
func cancelled(ctx context.Context, host string, family model.Family) model.Result {
	class := model.TransportError
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		class = model.Timeout
	}
	return model.Result{
		Host:   host,
		Family: family,
		Class:  class,
		Detail: "detection cancelled: " + ctx.Err().Error(),
	}
}
