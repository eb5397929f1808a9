package model

// Strategy 传输策略
type Strategy string

const (
	// StrategyDirect 单命令：建连、执行一条命令、立即断开
	StrategyDirect Strategy = "direct-exec"
	// StrategyInteractive 壳层：一条连接上依次执行多条包装命令
	StrategyInteractive Strategy = "interactive-shell"
)

// Candidate 候选命令
type Candidate struct {
	Command  string   `json:"command"`
	Strategy Strategy `json:"strategy"`
}

// Classification 执行结果分类
type Classification string

const (
	Success               Classification = "success"
	EmptyOrInvalid        Classification = "empty_or_invalid"
	TransportError        Classification = "transport_error"
	AuthenticationFailure Classification = "authentication_failure"
	Timeout               Classification = "timeout"
)

// Result 执行/探测结果
type Result struct {
	Host    string         `json:"host"`
	Family  Family         `json:"family,omitempty"`
	Command string         `json:"command,omitempty"`
	Output  string         `json:"output,omitempty"`
	Class   Classification `json:"class"`
	Detail  string         `json:"detail,omitempty"`
	Hint    string         `json:"hint,omitempty"`
}

// OK 是否成功拿到版本信息
func (r Result) OK() bool { return r.Class == Success }

// Fatal 认证失败对整台主机致命
func (r Result) Fatal() bool { return r.Class == AuthenticationFailure }

// Version 成功时返回版本文本
func (r Result) Version() string {
	if !r.OK() {
		return ""
	}
	return r.Output
}
