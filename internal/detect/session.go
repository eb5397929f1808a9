package detect

import (
	"context"
	"strings"

	"github.com/sshcollectorpro/sysvers/internal/model"
)

// detailLimit 失败详情中保留的输出长度
const detailLimit = 200

// session 单个设备族回退链内的连接管理：
// direct-exec 每条命令独立建连并立即关闭；
// 连续的 interactive-shell 候选复用同一条连接，直到遇到 direct 候选或链结束。
type session struct {
	transport Transport
	params    model.ConnectionParams
	shell     Conn
}

func newSession(transport Transport, params model.ConnectionParams) *session {
	return &session{transport: transport, params: params}
}

// execute 按候选声明的策略执行并分类
func (s *session) execute(ctx context.Context, c model.Candidate) model.Result {
	out, err := s.exec(ctx, c)
	res := evaluate(out, err)
	res.Host = s.params.Host
	res.Command = c.Command
	return res
}

func (s *session) exec(ctx context.Context, c model.Candidate) (string, error) {
	if c.Strategy == model.StrategyInteractive {
		if s.shell == nil {
			conn, err := s.transport.Dial(ctx, s.params)
			if err != nil {
				return "", err
			}
			s.shell = conn
		}
		out, err := s.run(ctx, s.shell, c.Command)
		if err != nil && Classify(err) != model.EmptyOrInvalid {
			// 连接可能已不可用，下一条候选重新建连
			s.close()
		}
		return out, err
	}

	s.close()
	conn, err := s.transport.Dial(ctx, s.params)
	if err != nil {
		return "", err
	}
	defer conn.Close()
	return s.run(ctx, conn, c.Command)
}

func (s *session) run(ctx context.Context, conn Conn, command string) (string, error) {
	if s.params.CommandTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.params.CommandTimeout)
		defer cancel()
	}
	return conn.Run(ctx, command)
}

// close 关闭复用中的 shell 连接
func (s *session) close() {
	if s.shell != nil {
		_ = s.shell.Close()
		s.shell = nil
	}
}

// evaluate 由原始输出与错误得出唯一分类
func evaluate(out string, err error) model.Result {
	trimmed := strings.TrimSpace(out)
	if err != nil {
		detail := err.Error()
		if trimmed != "" {
			detail += ": " + truncate(trimmed, detailLimit)
		}
		return model.Result{Class: Classify(err), Output: trimmed, Detail: detail}
	}
	if !Validate(out) {
		detail := "empty output"
		if trimmed != "" {
			detail = "unrecognized command: " + truncate(trimmed, detailLimit)
		}
		return model.Result{Class: model.EmptyOrInvalid, Output: trimmed, Detail: detail}
	}
	return model.Result{Class: model.Success, Output: trimmed}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
