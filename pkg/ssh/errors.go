package ssh

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

var (
	// ErrAuthentication 远端拒绝认证
	ErrAuthentication = errors.New("ssh: authentication failed")
	// ErrTimeout 拨号、握手或命令执行超时
	ErrTimeout = errors.New("ssh: timeout")
	// ErrNotConnected 连接未建立
	ErrNotConnected = errors.New("SSH connection not established")
)

// ExitError 命令已执行但以非零状态退出
type ExitError struct {
	Command string
	Status  int
	Output  string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command %q exited with status %d", e.Command, e.Status)
}

// x/crypto/ssh 没有导出认证失败的错误类型，只能按文案识别
var authFailureMarkers = []string{
	"unable to authenticate",
	"no supported methods remain",
	"permission denied",
}

func isAuthFailure(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, m := range authFailureMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrTimeout) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// classifyDialError 将建连阶段的错误挂到对应哨兵错误上
func classifyDialError(ctx context.Context, err error) error {
	switch {
	case isAuthFailure(err):
		return fmt.Errorf("%w: %v", ErrAuthentication, err)
	case isTimeout(err), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	default:
		return err
	}
}

func wrapContextError(ctx context.Context, command string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: command %q", ErrTimeout, command)
	}
	return fmt.Errorf("command %q: %w", command, ctx.Err())
}
