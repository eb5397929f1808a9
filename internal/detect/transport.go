package detect

import (
	"context"
	"errors"
	"net"

	"github.com/sshcollectorpro/sysvers/internal/model"
	"github.com/sshcollectorpro/sysvers/pkg/ssh"
)

// Conn 一条已认证的远程 shell 连接
type Conn interface {
	// Run 执行单条命令，返回合并后的 stdout+stderr
	Run(ctx context.Context, command string) (string, error)
	Close() error
}

// Transport 建立已认证连接
type Transport interface {
	Dial(ctx context.Context, params model.ConnectionParams) (Conn, error)
}

// SSHTransport 基于 pkg/ssh 的传输实现
type SSHTransport struct {
	SessionRetries int
}

// Dial 建立 SSH 连接；超时取 params.ConnectTimeout
func (t SSHTransport) Dial(ctx context.Context, params model.ConnectionParams) (Conn, error) {
	client := ssh.NewClient(&ssh.Config{
		ConnectTimeout: params.ConnectTimeout,
		SessionRetries: t.SessionRetries,
	})
	err := client.Connect(ctx, &ssh.ConnectionInfo{
		Host:     params.Host,
		Port:     params.EffectivePort(),
		Username: params.Username,
		Password: params.Password,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Classify 将传输层错误映射为结果分类；nil 错误不在此处理
func Classify(err error) model.Classification {
	var exitErr *ssh.ExitError
	var netErr net.Error
	switch {
	case errors.Is(err, ssh.ErrAuthentication):
		return model.AuthenticationFailure
	case errors.Is(err, ssh.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return model.Timeout
	case errors.As(err, &netErr) && netErr.Timeout():
		return model.Timeout
	case errors.As(err, &exitErr):
		return model.EmptyOrInvalid
	default:
		return model.TransportError
	}
}
