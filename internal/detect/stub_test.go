package detect

import (
	"context"
	"fmt"
	"sync"

	"github.com/sshcollectorpro/sysvers/internal/model"
	"github.com/sshcollectorpro/sysvers/pkg/ssh"
)

// stubTransport 记录拨号/执行/关闭次数的假传输
type stubTransport struct {
	mu      sync.Mutex
	dial    func(host string) error
	respond func(host, command string) (string, error)

	dials  int
	closes int
	runs   []string
	params []model.ConnectionParams
}

func (s *stubTransport) Dial(ctx context.Context, p model.ConnectionParams) (Conn, error) {
	s.mu.Lock()
	s.dials++
	s.params = append(s.params, p)
	s.mu.Unlock()
	if s.dial != nil {
		if err := s.dial(p.Host); err != nil {
			return nil, err
		}
	}
	return &stubConn{t: s, host: p.Host}, nil
}

func (s *stubTransport) ranCommands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.runs))
	copy(out, s.runs)
	return out
}

type stubConn struct {
	t    *stubTransport
	host string
}

func (c *stubConn) Run(ctx context.Context, command string) (string, error) {
	c.t.mu.Lock()
	c.t.runs = append(c.t.runs, command)
	c.t.mu.Unlock()
	if c.t.respond == nil {
		return "", nil
	}
	return c.t.respond(c.host, command)
}

func (c *stubConn) Close() error {
	c.t.mu.Lock()
	c.t.closes++
	c.t.mu.Unlock()
	return nil
}

// 常用回应
func notFound(command string) (string, error) {
	out := fmt.Sprintf("sh: %s: command not found", command)
	return out, &ssh.ExitError{Command: command, Status: 127, Output: out}
}

func timeoutErr(command string) (string, error) {
	return "", fmt.Errorf("%w: command %q", ssh.ErrTimeout, command)
}

func authErr() error {
	return fmt.Errorf("%w: ssh: unable to authenticate, attempted methods [none password]", ssh.ErrAuthentication)
}

// table 以 命令 -> 回应 构造 respond；未列出的命令视为 command not found
func table(replies map[string]string) func(host, command string) (string, error) {
	return func(_ string, command string) (string, error) {
		if out, ok := replies[command]; ok {
			return out, nil
		}
		return notFound(command)
	}
}
