package ssh

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/sshcollectorpro/sysvers/internal/util"
)

// DefaultConnectTimeout 未配置时的拨号+握手超时
const DefaultConnectTimeout = 30 * time.Second

// Config SSH配置
type Config struct {
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	// SessionRetries 打开会话通道失败时的重试次数，<=0 使用默认 3 次
	SessionRetries int `yaml:"session_retries"`
}

// Client SSH客户端：一条已认证连接，可在其上依次打开多个 exec 通道
type Client struct {
	config     *Config
	connection *ssh.Client
	mutex      sync.Mutex
}

// ConnectionInfo SSH连接信息
type ConnectionInfo struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"-"`
}

// NewClient 创建SSH客户端
func NewClient(config *Config) *Client {
	if config == nil {
		config = &Config{}
	}
	return &Client{config: config}
}

func (c *Client) connectTimeout() time.Duration {
	if c.config.ConnectTimeout > 0 {
		return c.config.ConnectTimeout
	}
	return DefaultConnectTimeout
}

// clientConfig 构建 x/crypto/ssh 客户端配置，保留旧设备常见的算法
func clientConfig(info *ConnectionInfo, timeout time.Duration) *ssh.ClientConfig {
	cfg := &ssh.ClientConfig{
		User:            info.Username,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
		Config: ssh.Config{
			KeyExchanges: []string{
				"curve25519-sha256",
				"curve25519-sha256@libssh.org",
				"ecdh-sha2-nistp256",
				"ecdh-sha2-nistp384",
				"ecdh-sha2-nistp521",
				"diffie-hellman-group14-sha256",
				"diffie-hellman-group14-sha1",
				"diffie-hellman-group1-sha1",
				"diffie-hellman-group-exchange-sha256",
				"diffie-hellman-group-exchange-sha1",
			},
			Ciphers: []string{
				"aes128-gcm@openssh.com",
				"aes256-gcm@openssh.com",
				"chacha20-poly1305@openssh.com",
				"aes128-ctr",
				"aes192-ctr",
				"aes256-ctr",
				"aes128-cbc",
				"aes192-cbc",
				"aes256-cbc",
				"3des-cbc",
			},
			MACs: []string{
				"hmac-sha2-256-etm@openssh.com",
				"hmac-sha2-256",
				"hmac-sha1",
				"hmac-sha1-96",
			},
		},
		HostKeyAlgorithms: []string{
			"ssh-ed25519",
			"rsa-sha2-256",
			"rsa-sha2-512",
			"ssh-rsa",
			"ecdsa-sha2-nistp256",
			"ecdsa-sha2-nistp384",
			"ecdsa-sha2-nistp521",
		},
	}

	// 同时尝试 password 与 keyboard-interactive，兼容网络设备
	cfg.Auth = []ssh.AuthMethod{
		ssh.Password(info.Password),
		ssh.KeyboardInteractive(func(user, instruction string, questions []string, echos []bool) ([]string, error) {
			answers := make([]string, len(questions))
			for i := range questions {
				answers[i] = info.Password
			}
			return answers, nil
		}),
	}
	return cfg
}

// Connect 连接SSH服务器（拨号与握手都受 ctx 与 ConnectTimeout 约束）
func (c *Client) Connect(ctx context.Context, info *ConnectionInfo) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.connection != nil {
		return nil
	}

	port := info.Port
	if port < 1 || port > 65535 {
		port = 22
	}
	address := net.JoinHostPort(info.Host, strconv.Itoa(port))
	timeout := c.connectTimeout()

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dialer := &net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(dialCtx, "tcp", address)
	if err != nil {
		return classifyDialError(dialCtx, fmt.Errorf("failed to dial %s: %w", address, err))
	}

	// 握手阶段没有 ctx 参数：用连接截止时间兜底，并在 ctx 取消时主动关闭
	deadline, _ := dialCtx.Deadline()
	_ = conn.SetDeadline(deadline)
	stop := context.AfterFunc(dialCtx, func() { _ = conn.Close() })

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, address, clientConfig(info, timeout))
	stopped := stop()
	if err != nil {
		conn.Close()
		return classifyDialError(dialCtx, fmt.Errorf("failed to create SSH connection to %s: %w", address, err))
	}
	if !stopped {
		sshConn.Close()
		return classifyDialError(dialCtx, fmt.Errorf("SSH handshake with %s interrupted: %w", address, dialCtx.Err()))
	}
	_ = conn.SetDeadline(time.Time{})

	c.connection = ssh.NewClient(sshConn, chans, reqs)
	return nil
}

// newSessionWithRetry 创建会话（带重试）
// 部分网络设备首次或快速连续打开会话通道会返回
// "administratively prohibited (open failed)"，短延迟后通常可以成功。
func (c *Client) newSessionWithRetry(ctx context.Context, conn *ssh.Client) (*ssh.Session, error) {
	backoffs := []time.Duration{0, 200 * time.Millisecond, 500 * time.Millisecond, time.Second}
	if n := c.config.SessionRetries; n > 0 && n < len(backoffs)-1 {
		backoffs = backoffs[:n+1]
	}

	var lastErr error
	for _, d := range backoffs {
		if d > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(d):
			}
		}
		sess, err := conn.NewSession()
		if err == nil {
			return sess, nil
		}
		lastErr = err
		// 连接已断开时重试无意义
		if errors.Is(err, net.ErrClosed) || strings.Contains(strings.ToLower(err.Error()), "eof") {
			break
		}
	}
	return nil, lastErr
}

// Run 在已建立的连接上打开新 exec 通道执行单条命令，返回 stdout+stderr 合并输出
func (c *Client) Run(ctx context.Context, command string) (string, error) {
	c.mutex.Lock()
	conn := c.connection
	c.mutex.Unlock()
	if conn == nil {
		return "", ErrNotConnected
	}

	session, err := c.newSessionWithRetry(ctx, conn)
	if err != nil {
		if ctx.Err() != nil {
			return "", wrapContextError(ctx, command)
		}
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	defer session.Close()

	type outcome struct {
		output []byte
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		out, err := session.CombinedOutput(command)
		done <- outcome{output: out, err: err}
	}()

	select {
	case o := <-done:
		output := util.StripANSI(util.EnsureUTF8Bytes(o.output))
		if o.err == nil {
			return output, nil
		}
		var exitErr *ssh.ExitError
		if errors.As(o.err, &exitErr) {
			return output, &ExitError{Command: command, Status: exitErr.ExitStatus(), Output: output}
		}
		// 网络设备 CLI 往往不回送退出码，视为命令已完成
		var missing *ssh.ExitMissingError
		if errors.As(o.err, &missing) {
			return output, nil
		}
		return output, fmt.Errorf("command %q failed: %w", command, o.err)
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGTERM)
		session.Close()
		return "", wrapContextError(ctx, command)
	}
}

// Close 关闭SSH连接
func (c *Client) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.connection != nil {
		err := c.connection.Close()
		c.connection = nil
		return err
	}
	return nil
}
