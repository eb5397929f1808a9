package simulate

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"golang.org/x/crypto/ssh"

	"github.com/sshcollectorpro/sysvers/internal/model"
	"github.com/sshcollectorpro/sysvers/pkg/logger"
)

// Config 模拟实验室配置
// 用户名选择设备，设备的 family 决定默认回显
type Config struct {
	Listen      string                  `mapstructure:"listen"`
	Password    string                  `mapstructure:"password"`
	HostKeyPath string                  `mapstructure:"host_key_path"`
	MaxConn     int                     `mapstructure:"max_conn"`
	Devices     map[string]DeviceConfig `mapstructure:"devices"`
}

// DeviceConfig 单台模拟设备
type DeviceConfig struct {
	Family  string            `mapstructure:"family"`
	Replies map[string]string `mapstructure:"replies"`
	// Delay 每条命令返回前的等待，用于模拟慢设备
	Delay time.Duration `mapstructure:"delay"`
}

// LoadConfig 读取模拟配置（命令里可能带 "."，换用 :: 作为键分隔符）
func LoadConfig(path string) (*Config, error) {
	v := viper.NewWithOptions(viper.KeyDelimiter("::"))
	v.SetConfigType("yaml")
	v.SetConfigFile(path)
	v.SetDefault("listen", "127.0.0.1:2222")
	v.SetDefault("password", "lab")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read simulate config: %w", err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal simulate config: %w", err)
	}
	return &cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.Password == "" {
		return errors.New("simulate password must not be empty")
	}
	for name, d := range c.Devices {
		f, err := model.ParseFamily(d.Family)
		if err != nil || !f.Valid() {
			return fmt.Errorf("device %s: %w: %q", name, model.ErrUnknownFamily, d.Family)
		}
	}
	return nil
}

// Server 模拟 SSH 设备；只支持 exec 请求
type Server struct {
	cfg      *Config
	devices  map[string]device
	listener net.Listener
	sshCfg   *ssh.ServerConfig

	mu     sync.Mutex
	active int
	wg     sync.WaitGroup
	done   chan struct{}
	once   sync.Once
}

type device struct {
	family  model.Family
	replies map[string]string
	delay   time.Duration
}

// Start 启动监听并在后台接受连接
func Start(cfg *Config) (*Server, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	signer, err := loadOrCreateHostKey(cfg.HostKeyPath)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:     cfg,
		devices: make(map[string]device, len(cfg.Devices)),
		done:    make(chan struct{}),
	}
	for name, d := range cfg.Devices {
		f, _ := model.ParseFamily(d.Family)
		s.devices[strings.ToLower(name)] = device{family: f, replies: d.Replies, delay: d.Delay}
	}

	s.sshCfg = &ssh.ServerConfig{
		PasswordCallback: func(meta ssh.ConnMetadata, password []byte) (*ssh.Permissions, error) {
			return s.authenticate(meta.User(), string(password))
		},
		KeyboardInteractiveCallback: func(meta ssh.ConnMetadata, challenge ssh.KeyboardInteractiveChallenge) (*ssh.Permissions, error) {
			answers, err := challenge(meta.User(), "", []string{"Password: "}, []bool{false})
			if err != nil {
				return nil, err
			}
			if len(answers) != 1 {
				return nil, errors.New("access denied")
			}
			return s.authenticate(meta.User(), answers[0])
		},
	}
	s.sshCfg.AddHostKey(signer)

	listen := cfg.Listen
	if listen == "" {
		listen = "127.0.0.1:2222"
	}
	ln, err := net.Listen("tcp", listen)
	if err != nil {
		return nil, err
	}
	s.listener = ln

	s.wg.Add(1)
	go s.acceptLoop()
	logger.WithFields(logrus.Fields{"addr": ln.Addr().String(), "devices": len(s.devices)}).Info("Simulated devices listening")
	return s, nil
}

// Addr 实际监听地址
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Stop 关闭监听并等待所有连接结束
func (s *Server) Stop() {
	s.once.Do(func() {
		close(s.done)
		_ = s.listener.Close()
	})
	s.wg.Wait()
}

func (s *Server) authenticate(user, password string) (*ssh.Permissions, error) {
	if _, ok := s.devices[strings.ToLower(user)]; !ok {
		logger.WithField("user", user).Debugf("Simulate: unknown device")
		return nil, errors.New("access denied")
	}
	if password != s.cfg.Password {
		logger.WithField("user", user).Debugf("Simulate: wrong password")
		return nil, errors.New("access denied")
	}
	return nil, nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				time.Sleep(200 * time.Millisecond)
				continue
			}
			return
		}

		s.mu.Lock()
		if s.cfg.MaxConn > 0 && s.active >= s.cfg.MaxConn {
			s.mu.Unlock()
			_ = conn.Close()
			logger.Warnf("Simulate: reject connection, max_conn %d exceeded", s.cfg.MaxConn)
			continue
		}
		s.active++
		s.mu.Unlock()

		s.wg.Add(1)
		go func(c net.Conn) {
			defer s.wg.Done()
			s.handleConn(c)
			s.mu.Lock()
			s.active--
			s.mu.Unlock()
		}(conn)
	}
}

func (s *Server) handleConn(nc net.Conn) {
	conn, chans, reqs, err := ssh.NewServerConn(nc, s.sshCfg)
	if err != nil {
		logger.WithField("remote", nc.RemoteAddr().String()).Debugf("Simulate: handshake failed: %v", err)
		_ = nc.Close()
		return
	}
	defer conn.Close()
	go ssh.DiscardRequests(reqs)

	finished := make(chan struct{})
	defer close(finished)
	go func() {
		select {
		case <-s.done:
			_ = conn.Close()
		case <-finished:
		}
	}()

	dev := s.devices[strings.ToLower(conn.User())]
	var sessions sync.WaitGroup
	for ch := range chans {
		if ch.ChannelType() != "session" {
			_ = ch.Reject(ssh.UnknownChannelType, "unknown channel type")
			continue
		}
		channel, requests, err := ch.Accept()
		if err != nil {
			continue
		}
		sessions.Add(1)
		go func() {
			defer sessions.Done()
			s.handleSession(conn.User(), dev, channel, requests)
		}()
	}
	sessions.Wait()
}

func (s *Server) handleSession(user string, dev device, channel ssh.Channel, requests <-chan *ssh.Request) {
	defer channel.Close()
	for req := range requests {
		if req.Type != "exec" {
			_ = req.Reply(false, nil)
			continue
		}
		var payload struct{ Command string }
		if err := ssh.Unmarshal(req.Payload, &payload); err != nil {
			_ = req.Reply(false, nil)
			continue
		}
		_ = req.Reply(true, nil)

		if dev.delay > 0 {
			select {
			case <-time.After(dev.delay):
			case <-s.done:
				return
			}
		}

		out, status := respond(dev.family, dev.replies, payload.Command)
		logger.WithFields(logrus.Fields{
			"device":  user,
			"command": payload.Command,
			"status":  status,
		}).Debug("Simulate: exec")
		_, _ = channel.Write([]byte(out))
		_, _ = channel.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{status}))
		return
	}
}

// loadOrCreateHostKey path 为空时使用临时密钥；否则读取或生成后持久化，保持客户端看到的指纹不变
func loadOrCreateHostKey(path string) (ssh.Signer, error) {
	if path != "" {
		if bs, err := os.ReadFile(path); err == nil {
			signer, err := ssh.ParsePrivateKey(bs)
			if err == nil {
				return signer, nil
			}
			logger.Warnf("Simulate: host key %s unreadable, regenerating: %v", path, err)
		}
	}

	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate host key: %w", err)
	}
	signer, err := ssh.NewSignerFromKey(key)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return signer, nil
	}

	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure host key dir: %w", err)
	}
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
	if err := os.WriteFile(path, pemBytes, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write host key: %w", err)
	}
	return signer, nil
}
