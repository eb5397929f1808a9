package model

import (
	"net"
	"strconv"
	"time"
)

// DefaultSSHPort 默认 SSH 端口
const DefaultSSHPort = 22

// ConnectionParams 一次探测的连接参数，由调用方持有，引擎只读
type ConnectionParams struct {
	Host           string        `json:"host"`
	Port           int           `json:"port"`
	Username       string        `json:"username"`
	Password       string        `json:"-"`
	CommandTimeout time.Duration `json:"command_timeout"`
	ConnectTimeout time.Duration `json:"connect_timeout"`
}

// Address 返回 host:port，端口非法时回落到 22
func (p ConnectionParams) Address() string {
	return net.JoinHostPort(p.Host, strconv.Itoa(p.EffectivePort()))
}

// EffectivePort 实际使用的端口
func (p ConnectionParams) EffectivePort() int {
	if p.Port < 1 || p.Port > 65535 {
		return DefaultSSHPort
	}
	return p.Port
}

// WithHost 返回替换主机后的副本
func (p ConnectionParams) WithHost(host string) ConnectionParams {
	p.Host = host
	return p
}

// CapTimeouts 返回超时不超过 limit 的副本；未设置的超时直接取 limit
func (p ConnectionParams) CapTimeouts(limit time.Duration) ConnectionParams {
	if limit <= 0 {
		return p
	}
	if p.ConnectTimeout <= 0 || p.ConnectTimeout > limit {
		p.ConnectTimeout = limit
	}
	if p.CommandTimeout <= 0 || p.CommandTimeout > limit {
		p.CommandTimeout = limit
	}
	return p
}
