package local

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/sshcollectorpro/sysvers/internal/util"
)

// ErrUnsupported 当前操作系统不支持本地检测
var ErrUnsupported = errors.New("local version check not supported on this platform")

const osReleasePath = "/etc/os-release"

type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Version 返回运行本工具的机器的系统版本
func Version(ctx context.Context) (string, error) {
	return versionFor(ctx, runtime.GOOS, osReleasePath, runCommand)
}

func versionFor(ctx context.Context, goos, releasePath string, run runFunc) (string, error) {
	switch goos {
	case "linux":
		f, err := os.Open(releasePath)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", releasePath, err)
		}
		defer f.Close()
		return ParseOSRelease(f)
	case "darwin":
		out, err := run(ctx, "sw_vers", "-productVersion")
		if err != nil {
			return "", fmt.Errorf("sw_vers failed: %w", err)
		}
		return nonEmpty(string(out), "sw_vers")
	case "windows":
		out, err := run(ctx, "cmd", "/c", "ver")
		if err != nil {
			return "", fmt.Errorf("ver failed: %w", err)
		}
		return nonEmpty(util.EnsureUTF8Bytes(out), "ver")
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupported, goos)
	}
}

func nonEmpty(out, command string) (string, error) {
	v := strings.TrimSpace(util.StripANSI(out))
	if v == "" {
		return "", fmt.Errorf("%s returned no output", command)
	}
	return v, nil
}

// ParseOSRelease 从 os-release 内容中取 PRETTY_NAME，缺失时退回 NAME + VERSION
func ParseOSRelease(r io.Reader) (string, error) {
	fields := map[string]string{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		fields[key] = unquote(val)
	}
	if err := sc.Err(); err != nil {
		return "", err
	}

	if v := fields["PRETTY_NAME"]; v != "" {
		return v, nil
	}
	if name := fields["NAME"]; name != "" {
		return strings.TrimSpace(name + " " + fields["VERSION"]), nil
	}
	return "", errors.New("os-release has no PRETTY_NAME or NAME")
}

func unquote(v string) string {
	v = strings.TrimSpace(v)
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		v = v[1 : len(v)-1]
	}
	return strings.ReplaceAll(v, `\"`, `"`)
}
