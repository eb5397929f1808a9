package report

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/sshcollectorpro/sysvers/internal/config"
	"github.com/sshcollectorpro/sysvers/pkg/logger"
)

const contentTypeJSON = "application/json"

// Writer 报告存储
type Writer interface {
	// Write 写入 name（POSIX 风格相对路径），返回存储位置
	Write(ctx context.Context, name string, data []byte) (string, error)
}

// NewWriter 根据配置创建写入器；minio 不可用时回落到本地
func NewWriter(cfg config.ReportConfig) Writer {
	dir := strings.TrimSpace(cfg.Local.Dir)
	if dir == "" {
		dir = "./data/reports"
	}
	w := &DelegatingWriter{local: &LocalWriter{Dir: dir, Prefix: cfg.Prefix}}
	if strings.EqualFold(strings.TrimSpace(cfg.Backend), "minio") {
		mw, err := NewMinioWriter(cfg.Minio, cfg.Prefix)
		if err != nil {
			logger.Warnf("MinIO report backend unavailable, using local: %v", err)
		} else {
			w.minio = mw
		}
	}
	return w
}

// DelegatingWriter 优先写 MinIO，失败时写本地
type DelegatingWriter struct {
	local *LocalWriter
	minio *MinioWriter
}

func (w *DelegatingWriter) Write(ctx context.Context, name string, data []byte) (string, error) {
	if w.minio == nil {
		return w.local.Write(ctx, name, data)
	}
	loc, err := w.minio.Write(ctx, name, data)
	if err == nil {
		return loc, nil
	}
	logger.WithField("error", err).Warn("MinIO write failed; falling back to local")
	loc, lerr := w.local.Write(ctx, name, data)
	if lerr != nil {
		return "", fmt.Errorf("minio write failed: %v; local fallback failed: %w", err, lerr)
	}
	return loc, nil
}

// LocalWriter 写入本地目录
type LocalWriter struct {
	Dir    string
	Prefix string
}

func (w *LocalWriter) Write(_ context.Context, name string, data []byte) (string, error) {
	rel, err := cleanName(name)
	if err != nil {
		return "", err
	}
	parts := []string{w.Dir}
	if p := strings.TrimSpace(w.Prefix); p != "" {
		parts = append(parts, p)
	}
	parts = append(parts, filepath.FromSlash(rel))
	full := filepath.Join(parts...)

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("failed to create dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return "file://" + full, nil
}

// MinioWriter 写入 MinIO，bucket 不存在时自动创建
type MinioWriter struct {
	client   *minio.Client
	endpoint string
	bucket   string
	prefix   string

	mu            sync.Mutex
	bucketEnsured bool
}

// NewMinioWriter 创建 MinIO 写入器（不做网络访问）
func NewMinioWriter(cfg config.MinioConfig, prefix string) (*MinioWriter, error) {
	host := strings.TrimSpace(cfg.Host)
	if host == "" || cfg.Port <= 0 {
		return nil, fmt.Errorf("minio host/port not configured")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("minio bucket not configured")
	}
	endpoint := net.JoinHostPort(host, fmt.Sprint(cfg.Port))

	transport := &http.Transport{
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		IdleConnTimeout:       90 * time.Second,
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.Secure,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client initialization failed: %w", err)
	}
	return &MinioWriter{client: client, endpoint: endpoint, bucket: bucket, prefix: strings.Trim(prefix, "/")}, nil
}

func (w *MinioWriter) Write(ctx context.Context, name string, data []byte) (string, error) {
	rel, err := cleanName(name)
	if err != nil {
		return "", err
	}
	object := rel
	if w.prefix != "" {
		object = path.Join(w.prefix, rel)
	}

	// 写入前快速连通性探测，尽早失败以便回落
	d := &net.Dialer{Timeout: 3 * time.Second}
	conn, err := d.DialContext(ctx, "tcp", w.endpoint)
	if err != nil {
		return "", fmt.Errorf("minio connectivity failed to %s: %w", w.endpoint, err)
	}
	_ = conn.Close()

	if err := w.ensureBucket(ctx); err != nil {
		return "", fmt.Errorf("minio ensure bucket failed: %w", err)
	}

	var lastErr error
	backoff := []time.Duration{time.Second, 2 * time.Second, 0}
	for _, wait := range backoff {
		attemptCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		_, lastErr = w.client.PutObject(attemptCtx, w.bucket, object, bytes.NewReader(data), int64(len(data)),
			minio.PutObjectOptions{ContentType: contentTypeJSON})
		cancel()
		if lastErr == nil {
			return "minio://" + path.Join(w.bucket, object), nil
		}
		if wait > 0 {
			time.Sleep(wait)
		}
	}
	return "", fmt.Errorf("minio put object failed after retries: %w", lastErr)
}

func (w *MinioWriter) ensureBucket(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.bucketEnsured {
		return nil
	}
	exists, err := w.client.BucketExists(ctx, w.bucket)
	if err != nil {
		return err
	}
	if !exists {
		if err := w.client.MakeBucket(ctx, w.bucket, minio.MakeBucketOptions{}); err != nil {
			return err
		}
	}
	w.bucketEnsured = true
	return nil
}

// cleanName 规范化存储名，拒绝越出根目录
func cleanName(name string) (string, error) {
	rel := path.Clean("/" + strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" || rel == "." {
		return "", fmt.Errorf("invalid report name %q", name)
	}
	return rel, nil
}
