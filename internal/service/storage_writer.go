package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/sshcollectorpro/consoleprov/internal/config"
	"github.com/sshcollectorpro/consoleprov/pkg/logger"
)

const transcriptContentType = "text/plain; charset=utf-8"

// TranscriptWriter 会话记录写入器
type TranscriptWriter interface {
	Write(ctx context.Context, meta TranscriptMeta, content string) (StoredObject, error)
}

// TranscriptMeta 写入元数据
type TranscriptMeta struct {
	RunID     string
	Port      string
	Hostname  string
	StartedAt time.Time
}

// StoredObject 已写入对象的信息
type StoredObject struct {
	URI         string `json:"uri"`
	Size        int64  `json:"size"`
	Checksum    string `json:"checksum"`
	ContentType string `json:"content_type"`
}

// NewTranscriptWriter 根据配置创建写入器；未启用时返回 nil
func NewTranscriptWriter(cfg *config.Config) TranscriptWriter {
	tc := cfg.Storage.Transcripts
	if !tc.Enabled {
		return nil
	}
	dw := &DelegatingTranscriptWriter{
		backend: strings.ToLower(strings.TrimSpace(tc.Backend)),
		local:   &LocalTranscriptWriter{BaseDir: tc.BaseDir, Prefix: tc.Prefix},
	}
	if dw.backend == "minio" {
		dw.minio = initMinioWriter(cfg.Storage.Minio, tc.Prefix)
	}
	return dw
}

// DelegatingTranscriptWriter 按后端路由写入，MinIO 失败时回退本地
type DelegatingTranscriptWriter struct {
	backend string
	local   *LocalTranscriptWriter
	minio   *MinioTranscriptWriter
}

func (w *DelegatingTranscriptWriter) Write(ctx context.Context, meta TranscriptMeta, content string) (StoredObject, error) {
	if w.backend != "minio" {
		return w.local.Write(ctx, meta, content)
	}
	if w.minio == nil {
		logger.Warn("MinIO backend selected but client not initialized; falling back to local")
		obj, lerr := w.local.Write(ctx, meta, content)
		if lerr != nil {
			return StoredObject{}, fmt.Errorf("minio client not initialized; local fallback failed: %w", lerr)
		}
		// 返回本地对象并附带预警错误，便于上层记录但不中断流程
		return obj, fmt.Errorf("minio client not initialized; wrote to local instead")
	}
	obj, err := w.minio.Write(ctx, meta, content)
	if err != nil {
		logger.Warnf("MinIO write failed; falling back to local: %v", err)
		objLocal, lerr := w.local.Write(ctx, meta, content)
		if lerr != nil {
			return StoredObject{}, fmt.Errorf("minio write failed: %v; local fallback failed: %w", err, lerr)
		}
		return objLocal, fmt.Errorf("minio write failed: %w; fell back to local successfully", err)
	}
	return obj, nil
}

// LocalTranscriptWriter 本地文件写入
type LocalTranscriptWriter struct {
	BaseDir string
	Prefix  string
}

func (w *LocalTranscriptWriter) Write(_ context.Context, meta TranscriptMeta, content string) (StoredObject, error) {
	baseDir := strings.TrimSpace(w.BaseDir)
	if baseDir == "" {
		baseDir = "./data/transcripts"
	}
	parts := append([]string{baseDir}, objectDir(w.Prefix, meta)...)
	dirPath := filepath.Join(parts...)
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		return StoredObject{}, fmt.Errorf("failed to create dir: %w", err)
	}

	fullPath := filepath.Join(dirPath, objectFile(meta))
	data := []byte(content)
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return StoredObject{}, fmt.Errorf("failed to write file: %w", err)
	}
	return storedObject("file://"+fullPath, data), nil
}

// MinioTranscriptWriter MinIO 对象存储写入
type MinioTranscriptWriter struct {
	client        *minio.Client
	endpoint      string
	bucket        string
	prefix        string
	bucketEnsured bool
}

// initMinioWriter 初始化 MinIO 写入器（包含超时设置与 bucket 校验）
func initMinioWriter(mc config.MinioConfig, prefix string) *MinioTranscriptWriter {
	host := strings.TrimSpace(mc.Host)
	if host == "" || mc.Port <= 0 {
		logger.Warn("MinIO configuration incomplete; host/port missing")
		return nil
	}
	endpoint := fmt.Sprintf("%s:%d", host, mc.Port)

	transport := &http.Transport{
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 5 * time.Second,
		IdleConnTimeout:       90 * time.Second,
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(mc.AccessKey, mc.SecretKey, ""),
		Secure:    mc.Secure,
		Transport: transport,
	})
	if err != nil {
		logger.Errorf("MinIO client initialization failed: %v", err)
		return nil
	}

	w := &MinioTranscriptWriter{client: client, endpoint: endpoint, bucket: strings.TrimSpace(mc.Bucket), prefix: prefix}
	if w.bucket == "" {
		logger.Warn("MinIO bucket not configured")
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := w.ensureBucket(ctx, 1); err != nil {
		logger.Warnf("MinIO bucket ensure at init failed: %v", err)
	} else {
		w.bucketEnsured = true
	}
	return w
}

// Write 将会话记录写入 MinIO
func (w *MinioTranscriptWriter) Write(ctx context.Context, meta TranscriptMeta, content string) (StoredObject, error) {
	if w == nil || w.client == nil {
		return StoredObject{}, fmt.Errorf("minio client not initialized")
	}
	objectName := path.Join(append(objectDir(w.prefix, meta), objectFile(meta))...)
	data := []byte(content)

	if err := w.fastConnectivityCheck(ctx); err != nil {
		return StoredObject{}, fmt.Errorf("minio connectivity failed to %s: %w", w.endpoint, err)
	}
	if !w.bucketEnsured {
		if err := w.ensureBucket(ctx, 2); err != nil {
			return StoredObject{}, fmt.Errorf("minio ensure bucket failed: %w", err)
		}
		w.bucketEnsured = true
	}

	var lastErr error
	for _, wait := range []time.Duration{time.Second, 2 * time.Second, 4 * time.Second} {
		attemptCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		_, err := w.client.PutObject(attemptCtx, w.bucket, objectName, bytes.NewReader(data), int64(len(data)),
			minio.PutObjectOptions{ContentType: transcriptContentType})
		cancel()
		if err == nil {
			lastErr = nil
			break
		}
		lastErr = err
		time.Sleep(wait)
	}
	if lastErr != nil {
		return StoredObject{}, fmt.Errorf("minio put object failed after retries: %w", lastErr)
	}
	return storedObject("minio://"+path.Join(w.bucket, objectName), data), nil
}

// fastConnectivityCheck 使用 TCP 直连做快速连通性校验
func (w *MinioTranscriptWriter) fastConnectivityCheck(parent context.Context) error {
	d := &net.Dialer{Timeout: 3 * time.Second}
	conn, err := d.DialContext(parent, "tcp", w.endpoint)
	if err != nil {
		return err
	}
	_ = conn.Close()
	return nil
}

// ensureBucket 校验并创建 bucket，支持有限重试
func (w *MinioTranscriptWriter) ensureBucket(parent context.Context, retries int) error {
	var lastErr error
	for i := 0; i <= retries; i++ {
		ctx, cancel := context.WithTimeout(parent, 10*time.Second)
		exists, err := w.client.BucketExists(ctx, w.bucket)
		if err == nil && !exists {
			err = w.client.MakeBucket(ctx, w.bucket, minio.MakeBucketOptions{})
		}
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		time.Sleep(time.Duration(i+1) * time.Second)
	}
	return lastErr
}

// objectDir 层级：prefix / 日期 / 运行ID
func objectDir(prefix string, meta TranscriptMeta) []string {
	var parts []string
	if p := strings.TrimSpace(prefix); p != "" {
		parts = append(parts, p)
	}
	started := meta.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	parts = append(parts, started.Format("20060102"))
	run := strings.TrimSpace(meta.RunID)
	if run == "" {
		run = "adhoc"
	}
	return append(parts, slug(run))
}

// objectFile 文件名：主机名_串口_时分秒.log
func objectFile(meta TranscriptMeta) string {
	started := meta.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	return fmt.Sprintf("%s_%s_%s.log", slug(meta.Hostname), slug(meta.Port), started.Format("150405"))
}

func storedObject(uri string, data []byte) StoredObject {
	sum := sha256.Sum256(data)
	return StoredObject{
		URI:         uri,
		Size:        int64(len(data)),
		Checksum:    "sha256:" + hex.EncodeToString(sum[:]),
		ContentType: transcriptContentType,
	}
}

var slugRe = regexp.MustCompile(`[^a-z0-9._-]+`)

func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.Trim(slugRe.ReplaceAllString(s, ""), "_")
	if s == "" {
		s = "unknown"
	}
	return s
}
