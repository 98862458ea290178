package serial

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sshcollectorpro/consoleprov/pkg/logger"
)

var (
	// ErrPortUnavailable 重试耗尽后仍无法打开串口
	ErrPortUnavailable = errors.New("serial port unavailable")
	// ErrSessionClosed 会话已关闭
	ErrSessionClosed = errors.New("serial session closed")
)

// 单次排空读取的上限，防止设备持续刷屏时无限读取
const maxDrainBytes = 1 << 20

// OpenOptions 打开串口的参数
type OpenOptions struct {
	BaudRate    int
	Retries     int
	RetryDelay  time.Duration
	Settle      time.Duration
	ReadTimeout time.Duration
}

// DefaultOpenOptions 9600 波特率，重试 3 次，间隔 3 秒，打开后等待 5 秒
func DefaultOpenOptions() OpenOptions {
	return OpenOptions{
		BaudRate:    9600,
		Retries:     3,
		RetryDelay:  3 * time.Second,
		Settle:      5 * time.Second,
		ReadTimeout: 100 * time.Millisecond,
	}
}

func (o OpenOptions) withDefaults() OpenOptions {
	def := DefaultOpenOptions()
	if o.BaudRate <= 0 {
		o.BaudRate = def.BaudRate
	}
	if o.Retries <= 0 {
		o.Retries = 1
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = def.ReadTimeout
	}
	if o.RetryDelay < 0 {
		o.RetryDelay = 0
	}
	if o.Settle < 0 {
		o.Settle = 0
	}
	return o
}

// Session 一条已打开的串口会话。同一时刻只由一个调用方使用。
type Session struct {
	name       string
	port       Port
	openedAt   time.Time
	transcript *Transcript

	mu     sync.Mutex
	closed bool
}

// Open 打开串口，失败时按 RetryDelay 间隔重试；成功后等待 Settle 让设备就绪。
// 重试与等待都会响应 ctx 取消。
func Open(ctx context.Context, opener Opener, name string, opts OpenOptions) (*Session, error) {
	opts = opts.withDefaults()
	log := logger.WithField("port", name)

	var lastErr error
	for attempt := 1; attempt <= opts.Retries; attempt++ {
		p, err := opener.Open(name, opts.BaudRate)
		if err == nil {
			if err := p.SetReadTimeout(opts.ReadTimeout); err != nil {
				_ = p.Close()
				return nil, fmt.Errorf("set read timeout on %s: %w", name, err)
			}
			log.Infof("Serial port opened (baud=%d, attempt %d/%d)", opts.BaudRate, attempt, opts.Retries)

			if err := sleep(ctx, opts.Settle); err != nil {
				_ = p.Close()
				return nil, err
			}
			return &Session{
				name:       name,
				port:       p,
				openedAt:   time.Now(),
				transcript: NewTranscript(name),
			}, nil
		}

		lastErr = err
		log.Warnf("Failed to open serial port (attempt %d/%d): %v", attempt, opts.Retries, err)
		if attempt < opts.Retries {
			if err := sleep(ctx, opts.RetryDelay); err != nil {
				return nil, err
			}
		}
	}

	return nil, fmt.Errorf("%w: %s after %d attempts: %v", ErrPortUnavailable, name, opts.Retries, lastErr)
}

// NewSession 用已打开的端口构造会话（跳过重试与等待）
func NewSession(name string, p Port) *Session {
	return &Session{name: name, port: p, openedAt: time.Now(), transcript: NewTranscript(name)}
}

// Name 串口名
func (s *Session) Name() string { return s.name }

// OpenedAt 打开时间
func (s *Session) OpenedAt() time.Time { return s.openedAt }

// Transcript 本会话的命令/响应记录
func (s *Session) Transcript() *Transcript { return s.transcript }

// Write 写入原始字节
func (s *Session) Write(b []byte) (int, error) {
	if s.isClosed() {
		return 0, ErrSessionClosed
	}
	n, err := s.port.Write(b)
	if err != nil {
		return n, fmt.Errorf("write %s: %w", s.name, err)
	}
	return n, nil
}

// Read 单次读取，受端口读超时约束；超时返回 0 字节
func (s *Session) Read(b []byte) (int, error) {
	if s.isClosed() {
		return 0, ErrSessionClosed
	}
	return s.port.Read(b)
}

// ReadAvailable 读取当前已到达的全部字节，直到一次读取返回 0 字节
func (s *Session) ReadAvailable() ([]byte, error) {
	if s.isClosed() {
		return nil, ErrSessionClosed
	}
	var out []byte
	buf := make([]byte, 4096)
	for len(out) < maxDrainBytes {
		n, err := s.port.Read(buf)
		if n > 0 {
			out = append(out, buf[:n]...)
		}
		if err != nil {
			return out, fmt.Errorf("read %s: %w", s.name, err)
		}
		if n == 0 {
			break
		}
	}
	return out, nil
}

// ResetBuffers 丢弃输入输出缓冲中的残留数据
func (s *Session) ResetBuffers() error {
	if s.isClosed() {
		return ErrSessionClosed
	}
	if err := s.port.ResetInputBuffer(); err != nil {
		return fmt.Errorf("reset input buffer %s: %w", s.name, err)
	}
	if err := s.port.ResetOutputBuffer(); err != nil {
		return fmt.Errorf("reset output buffer %s: %w", s.name, err)
	}
	return nil
}

// Close 关闭会话；重复调用为空操作
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	err := s.port.Close()
	logger.WithField("port", s.name).Info("Serial port closed")
	return err
}

// IsClosed 会话是否已关闭
func (s *Session) IsClosed() bool { return s.isClosed() }

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// sleep 可被 ctx 中断的等待
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
