package serial

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sshcollectorpro/consoleprov/internal/util"
)

// 轮询间隔；真实串口的 ReadAvailable 本身会阻塞一个读超时
const pollInterval = 20 * time.Millisecond

// Drainer 读取已到达的数据
type Drainer interface {
	ReadAvailable() ([]byte, error)
}

// CompletionStrategy 判断一条命令的响应何时结束
type CompletionStrategy interface {
	Name() string
	Await(ctx context.Context, r Drainer, settle time.Duration) ([]byte, error)
}

// NewCompletion 按名称创建策略：fixed | idle | prompt
func NewCompletion(name string, idle, maxWait time.Duration, suffixes []string) (CompletionStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "fixed", "":
		return FixedDelay{}, nil
	case "idle":
		return IdleTimeout{Idle: idle, MaxWait: maxWait}, nil
	case "prompt":
		return PromptMatch{Suffixes: suffixes, MaxWait: maxWait}, nil
	default:
		return nil, fmt.Errorf("unknown completion strategy %q", name)
	}
}

// FixedDelay 等待固定时长后读取已到达的数据
type FixedDelay struct{}

// Name 策略名
func (FixedDelay) Name() string { return "fixed" }

// Await 等待 settle 后排空一次
func (FixedDelay) Await(ctx context.Context, r Drainer, settle time.Duration) ([]byte, error) {
	if err := sleep(ctx, settle); err != nil {
		return nil, err
	}
	return r.ReadAvailable()
}

// IdleTimeout 收到数据后静默 Idle 即认为结束，总时长不超过 max(settle, MaxWait)
type IdleTimeout struct {
	Idle    time.Duration
	MaxWait time.Duration
}

// Name 策略名
func (IdleTimeout) Name() string { return "idle" }

// Await 持续读取直到静默或超时
func (s IdleTimeout) Await(ctx context.Context, r Drainer, settle time.Duration) ([]byte, error) {
	idle := s.Idle
	if idle <= 0 {
		idle = 500 * time.Millisecond
	}
	deadline := time.Now().Add(max(settle, s.MaxWait))

	var out []byte
	var lastData time.Time
	for {
		chunk, err := r.ReadAvailable()
		out = append(out, chunk...)
		if err != nil {
			return out, err
		}
		now := time.Now()
		if len(chunk) > 0 {
			lastData = now
		} else if len(out) > 0 && now.Sub(lastData) >= idle {
			return out, nil
		}
		if !now.Before(deadline) {
			return out, nil
		}
		if err := sleep(ctx, pollInterval); err != nil {
			return out, err
		}
	}
}

// PromptMatch 读取直到末行以提示符后缀结尾，总时长不超过 max(settle, MaxWait)
type PromptMatch struct {
	Suffixes []string
	MaxWait  time.Duration
}

// Name 策略名
func (PromptMatch) Name() string { return "prompt" }

// Await 持续读取直到出现提示符或超时
func (s PromptMatch) Await(ctx context.Context, r Drainer, settle time.Duration) ([]byte, error) {
	return s.await(ctx, r, "", settle)
}

// AwaitCommand 同 Await，但末行仍是命令回显（或其前缀）时不视为提示符
func (s PromptMatch) AwaitCommand(ctx context.Context, r Drainer, command string, settle time.Duration) ([]byte, error) {
	return s.await(ctx, r, SanitizeLine(command), settle)
}

func (s PromptMatch) await(ctx context.Context, r Drainer, echo string, settle time.Duration) ([]byte, error) {
	suffixes := s.Suffixes
	if len(suffixes) == 0 {
		suffixes = []string{"#", ">"}
	}
	deadline := time.Now().Add(max(settle, s.MaxWait))

	var out []byte
	for {
		chunk, err := r.ReadAvailable()
		out = append(out, chunk...)
		if err != nil {
			return out, err
		}
		if len(chunk) > 0 {
			text := util.DecodeConsole(out)
			if EndsWithPrompt(text, suffixes) && !strings.HasPrefix(echo, lastLine(text)) {
				return out, nil
			}
		}
		if !time.Now().Before(deadline) {
			return out, nil
		}
		if err := sleep(ctx, pollInterval); err != nil {
			return out, err
		}
	}
}

// CommandAwaiter 需要知道已发送命令才能识别回显的策略
type CommandAwaiter interface {
	AwaitCommand(ctx context.Context, r Drainer, command string, settle time.Duration) ([]byte, error)
}

func awaitResponse(ctx context.Context, s CompletionStrategy, r Drainer, command string, settle time.Duration) ([]byte, error) {
	if ca, ok := s.(CommandAwaiter); ok {
		return ca.AwaitCommand(ctx, r, command, settle)
	}
	return s.Await(ctx, r, settle)
}

// EndsWithPrompt 判断文本最后一行（未换行部分）是否为提示符
func EndsWithPrompt(text string, suffixes []string) bool {
	last := lastLine(text)
	if last == "" {
		return false
	}
	for _, suf := range suffixes {
		if suf != "" && strings.HasSuffix(last, suf) {
			return true
		}
	}
	return false
}

func lastLine(text string) string {
	idx := strings.LastIndexAny(text, "\r\n")
	return SanitizeLine(text[idx+1:])
}

// SanitizeLine 移除 ANSI 转义序列与不可见控制符，并去除首尾空白
func SanitizeLine(s string) string {
	b := make([]rune, 0, len(s))
	skip := false
	for _, ch := range s {
		if skip {
			// CSI 序列以字母结尾
			if (ch >= 'A' && ch <= 'Z') || (ch >= 'a' && ch <= 'z') {
				skip = false
			}
			continue
		}
		if ch == 0x1b {
			skip = true
			continue
		}
		if ch < 0x20 && ch != '\t' {
			continue
		}
		b = append(b, ch)
	}
	return strings.TrimSpace(string(b))
}
