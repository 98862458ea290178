package serial

import (
	"strings"
	"sync"
	"time"
)

// RedactMask 替换敏感内容使用的掩码
const RedactMask = "******"

// Exchange 一次命令与其响应
type Exchange struct {
	Command  string        `json:"command"`
	Response string        `json:"response"`
	Warning  string        `json:"warning,omitempty"`
	SentAt   time.Time     `json:"sent_at"`
	Duration time.Duration `json:"duration"`
}

// Transcript 会话内按顺序记录的命令/响应
type Transcript struct {
	Port string

	mu      sync.Mutex
	entries []Exchange
}

// NewTranscript 创建空记录
func NewTranscript(port string) *Transcript {
	return &Transcript{Port: port}
}

// Append 追加一条记录
func (t *Transcript) Append(e Exchange) {
	t.mu.Lock()
	t.entries = append(t.entries, e)
	t.mu.Unlock()
}

// Entries 返回记录副本
func (t *Transcript) Entries() []Exchange {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Exchange(nil), t.entries...)
}

// Len 记录条数
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// String 以控制台日志形式渲染
func (t *Transcript) String() string {
	var sb strings.Builder
	for _, e := range t.Entries() {
		sb.WriteString(e.SentAt.Format("2006-01-02 15:04:05.000"))
		sb.WriteString(" >>> ")
		sb.WriteString(e.Command)
		sb.WriteString("\n")
		if e.Warning != "" {
			sb.WriteString("!!! ")
			sb.WriteString(e.Warning)
			sb.WriteString("\n")
		}
		sb.WriteString(e.Response)
		if !strings.HasSuffix(e.Response, "\n") {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// Scrub 将 s 中出现的每个 secret 替换为掩码
func Scrub(s string, secrets []string) string {
	for _, sec := range secrets {
		if sec == "" {
			continue
		}
		s = strings.ReplaceAll(s, sec, RedactMask)
	}
	return s
}
