package serial

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sshcollectorpro/consoleprov/internal/util"
	"github.com/sshcollectorpro/consoleprov/pkg/logger"
)

// ChannelOptions 命令通道参数
type ChannelOptions struct {
	LineTerminator string
	Completion     CompletionStrategy
	DefaultSettle  time.Duration
	ErrorHints     []string
	EchoLines      int
}

// Request 一次发送请求。Redact 中的字符串在记录与日志中被掩码替换。
type Request struct {
	Command string
	Settle  time.Duration
	Redact  []string
}

// Channel 在会话之上实现“一条命令，一次响应”
type Channel struct {
	opts ChannelOptions
}

// NewChannel 创建命令通道
func NewChannel(opts ChannelOptions) *Channel {
	if opts.LineTerminator == "" {
		opts.LineTerminator = "\r\n"
	}
	if opts.Completion == nil {
		opts.Completion = FixedDelay{}
	}
	if opts.DefaultSettle <= 0 {
		opts.DefaultSettle = time.Second
	}
	if opts.EchoLines <= 0 {
		opts.EchoLines = 5
	}
	return &Channel{opts: opts}
}

// Completion 当前使用的结束判定策略
func (c *Channel) Completion() CompletionStrategy { return c.opts.Completion }

// Send 发送一条命令并返回其响应；settle<=0 时使用默认等待
func (c *Channel) Send(ctx context.Context, sess *Session, command string, settle time.Duration) (string, error) {
	return c.Do(ctx, sess, Request{Command: command, Settle: settle})
}

// Do 清空残留缓冲、写入命令与行结束符、等待响应结束并宽松解码
func (c *Channel) Do(ctx context.Context, sess *Session, req Request) (string, error) {
	settle := req.Settle
	if settle <= 0 {
		settle = c.opts.DefaultSettle
	}
	shown := Scrub(req.Command, req.Redact)
	log := logger.WithField("port", sess.Name())

	if err := sess.ResetBuffers(); err != nil {
		return "", err
	}
	start := time.Now()
	if _, err := sess.Write([]byte(req.Command + c.opts.LineTerminator)); err != nil {
		return "", fmt.Errorf("send %q: %w", shown, err)
	}

	raw, err := awaitResponse(ctx, c.opts.Completion, sess, req.Command, settle)
	if err != nil {
		return "", fmt.Errorf("await response to %q: %w", shown, err)
	}
	response := util.DecodeConsole(raw)

	entry := Exchange{
		Command:  shown,
		Response: Scrub(response, req.Redact),
		SentAt:   start,
		Duration: time.Since(start),
	}
	if hint := c.matchErrorHint(response); hint != "" {
		entry.Warning = hint
		log.Warnf("Device rejected command %q: %s", shown, hint)
	}
	sess.Transcript().Append(entry)

	logger.DebugCommandOutput(sess.Name(), shown, entry.Response, c.opts.EchoLines)
	return response, nil
}

func (c *Channel) matchErrorHint(response string) string {
	for _, h := range c.opts.ErrorHints {
		if h != "" && strings.Contains(response, h) {
			return h
		}
	}
	return ""
}
