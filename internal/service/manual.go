package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/sshcollectorpro/consoleprov/pkg/logger"
	"github.com/sshcollectorpro/consoleprov/pkg/serial"
)

// CommandSource 操作员输入的命令；返回 io.EOF 表示输入结束
type CommandSource interface {
	NextCommand(ctx context.Context) (string, error)
}

// ManualSession 手工命令模式：逐条发送操作员命令并回显响应
type ManualSession struct {
	opener   serial.Opener
	openOpts serial.OpenOptions
	channel  Sender
	settle   time.Duration
}

// NewManualSession 创建手工会话
func NewManualSession(opener serial.Opener, openOpts serial.OpenOptions, channel Sender, settle time.Duration) *ManualSession {
	if settle <= 0 {
		settle = 2 * time.Second
	}
	return &ManualSession{opener: opener, openOpts: openOpts, channel: channel, settle: settle}
}

// Run 输入 exit 或输入结束时退出；会话总会被关闭
func (m *ManualSession) Run(ctx context.Context, port string, in CommandSource, show func(command, response string)) (int, error) {
	sess, err := serial.Open(ctx, m.opener, port, m.openOpts)
	if err != nil {
		return 0, err
	}
	defer sess.Close()

	sent := 0
	for {
		cmd, err := in.NextCommand(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return sent, err
		}
		cmd = strings.TrimSpace(cmd)
		if strings.EqualFold(cmd, "exit") {
			break
		}
		if cmd == "" {
			continue
		}
		resp, err := m.channel.Send(ctx, sess, cmd, m.settle)
		if err != nil {
			return sent, err
		}
		sent++
		show(cmd, resp)
	}
	logger.WithField("port", port).Infof("Manual session finished (%d commands)", sent)
	return sent, nil
}
