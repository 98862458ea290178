package service

import (
	"fmt"
	"time"

	"github.com/sshcollectorpro/consoleprov/internal/config"
	"github.com/sshcollectorpro/consoleprov/pkg/serial"
)

// Components 按配置组装好的服务对象
type Components struct {
	Opener       serial.Opener
	OpenOptions  serial.OpenOptions
	Channel      *serial.Channel
	Extractor    *InventoryExtractor
	Gate         *Gate
	Sequencer    *Sequencer
	Transcripts  TranscriptWriter
	Orchestrator *Orchestrator
}

// OpenOptionsFrom 串口配置转为打开参数
func OpenOptionsFrom(c config.SerialConfig) serial.OpenOptions {
	return serial.OpenOptions{
		BaudRate:    c.BaudRate,
		Retries:     c.Retries,
		RetryDelay:  c.RetryDelay,
		Settle:      c.OpenSettle,
		ReadTimeout: c.ReadTimeout,
	}
}

// NewChannelFrom 按通道配置创建命令通道
func NewChannelFrom(c config.ChannelConfig) (*serial.Channel, error) {
	completion, err := serial.NewCompletion(c.Completion, c.IdleWindow, c.MaxWait, c.PromptSuffixes)
	if err != nil {
		return nil, err
	}
	return serial.NewChannel(serial.ChannelOptions{
		LineTerminator: c.LineTerminator,
		Completion:     completion,
		DefaultSettle:  c.DefaultSettle,
		ErrorHints:     c.ErrorHints,
		EchoLines:      c.EchoLines,
	}), nil
}

// NewComponents 组装串口、通道、身份读取、校验、配方与会话记录
func NewComponents(cfg *config.Config, opener serial.Opener) (*Components, error) {
	ch, err := NewChannelFrom(cfg.Channel)
	if err != nil {
		return nil, fmt.Errorf("channel: %w", err)
	}
	extractor, err := NewInventoryExtractor(cfg.Inventory)
	if err != nil {
		return nil, fmt.Errorf("inventory: %w", err)
	}

	c := &Components{
		Opener:      opener,
		OpenOptions: OpenOptionsFrom(cfg.Serial),
		Channel:     ch,
		Extractor:   extractor,
		Gate:        NewGate(cfg.Gate.MatchPolicy),
		Sequencer:   NewSequencer(cfg.Recipe),
		Transcripts: NewTranscriptWriter(cfg),
	}
	c.Orchestrator = NewOrchestrator(c.Opener, c.OpenOptions, c.Channel, c.Extractor, c.Gate, c.Sequencer, c.Transcripts)
	return c, nil
}

// NewStatusCollectorFrom 使用组件与状态配置创建采集器
func (c *Components) NewStatusCollectorFrom(sc config.StatusConfig, sinks ...StatusSink) *StatusCollector {
	return NewStatusCollector(c.Opener, c.OpenOptions, c.Channel, c.Extractor, sc.Command, sc.Settle, sc.InterfacePrefixes, sinks...)
}

// NewManualSessionFrom 使用组件创建手工会话
func (c *Components) NewManualSessionFrom(settle time.Duration) *ManualSession {
	return NewManualSession(c.Opener, c.OpenOptions, c.Channel, settle)
}
