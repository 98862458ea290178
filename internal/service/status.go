package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/sshcollectorpro/consoleprov/internal/model"
	"github.com/sshcollectorpro/consoleprov/pkg/logger"
	"github.com/sshcollectorpro/consoleprov/pkg/serial"
)

// InterfaceSummary show ip interface brief 中的一个接口
type InterfaceSummary struct {
	Name     string
	Status   string
	Protocol string
}

// String name:status/protocol
func (s InterfaceSummary) String() string {
	return s.Name + ":" + s.Status + "/" + s.Protocol
}

// ParseInterfaceBrief 保留名称含指定前缀且至少 6 列的行；
// Status 可能由多个词组成（administratively down），协议为最后一列
func ParseInterfaceBrief(text string, prefixes []string) []InterfaceSummary {
	var out []InterfaceSummary
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 6 || !containsAny(line, prefixes) {
			continue
		}
		out = append(out, InterfaceSummary{
			Name:     fields[0],
			Status:   strings.Join(fields[4:len(fields)-1], " "),
			Protocol: fields[len(fields)-1],
		})
	}
	return out
}

// JoinInterfaces 以 "; " 连接接口摘要
func JoinInterfaces(items []InterfaceSummary) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, it.String())
	}
	return strings.Join(parts, "; ")
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// StatusSink 状态记录的落地位置
type StatusSink interface {
	Append(ctx context.Context, rec *model.StatusRecord) error
}

type statusRow struct {
	Serie      string `csv:"Serie"`
	Interfaces string `csv:"Interfaces"`
}

// CSVStatusSink 追加写入 CSV；文件不存在或为空时先写表头，从不截断
type CSVStatusSink struct {
	Path string
	mu   sync.Mutex
}

func (s *CSVStatusSink) Append(_ context.Context, rec *model.StatusRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create dir: %w", err)
		}
	}
	withHeader := true
	if fi, err := os.Stat(s.Path); err == nil && fi.Size() > 0 {
		withHeader = false
	}

	f, err := os.OpenFile(s.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open status csv: %w", err)
	}
	defer f.Close()

	rows := []*statusRow{{Serie: rec.Serial, Interfaces: rec.Interfaces}}
	if withHeader {
		err = gocsv.Marshal(rows, f)
	} else {
		err = gocsv.MarshalWithoutHeaders(rows, f)
	}
	if err != nil {
		return fmt.Errorf("write status csv: %w", err)
	}
	return nil
}

// ReadStatusCSV 读取状态 CSV 的全部行
func ReadStatusCSV(path string) ([]model.StatusRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows []*statusRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("parse status csv: %w", err)
	}
	out := make([]model.StatusRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.StatusRecord{Serial: r.Serie, Interfaces: r.Interfaces})
	}
	return out, nil
}

// StatusReport 一次状态采集的结果
type StatusReport struct {
	Record     model.StatusRecord
	Interfaces []InterfaceSummary
}

// StatusCollector 读取序列号与接口状态，追加到各个落地位置
type StatusCollector struct {
	opener    serial.Opener
	openOpts  serial.OpenOptions
	channel   Sender
	extractor *InventoryExtractor
	command   string
	settle    time.Duration
	prefixes  []string
	sinks     []StatusSink
}

// NewStatusCollector 创建状态采集器
func NewStatusCollector(opener serial.Opener, openOpts serial.OpenOptions, channel Sender, extractor *InventoryExtractor,
	command string, settle time.Duration, prefixes []string, sinks ...StatusSink) *StatusCollector {
	if command == "" {
		command = "show ip interface brief"
	}
	return &StatusCollector{
		opener:    opener,
		openOpts:  openOpts,
		channel:   channel,
		extractor: extractor,
		command:   command,
		settle:    settle,
		prefixes:  prefixes,
		sinks:     sinks,
	}
}

// Collect 打开串口采集一次；序列号读不到时记为 unknown 仍然落地
func (c *StatusCollector) Collect(ctx context.Context, port string) (StatusReport, error) {
	log := logger.WithField("port", port)
	sess, err := serial.Open(ctx, c.opener, port, c.openOpts)
	if err != nil {
		return StatusReport{}, err
	}
	defer sess.Close()

	id, err := c.extractor.Extract(ctx, c.channel, sess)
	if err != nil {
		return StatusReport{}, err
	}
	out, err := c.channel.Send(ctx, sess, c.command, c.settle)
	if err != nil {
		return StatusReport{}, fmt.Errorf("read interfaces: %w", err)
	}

	items := ParseInterfaceBrief(out, c.prefixes)
	rep := StatusReport{
		Record: model.StatusRecord{
			Port:       port,
			Serial:     id.Serial,
			Interfaces: JoinInterfaces(items),
		},
		Interfaces: items,
	}

	var errs []error
	for _, s := range c.sinks {
		if err := s.Append(ctx, &rep.Record); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return rep, err
	}
	log.Infof("Interface status saved: serial=%s interfaces=%d", id.Serial, len(items))
	return rep, nil
}
