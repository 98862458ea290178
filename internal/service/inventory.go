package service

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/sirikothe/gotextfsm"

	"github.com/sshcollectorpro/consoleprov/addone/inventory"
	"github.com/sshcollectorpro/consoleprov/internal/config"
	"github.com/sshcollectorpro/consoleprov/internal/model"
	"github.com/sshcollectorpro/consoleprov/pkg/logger"
	"github.com/sshcollectorpro/consoleprov/pkg/serial"
)

// Sender 命令通道能力；*serial.Channel 实现该接口
type Sender interface {
	Send(ctx context.Context, sess *serial.Session, command string, settle time.Duration) (string, error)
	Do(ctx context.Context, sess *serial.Session, req serial.Request) (string, error)
}

// ExtractedIdentity 从设备读出的身份
type ExtractedIdentity struct {
	Serial string
	Parser string
	Raw    string
}

// Known 是否读到有效序列号
func (id ExtractedIdentity) Known() bool {
	return id.Serial != "" && id.Serial != model.UnknownSerial
}

// SerialParser 从清单输出中取序列号；无法识别时返回 model.UnknownSerial，从不报错
type SerialParser interface {
	Name() string
	Parse(text string) string
}

// RegexSerialParser 标记 + 字母数字串，逐行匹配，第一处匹配生效
type RegexSerialParser struct {
	re *regexp.Regexp
}

// NewRegexSerialParser 编译序列号正则
func NewRegexSerialParser(pattern string) (*RegexSerialParser, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid serial pattern %q: %w", pattern, err)
	}
	return &RegexSerialParser{re: re}, nil
}

func (p *RegexSerialParser) Name() string { return "regex" }

// Parse 模式只作用于单行，\s 不会跨过行尾吞掉下一行
func (p *RegexSerialParser) Parse(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if sn := p.parseLine(strings.TrimRight(line, "\r")); sn != "" {
			return sn
		}
	}
	return model.UnknownSerial
}

func (p *RegexSerialParser) parseLine(line string) string {
	m := p.re.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	sn := m[0]
	if len(m) > 1 {
		sn = m[1]
	}
	return strings.TrimSpace(sn)
}

// TemplateSerialParser TextFSM 模板解析，取第一条 SN 非空的记录
type TemplateSerialParser struct {
	fsm    gotextfsm.TextFSM
	column string
}

// NewTemplateSerialParser 解析模板文本
func NewTemplateSerialParser(template string) (*TemplateSerialParser, error) {
	fsm := gotextfsm.TextFSM{}
	if err := fsm.ParseString(template); err != nil {
		return nil, fmt.Errorf("invalid inventory template: %w", err)
	}
	return &TemplateSerialParser{fsm: fsm, column: "SN"}, nil
}

func (p *TemplateSerialParser) Name() string { return "template" }

func (p *TemplateSerialParser) Parse(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	out := gotextfsm.ParserOutput{}
	if err := out.ParseTextString(text, p.fsm, true); err != nil {
		logger.Warnf("Inventory template parse failed: %v", err)
		return model.UnknownSerial
	}
	for _, row := range out.Dict {
		if sn := cellString(row[p.column]); sn != "" {
			return sn
		}
	}
	return model.UnknownSerial
}

func cellString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []string:
		for _, s := range t {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// InventoryExtractor 关闭分页后读取硬件清单并解析序列号
type InventoryExtractor struct {
	plugin inventory.Plugin
	parser SerialParser
	settle time.Duration
}

// NewInventoryExtractor 按配置选择平台插件与解析器
func NewInventoryExtractor(cfg config.InventoryConfig) (*InventoryExtractor, error) {
	plugin := inventory.Get(cfg.Platform)

	var parser SerialParser
	switch cfg.Parser {
	case "template":
		tmpl := plugin.Template()
		if cfg.TemplatePath != "" {
			b, err := os.ReadFile(cfg.TemplatePath)
			if err != nil {
				return nil, fmt.Errorf("failed to read inventory template: %w", err)
			}
			tmpl = string(b)
		}
		if strings.TrimSpace(tmpl) == "" {
			return nil, fmt.Errorf("platform %q provides no inventory template", plugin.Name())
		}
		p, err := NewTemplateSerialParser(tmpl)
		if err != nil {
			return nil, err
		}
		parser = p
	default:
		pattern := cfg.MarkerPattern
		if pattern == "" {
			pattern = plugin.SerialPattern()
		}
		p, err := NewRegexSerialParser(pattern)
		if err != nil {
			return nil, err
		}
		parser = p
	}

	settle := cfg.Settle
	if settle <= 0 {
		settle = 2 * time.Second
	}
	return &InventoryExtractor{plugin: plugin, parser: parser, settle: settle}, nil
}

// Parser 当前使用的解析器
func (e *InventoryExtractor) Parser() SerialParser { return e.parser }

// Extract 读取设备序列号。输出无法识别时返回 unknown；只有链路错误才返回 error。
func (e *InventoryExtractor) Extract(ctx context.Context, ch Sender, sess *serial.Session) (ExtractedIdentity, error) {
	id := ExtractedIdentity{Serial: model.UnknownSerial, Parser: e.parser.Name()}

	if cmd := e.plugin.PagingCommand(); cmd != "" {
		if _, err := ch.Send(ctx, sess, cmd, 0); err != nil {
			return id, fmt.Errorf("disable paging: %w", err)
		}
	}
	out, err := ch.Send(ctx, sess, e.plugin.InventoryCommand(), e.settle)
	if err != nil {
		return id, fmt.Errorf("read inventory: %w", err)
	}

	id.Raw = out
	id.Serial = e.parser.Parse(out)
	logger.WithField("port", sess.Name()).Infof("Serial number detected: %s (parser=%s)", id.Serial, id.Parser)
	return id, nil
}
