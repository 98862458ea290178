package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/sshcollectorpro/consoleprov/internal/model"
	"github.com/sshcollectorpro/consoleprov/internal/service"
	"github.com/sshcollectorpro/consoleprov/pkg/logger"
)

// ErrOperatorQuit 操作员输入 q 中止
var ErrOperatorQuit = errors.New("operator quit")

// PortLister 列出当前可用串口
type PortLister interface {
	List() ([]string, error)
}

type lineResult struct {
	line string
}

// Console 基于标准输入输出的操作员界面
type Console struct {
	out         io.Writer
	ports       PortLister
	interactive bool
	width       int

	reader  *bufio.Reader
	once    sync.Once
	lines   chan lineResult
	readErr error

	title lipgloss.Style
	ok    lipgloss.Style
	warn  lipgloss.Style
	dim   lipgloss.Style
}

// New 创建控制台；ports 可为 nil
func New(in io.Reader, out io.Writer, ports PortLister) *Console {
	r := lipgloss.NewRenderer(out)
	c := &Console{
		out:    out,
		ports:  ports,
		width:  60,
		reader: bufio.NewReader(in),
		lines:  make(chan lineResult),
		title:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		ok:     r.NewStyle().Foreground(lipgloss.Color("10")),
		warn:   r.NewStyle().Foreground(lipgloss.Color("11")),
		dim:    r.NewStyle().Faint(true),
	}
	if f, isFile := out.(*os.File); isFile && term.IsTerminal(int(f.Fd())) {
		c.interactive = true
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 20 {
			c.width = min(w, 100)
		}
	}
	return c
}

// Stdio 使用进程的标准输入输出
func Stdio(ports PortLister) *Console {
	return New(os.Stdin, os.Stdout, ports)
}

func (c *Console) printf(format string, args ...interface{}) {
	fmt.Fprintf(c.out, format, args...)
}

// Clear 终端下清屏
func (c *Console) Clear() {
	if c.interactive {
		c.printf("\033[H\033[2J")
	}
}

// Banner 标题栏
func (c *Console) Banner(title string) {
	c.printf("%s\n%s\n", c.title.Render(title), c.dim.Render(strings.Repeat("=", c.width)))
}

// ReadLine 读取一行输入；ctx 结束时立即返回。输入结束后每次调用都返回同一个错误
func (c *Console) ReadLine(ctx context.Context) (string, error) {
	c.once.Do(func() {
		go func() {
			defer close(c.lines)
			for {
				line, err := c.reader.ReadString('\n')
				if line != "" || err == nil {
					c.lines <- lineResult{line: strings.TrimRight(line, "\r\n")}
				}
				if err != nil {
					// close 之前写入，读端在通道关闭后可见
					c.readErr = err
					return
				}
			}
		}()
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r, ok := <-c.lines:
		if !ok {
			return "", c.readErr
		}
		return r.line, nil
	}
}

// Prompt 打印提示并读取一行
func (c *Console) Prompt(ctx context.Context, label string) (string, error) {
	c.printf("%s", label)
	line, err := c.ReadLine(ctx)
	if err != nil {
		c.printf("\n")
	}
	return strings.TrimSpace(line), err
}

// Menu 主菜单
func (c *Console) Menu(ctx context.Context) (string, error) {
	c.Clear()
	c.Banner("Console Provisioner")
	c.printf("  1) 手工命令\n  2) 批量配置\n  3) 接口状态采集\n  0) 退出\n")
	return c.Prompt(ctx, "请选择: ")
}

// ShowPorts 打印当前串口列表
func (c *Console) ShowPorts() []string {
	if c.ports == nil {
		return nil
	}
	ports, err := c.ports.List()
	if err != nil {
		logger.Warnf("List serial ports failed: %v", err)
		c.printf("%s\n", c.warn.Render("无法列出串口: "+err.Error()))
		return nil
	}
	if len(ports) == 0 {
		c.printf("%s\n", c.warn.Render("未发现串口"))
		return nil
	}
	c.printf("可用串口:\n")
	for i, p := range ports {
		c.printf("  [%d] %s\n", i+1, p)
	}
	return ports
}

// ChoosePort 列出串口并让操作员选择，可输入序号或端口名
func (c *Console) ChoosePort(ctx context.Context) (string, error) {
	ports := c.ShowPorts()
	ans, err := c.Prompt(ctx, "串口: ")
	if err != nil {
		return "", err
	}
	if ans == "" {
		return "", ErrOperatorQuit
	}
	if idx, convErr := strconv.Atoi(ans); convErr == nil && idx >= 1 && idx <= len(ports) {
		return ports[idx-1], nil
	}
	return ans, nil
}

func (c *Console) waitEnter(ctx context.Context, label string) error {
	ans, err := c.Prompt(ctx, label)
	if err != nil {
		return err
	}
	if strings.EqualFold(ans, "q") {
		return ErrOperatorQuit
	}
	return nil
}

// ConfirmConnect 提示操作员接好控制台线
func (c *Console) ConfirmConnect(ctx context.Context, rec model.DeviceRecord, seq, total int) error {
	c.Clear()
	c.Banner(fmt.Sprintf("设备 %d/%d: %s", seq, total, rec.Hostname))
	c.printf("序列号: %s\n串口:   %s\n", rec.Serial, rec.Port)
	c.ShowPorts()
	return c.waitEnter(ctx, fmt.Sprintf("请将控制台线接到 %s 后按回车（q 中止）: ", rec.Port))
}

// ReportOutcome 打印单台设备结果
func (c *Console) ReportOutcome(o model.Outcome) {
	label := o.Status.Label()
	if o.Status.IsConfigured() {
		label = c.ok.Render(label)
	} else {
		label = c.warn.Render(label)
	}
	c.printf("%s  %s  (%d 条命令, %s)\n", o.Record.Hostname, label, o.CommandsSent, o.Duration().Round(time.Millisecond))
	if o.Reason != "" {
		c.printf("  %s\n", c.dim.Render(o.Reason))
	}
	if o.TranscriptURI != "" {
		c.printf("  记录: %s\n", o.TranscriptURI)
	}
}

// Acknowledge 等待操作员确认后继续下一台
func (c *Console) Acknowledge(ctx context.Context) error {
	return c.waitEnter(ctx, "按回车继续下一台（q 中止）: ")
}

// Summary 批量结束汇总
func (c *Console) Summary(res service.BatchResult) {
	c.Banner(fmt.Sprintf("完成 %d 台: 已配置 %d, 跳过 %d", res.Total(), len(res.Configured), len(res.Skipped)))
	for _, r := range res.Configured {
		c.printf("  %s %s (%s)\n", c.ok.Render("+"), r.Hostname, r.Port)
	}
	for _, o := range res.Outcomes {
		if o.Status.IsConfigured() {
			continue
		}
		c.printf("  %s %s (%s) %s\n", c.warn.Render("-"), o.Record.Hostname, o.Record.Port, o.Status.Label())
	}
	if res.Aborted {
		c.printf("%s\n", c.warn.Render("批量处理已中止"))
	}
	c.printf("运行 ID: %s\n", res.RunID)
}

// NextCommand 手工模式下读取一条命令
func (c *Console) NextCommand(ctx context.Context) (string, error) {
	return c.Prompt(ctx, "cmd> ")
}

// ShowResponse 打印设备响应
func (c *Console) ShowResponse(command, response string) {
	c.printf("%s\n", strings.TrimRight(response, "\r\n"))
}

// ShowStatus 打印接口状态采集结果
func (c *Console) ShowStatus(rep service.StatusReport) {
	c.Banner("序列号 " + rep.Record.Serial)
	if len(rep.Interfaces) == 0 {
		c.printf("%s\n", c.warn.Render("没有匹配的接口"))
	}
	for _, it := range rep.Interfaces {
		c.printf("  %-24s %-22s %s\n", it.Name, it.Status, it.Protocol)
	}
}

// Errorf 打印错误
func (c *Console) Errorf(format string, args ...interface{}) {
	c.printf("%s\n", c.warn.Render(fmt.Sprintf(format, args...)))
}

var (
	_ service.Operator      = (*Console)(nil)
	_ service.CommandSource = (*Console)(nil)
)
