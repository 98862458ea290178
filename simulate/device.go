package simulate

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

var (
	// ErrCableUnplugged 注入的写失败
	ErrCableUnplugged = errors.New("simulated console cable unplugged")
	// ErrPortClosed 端口已关闭
	ErrPortClosed = errors.New("simulated port closed")
)

type cliMode int

const (
	modeExec cliMode = iota
	modePrivileged
	modeConfig
	modeLine
)

// Device 内存中的类 Cisco 控制台，满足串口会话所需的 Port 接口
type Device struct {
	cfg DeviceConfig

	mu       sync.Mutex
	out      bytes.Buffer
	pending  []byte
	mode     cliMode
	hostname string
	domain   string
	received []string
	lines    int
	opens    int
	closed   bool
	timeout  time.Duration
}

// NewDevice 根据配置创建模拟设备
func NewDevice(cfg DeviceConfig) *Device {
	d := &Device{cfg: cfg, hostname: chooseNonEmpty(cfg.Hostname, "Router")}
	if strings.EqualFold(cfg.StartMode, "privileged") {
		d.mode = modePrivileged
	}
	d.closed = true
	return d
}

// Port 设备挂载的串口名
func (d *Device) Port() string { return d.cfg.Port }

// Hostname 设备当前主机名
func (d *Device) Hostname() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.hostname
}

// Received 设备按顺序收到的命令
func (d *Device) Received() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.received...)
}

// Opens 被成功打开的次数
func (d *Device) Opens() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opens
}

// IsClosed 端口是否处于关闭状态
func (d *Device) IsClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func (d *Device) open() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = false
	d.opens++
	d.out.Reset()
	d.pending = nil
}

// Read 读取待发送的输出；无数据时立即返回 0（等价于读超时）
func (d *Device) Read(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return 0, ErrPortClosed
	}
	if d.out.Len() == 0 {
		return 0, nil
	}
	return d.out.Read(p)
}

// Write 接收键入的字节，每遇到行结束符执行一条命令
func (d *Device) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return 0, ErrPortClosed
	}
	if d.cfg.FailWriteAfter > 0 && d.lines >= d.cfg.FailWriteAfter {
		return 0, ErrCableUnplugged
	}

	d.pending = append(d.pending, p...)
	for {
		idx := bytes.IndexAny(d.pending, "\r\n")
		if idx < 0 {
			break
		}
		line := string(d.pending[:idx])
		rest := d.pending[idx+1:]
		// CRLF 视为一个结束符
		if d.pending[idx] == '\r' && len(rest) > 0 && rest[0] == '\n' {
			rest = rest[1:]
		}
		d.pending = rest
		d.handle(strings.TrimSpace(line))
	}
	return len(p), nil
}

// Close 关闭端口；设备保留当前 CLI 模式
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// ResetInputBuffer 丢弃尚未读取的输出
func (d *Device) ResetInputBuffer() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.out.Reset()
	return nil
}

// ResetOutputBuffer 模拟设备写入即处理，无需清空
func (d *Device) ResetOutputBuffer() error { return nil }

// SetReadTimeout 记录读超时
func (d *Device) SetReadTimeout(t time.Duration) error {
	d.mu.Lock()
	d.timeout = t
	d.mu.Unlock()
	return nil
}

func (d *Device) handle(cmd string) {
	d.lines++
	d.received = append(d.received, cmd)
	if d.cfg.Mute {
		return
	}

	d.emit(cmd + "\r\n")
	if cmd != "" {
		d.emit(d.execute(cmd))
	}
	d.emit(d.prompt())
}

func (d *Device) emit(s string) {
	if s == "" {
		return
	}
	if d.cfg.LineNoise {
		// 夹杂在回显里的线路噪声
		d.out.WriteByte(0xff)
	}
	d.out.WriteString(s)
}

func (d *Device) prompt() string {
	switch d.mode {
	case modePrivileged:
		return d.hostname + "#"
	case modeConfig:
		return d.hostname + "(config)#"
	case modeLine:
		return d.hostname + "(config-line)#"
	default:
		return d.hostname + ">"
	}
}

func (d *Device) execute(cmd string) string {
	fields := strings.Fields(cmd)
	lower := strings.ToLower(cmd)

	// 各模式通用的 show/terminal 命令
	if d.mode == modeExec || d.mode == modePrivileged {
		switch {
		case lower == "terminal length 0":
			return ""
		case lower == "show inventory":
			return d.inventory()
		case lower == "show ip interface brief":
			return d.interfaceBrief()
		}
	}

	switch d.mode {
	case modeExec:
		switch lower {
		case "enable":
			d.mode = modePrivileged
			return ""
		case "exit", "logout":
			return "\r\n" + d.hostname + " con0 is now available\r\n\r\nPress RETURN to get started.\r\n\r\n"
		}
	case modePrivileged:
		switch lower {
		case "configure terminal", "conf t":
			d.mode = modeConfig
			return "Enter configuration commands, one per line.  End with CNTL/Z.\r\n"
		case "disable":
			d.mode = modeExec
			return ""
		case "enable":
			return ""
		case "write memory", "wr":
			return "Building configuration...\r\n[OK]\r\n"
		}
	case modeConfig:
		switch {
		case len(fields) == 2 && fields[0] == "hostname":
			d.hostname = fields[1]
			return ""
		case len(fields) >= 4 && fields[0] == "username" && fields[2] == "privilege":
			return ""
		case len(fields) == 3 && fields[0] == "ip" && fields[1] == "domain-name":
			d.domain = fields[2]
			return ""
		case strings.HasPrefix(lower, "crypto key generate rsa modulus "):
			return d.keygen(fields[len(fields)-1])
		case lower == "line vty 0 4":
			d.mode = modeLine
			return ""
		case lower == "ip ssh version 2":
			return ""
		case lower == "end" || lower == "exit":
			d.mode = modePrivileged
			return ""
		}
	case modeLine:
		switch lower {
		case "login local", "transport input ssh", "transport output ssh":
			return ""
		case "exit":
			d.mode = modeConfig
			return ""
		case "end":
			d.mode = modePrivileged
			return ""
		}
	}
	return "                ^\r\n% Invalid input detected at '^' marker.\r\n\r\n"
}

func (d *Device) keygen(modulus string) string {
	if d.domain == "" {
		return "% Please define a domain-name first.\r\n"
	}
	return fmt.Sprintf("The name for the keys will be: %s.%s\r\n\r\n"+
		"%% The key modulus size is %s bits\r\n"+
		"%% Generating %s bit RSA keys, keys will be non-exportable...\r\n"+
		"[OK] (elapsed time was 1 seconds)\r\n\r\n", d.hostname, d.domain, modulus, modulus)
}

func (d *Device) inventory() string {
	pid := chooseNonEmpty(d.cfg.PID, "CISCO2901/K9")
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("NAME: \"CISCO2901/K9 chassis\", DESCR: \"CISCO2901/K9 chassis, Hw Serial#: %s\"\r\n", d.cfg.Serial))
	if d.cfg.Serial != "" {
		sb.WriteString(fmt.Sprintf("PID: %-16s, VID: V07 , SN: %s\r\n\r\n", pid, d.cfg.Serial))
	} else {
		sb.WriteString(fmt.Sprintf("PID: %-16s, VID: V07 \r\n\r\n", pid))
	}
	for _, m := range d.cfg.Modules {
		sb.WriteString(fmt.Sprintf("NAME: %q, DESCR: %q\r\n", m.Name, m.Descr))
		sb.WriteString(fmt.Sprintf("PID: %-16s, VID: V01 , SN: %s\r\n\r\n", m.PID, m.Serial))
	}
	return sb.String()
}

func (d *Device) interfaceBrief() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-27s%-16s%-4s%-7s%-22s%s\r\n", "Interface", "IP-Address", "OK?", "Method", "Status", "Protocol"))
	for _, it := range d.cfg.Interfaces {
		ip := chooseNonEmpty(it.IP, "unassigned")
		method := "manual"
		if ip == "unassigned" {
			method = "unset"
		}
		sb.WriteString(fmt.Sprintf("%-27s%-16s%-4s%-7s%-22s%s\r\n",
			it.Name, ip, "YES", method, chooseNonEmpty(it.Status, "up"), chooseNonEmpty(it.Protocol, "up")))
	}
	return sb.String()
}
