package serial

import (
	"fmt"
	"io"
	"sort"
	"time"

	bugst "go.bug.st/serial"
)

// Port 会话所需的串口能力子集；go.bug.st/serial 的 Port 与模拟设备均满足
type Port interface {
	io.ReadWriteCloser
	ResetInputBuffer() error
	ResetOutputBuffer() error
	SetReadTimeout(t time.Duration) error
}

// Opener 打开串口并列出可用端口
type Opener interface {
	Open(name string, baudRate int) (Port, error)
	List() ([]string, error)
}

// HardwareOpener 基于 go.bug.st/serial 的真实串口打开器（8N1）
type HardwareOpener struct{}

// Open 打开物理串口
func (HardwareOpener) Open(name string, baudRate int) (Port, error) {
	mode := &bugst.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   bugst.NoParity,
		StopBits: bugst.OneStopBit,
	}
	p, err := bugst.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return p, nil
}

// List 列出系统中的串口
func (HardwareOpener) List() ([]string, error) {
	return ListPorts()
}

// ListPorts 枚举系统串口，按名称排序
func ListPorts() ([]string, error) {
	ports, err := bugst.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	sort.Strings(ports)
	return ports, nil
}
