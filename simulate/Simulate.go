package simulate

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/sshcollectorpro/consoleprov/pkg/logger"
	"github.com/sshcollectorpro/consoleprov/pkg/serial"
)

// Config simulate.yaml 配置结构
type Config struct {
	Devices []DeviceConfig `mapstructure:"devices"`
}

// DeviceConfig 单台模拟设备
type DeviceConfig struct {
	Port       string            `mapstructure:"port"`
	Hostname   string            `mapstructure:"hostname"`
	PID        string            `mapstructure:"pid"`
	Serial     string            `mapstructure:"serial"`
	StartMode  string            `mapstructure:"start_mode"`
	Modules    []ModuleConfig    `mapstructure:"modules"`
	Interfaces []InterfaceConfig `mapstructure:"interfaces"`

	// 故障注入
	FailOpens      int  `mapstructure:"fail_opens"`
	FailWriteAfter int  `mapstructure:"fail_write_after"`
	Mute           bool `mapstructure:"mute"`
	LineNoise      bool `mapstructure:"line_noise"`
}

// ModuleConfig 机箱内模块（show inventory 中的附加条目）
type ModuleConfig struct {
	Name   string `mapstructure:"name"`
	Descr  string `mapstructure:"descr"`
	PID    string `mapstructure:"pid"`
	Serial string `mapstructure:"serial"`
}

// InterfaceConfig show ip interface brief 中的一行
type InterfaceConfig struct {
	Name     string `mapstructure:"name"`
	IP       string `mapstructure:"ip"`
	Status   string `mapstructure:"status"`
	Protocol string `mapstructure:"protocol"`
}

// LoadConfig 读取 simulate.yaml
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read simulate config: %w", err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal simulate config: %w", err)
	}
	for i, d := range cfg.Devices {
		if strings.TrimSpace(d.Port) == "" {
			return nil, fmt.Errorf("simulate device #%d has no port", i+1)
		}
	}
	return &cfg, nil
}

// Fleet 一组挂在不同串口上的模拟设备，作为串口打开器使用
type Fleet struct {
	mu        sync.Mutex
	devices   map[string]*Device
	openFails map[string]int
}

// NewFleet 根据配置创建设备集合
func NewFleet(cfg *Config) *Fleet {
	f := &Fleet{devices: make(map[string]*Device), openFails: make(map[string]int)}
	if cfg == nil {
		return f
	}
	for _, dc := range cfg.Devices {
		f.Add(dc)
	}
	return f
}

// Add 挂载一台设备并返回它
func (f *Fleet) Add(dc DeviceConfig) *Device {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := NewDevice(dc)
	f.devices[dc.Port] = d
	f.openFails[dc.Port] = dc.FailOpens
	return d
}

// Device 按串口名取设备
func (f *Fleet) Device(port string) (*Device, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.devices[port]
	return d, ok
}

// Open 打开模拟串口；前 FailOpens 次返回错误
func (f *Fleet) Open(name string, baudRate int) (serial.Port, error) {
	f.mu.Lock()
	d, ok := f.devices[name]
	if !ok {
		f.mu.Unlock()
		return nil, fmt.Errorf("open %s: no such file or directory", name)
	}
	if f.openFails[name] > 0 {
		f.openFails[name]--
		f.mu.Unlock()
		logger.Debug("Simulate: injected open failure on ", name)
		return nil, fmt.Errorf("open %s: device or resource busy", name)
	}
	f.mu.Unlock()

	d.open()
	logger.Debugf("Simulate: %s opened at %d baud", name, baudRate)
	return d, nil
}

// List 列出模拟串口
func (f *Fleet) List() ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ports := make([]string, 0, len(f.devices))
	for p := range f.devices {
		ports = append(ports, p)
	}
	sort.Strings(ports)
	return ports, nil
}

func chooseNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}
