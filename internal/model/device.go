package model

import (
	"strings"
	"unicode/utf8"
)

// 序列号比对策略
const (
	MatchPolicyFull    = "full"
	MatchPolicyPrefix6 = "prefix6"
)

// UnknownSerial 无法从设备读出序列号时的哨兵值
const UnknownSerial = "unknown"

// DeviceRecord 一台待配置设备（来自记录文件的一行）
type DeviceRecord struct {
	Port      string `json:"port"`
	Hostname  string `json:"hostname"`
	User      string `json:"user"`
	Secret    string `json:"-"`
	Domain    string `json:"domain"`
	DeviceTag string `json:"device_tag"`
	Serial    string `json:"serial"`
	Line      int    `json:"line"`
}

// String 日志中使用的简短描述，不含密码
func (r DeviceRecord) String() string {
	return r.Hostname + "@" + r.Port
}

// SerialKey 按策略截取参与比对的序列号部分
func SerialKey(serial, policy string) string {
	serial = strings.TrimSpace(serial)
	if policy == MatchPolicyPrefix6 && utf8.RuneCountInString(serial) > 6 {
		return string([]rune(serial)[:6])
	}
	return serial
}

// DeriveHostname 主机名 = 设备标签首字符 + 序列号（按策略截取）
func DeriveHostname(deviceTag, serial, policy string) string {
	tag := strings.TrimSpace(deviceTag)
	if tag == "" {
		return ""
	}
	first, _ := utf8.DecodeRuneInString(tag)
	return string(first) + SerialKey(serial, policy)
}

// HostnameSerialPart 去掉主机名首字符，得到嵌入其中的序列号部分
func HostnameSerialPart(hostname string) string {
	if hostname == "" {
		return ""
	}
	_, size := utf8.DecodeRuneInString(hostname)
	return hostname[size:]
}
