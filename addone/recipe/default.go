package recipe

import (
	"fmt"
	"time"
)

// Params 生成配方所需的设备参数
type Params struct {
	Hostname     string
	User         string
	Secret       string
	Domain       string
	RSAModulus   int
	KeygenSettle time.Duration
	SaveSettle   time.Duration
}

// Step 配方中的一条命令。Settle 为 0 时使用通道默认等待；
// Redact 中的字符串不会出现在日志与留存记录中。
type Step struct {
	Command string
	Settle  time.Duration
	Redact  []string
}

// Plugin 平台相关的配置命令序列
type Plugin interface {
	Name() string
	// ModeEntry 进入全局配置模式的命令
	ModeEntry() []Step
	// Build 生成完整配方（不含 ModeEntry），须以保存配置结束
	Build(p Params) []Step
}

// DefaultPlugin IOS 风格的 SSH 启用配方
type DefaultPlugin struct{}

func (p *DefaultPlugin) Name() string { return "default" }

func (p *DefaultPlugin) ModeEntry() []Step {
	return []Step{{Command: "enable"}, {Command: "configure terminal"}}
}

func (p *DefaultPlugin) Build(in Params) []Step {
	modulus := in.RSAModulus
	if modulus <= 0 {
		modulus = 1024
	}
	return []Step{
		{Command: "hostname " + in.Hostname},
		{Command: fmt.Sprintf("username %s privilege 15 secret %s", in.User, in.Secret), Redact: []string{in.Secret}},
		{Command: "ip domain-name " + in.Domain},
		{Command: fmt.Sprintf("crypto key generate rsa modulus %d", modulus), Settle: in.KeygenSettle},
		{Command: "line vty 0 4"},
		{Command: "login local"},
		{Command: "transport input ssh"},
		{Command: "transport output ssh"},
		{Command: "exit"},
		{Command: "ip ssh version 2"},
		{Command: "end"},
		{Command: "write memory", Settle: in.SaveSettle},
	}
}
