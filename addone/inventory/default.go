package inventory

// Plugin 平台相关的身份读取命令与解析规则
type Plugin interface {
	Name() string
	// PagingCommand 关闭分页，保证一次读到完整输出；空串表示不需要
	PagingCommand() string
	// InventoryCommand 输出硬件清单（含序列号）的命令
	InventoryCommand() string
	// SerialPattern 序列号正则，第一个捕获组为序列号
	SerialPattern() string
	// Template TextFSM 模板，需要定义 SN 列；空串表示平台不提供
	Template() string
}

// DefaultPlugin IOS 风格设备的通用规则
type DefaultPlugin struct{}

func (p *DefaultPlugin) Name() string { return "default" }

func (p *DefaultPlugin) PagingCommand() string { return "terminal length 0" }

func (p *DefaultPlugin) InventoryCommand() string { return "show inventory" }

func (p *DefaultPlugin) SerialPattern() string { return `SN:\s*([A-Z0-9]+)` }

func (p *DefaultPlugin) Template() string { return "" }
