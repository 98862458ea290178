package cisco_ios

import (
	_ "embed"

	"github.com/sshcollectorpro/consoleprov/addone/inventory"
)

//go:embed show_inventory.textfsm
var showInventoryTemplate string

// Plugin cisco_ios 平台库存插件
type Plugin struct {
	inventory.DefaultPlugin
}

func (p *Plugin) Name() string { return "cisco_ios" }

func (p *Plugin) Template() string { return showInventoryTemplate }

func init() { inventory.Register("cisco_ios", &Plugin{}) }
