package cisco_ios

import (
	"time"

	"github.com/sshcollectorpro/consoleprov/addone/recipe"
)

// Plugin cisco_ios 平台配方插件
type Plugin struct {
	recipe.DefaultPlugin
}

func (p *Plugin) Name() string { return "cisco_ios" }

func (p *Plugin) Build(in recipe.Params) []recipe.Step {
	if in.KeygenSettle <= 0 {
		in.KeygenSettle = 3 * time.Second
	}
	if in.SaveSettle <= 0 {
		in.SaveSettle = 2 * time.Second
	}
	return p.DefaultPlugin.Build(in)
}

func init() { recipe.Register("cisco_ios", &Plugin{}) }
