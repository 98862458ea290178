package main

// 平台插件在 init 中注册
import (
	_ "github.com/sshcollectorpro/consoleprov/addone/inventory/platforms/cisco_ios"
	_ "github.com/sshcollectorpro/consoleprov/addone/recipe/platforms/cisco_ios"
)
