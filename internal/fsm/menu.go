package fsm

// MenuState 交互菜单的状态
type MenuState string

const (
	MenuMain   MenuState = "MENU"
	MenuManual MenuState = "MANUAL"
	MenuConfig MenuState = "CONFIG"
	MenuStatus MenuState = "STATUS"
	MenuExit   MenuState = "EXIT"
)

// 菜单输入
const (
	InputManual = "1"
	InputConfig = "2"
	InputStatus = "3"
	InputExit   = "0"
	InputDone   = "done"
)

// NewMenu 主菜单状态机：1 手工命令，2 批量配置，3 状态采集，0 退出；各模式完成后回到菜单
func NewMenu() *Machine[MenuState, string] {
	m := New[MenuState, string]("menu", MenuMain)
	m.AddState(MenuManual, MenuConfig, MenuStatus, MenuExit)
	m.AddTransition(MenuMain, InputManual, MenuManual)
	m.AddTransition(MenuMain, InputConfig, MenuConfig)
	m.AddTransition(MenuMain, InputStatus, MenuStatus)
	m.AddTransition(MenuMain, InputExit, MenuExit)
	for _, s := range []MenuState{MenuManual, MenuConfig, MenuStatus} {
		m.AddTransition(s, InputDone, MenuMain)
	}
	return m
}
