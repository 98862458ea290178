package main

import (
	"context"
	"errors"
	"io"

	"github.com/sshcollectorpro/consoleprov/internal/console"
	"github.com/sshcollectorpro/consoleprov/internal/fsm"
	"github.com/sshcollectorpro/consoleprov/pkg/logger"
)

// runMenu 主菜单循环，模式切换由菜单状态机驱动
func (a *app) runMenu(ctx context.Context) error {
	m := fsm.NewMenu()
	for {
		choice, err := a.console.Menu(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if !m.Input(choice) {
			a.console.Errorf("无效选项: %q", choice)
			continue
		}

		var modeErr error
		switch m.State() {
		case fsm.MenuManual:
			modeErr = a.runManual(ctx, "")
		case fsm.MenuConfig:
			modeErr = a.runBatch(ctx)
		case fsm.MenuStatus:
			modeErr = a.runStatus(ctx, "")
		case fsm.MenuExit:
			return nil
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if modeErr != nil && !errors.Is(modeErr, console.ErrOperatorQuit) {
			logger.Warnf("%s mode failed: %v", m.State(), modeErr)
			a.console.Errorf("%v", modeErr)
		}
		m.Input(fsm.InputDone)
		if _, err := a.console.Prompt(ctx, "按回车返回菜单: "); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
	}
}
