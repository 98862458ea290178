package main

import (
	"fmt"

	"github.com/sshcollectorpro/consoleprov/internal/config"
	"github.com/sshcollectorpro/consoleprov/internal/console"
	"github.com/sshcollectorpro/consoleprov/internal/database"
	"github.com/sshcollectorpro/consoleprov/internal/service"
	"github.com/sshcollectorpro/consoleprov/pkg/logger"
	"github.com/sshcollectorpro/consoleprov/pkg/serial"
	"github.com/sshcollectorpro/consoleprov/simulate"
)

// app 一次命令运行所需的依赖
type app struct {
	cfg     *config.Config
	opener  serial.Opener
	comps   *service.Components
	repo    *database.Repository
	console *console.Console
}

// newOpener 配置了 simulate 时使用模拟设备，否则使用物理串口
func newOpener(c *config.Config) (serial.Opener, error) {
	if c.Serial.Simulate == "" {
		return serial.HardwareOpener{}, nil
	}
	sc, err := simulate.LoadConfig(c.Serial.Simulate)
	if err != nil {
		return nil, err
	}
	logger.Infof("Simulate: %d console devices loaded from %s", len(sc.Devices), c.Serial.Simulate)
	return simulate.NewFleet(sc), nil
}

func newApp() (*app, error) {
	opener, err := newOpener(cfg)
	if err != nil {
		return nil, err
	}
	comps, err := service.NewComponents(cfg, opener)
	if err != nil {
		return nil, fmt.Errorf("failed to build components: %w", err)
	}
	a := &app{cfg: cfg, opener: opener, comps: comps, console: console.Stdio(opener)}

	// 运行记录库不可用不影响配置流程
	if err := database.InitSQLite(cfg.Database.SQLite); err != nil {
		logger.Warnf("Run store disabled: %v", err)
	} else {
		a.repo = database.NewRepository(database.GetDB())
	}
	return a, nil
}

func (a *app) recorder() service.OutcomeRecorder {
	if a.repo == nil {
		return nil
	}
	return a.repo
}

func (a *app) statusSinks() []service.StatusSink {
	sinks := []service.StatusSink{&service.CSVStatusSink{Path: a.cfg.Status.CSVPath}}
	if a.repo != nil {
		sinks = append(sinks, a.repo)
	}
	return sinks
}

func (a *app) close() {
	if err := database.Close(); err != nil {
		logger.Warnf("Close database: %v", err)
	}
}
