package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/sshcollectorpro/consoleprov/pkg/logger"
)

var manualSettle time.Duration

var manualCmd = &cobra.Command{
	Use:   "manual [port]",
	Short: "Send commands typed by the operator to one console",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()
		return a.runManual(cmd.Context(), firstArg(args))
	},
}

func init() {
	manualCmd.Flags().DurationVar(&manualSettle, "settle", 2*time.Second, "wait after each command")
	rootCmd.AddCommand(manualCmd)
}

func (a *app) runManual(ctx context.Context, port string) error {
	if port == "" {
		p, err := a.console.ChoosePort(ctx)
		if err != nil {
			return err
		}
		port = p
	}
	a.console.Banner("手工命令 " + port + "（输入 exit 结束）")
	n, err := a.comps.NewManualSessionFrom(manualSettle).Run(ctx, port, a.console, a.console.ShowResponse)
	if err != nil {
		return err
	}
	logger.Debugf("Manual session sent %d commands", n)
	return nil
}
