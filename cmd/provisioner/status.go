package main

import (
	"context"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status [port]",
	Short: "Read serial number and interface status from one device",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()
		return a.runStatus(cmd.Context(), firstArg(args))
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func (a *app) runStatus(ctx context.Context, port string) error {
	if port == "" {
		p, err := a.console.ChoosePort(ctx)
		if err != nil {
			return err
		}
		port = p
	}
	rep, err := a.comps.NewStatusCollectorFrom(a.cfg.Status, a.statusSinks()...).Collect(ctx, port)
	if err != nil {
		return err
	}
	a.console.ShowStatus(rep)
	return nil
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
