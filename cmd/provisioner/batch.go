package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/sshcollectorpro/consoleprov/internal/records"
	"github.com/sshcollectorpro/consoleprov/internal/service"
	"github.com/sshcollectorpro/consoleprov/pkg/logger"
)

var batchRecords string

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Provision every device listed in the records CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		if batchRecords != "" {
			cfg.Records.Path = batchRecords
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()
		return a.runBatch(cmd.Context())
	},
}

func init() {
	batchCmd.Flags().StringVarP(&batchRecords, "records", "r", "", "records CSV (default records.path)")
	rootCmd.AddCommand(batchCmd)
}

// runBatch 记录文件无效时直接失败，不触碰任何设备
func (a *app) runBatch(ctx context.Context) error {
	path := a.cfg.Records.Path
	recs, err := records.Load(path, a.cfg.Gate.MatchPolicy)
	if err != nil {
		return err
	}
	logger.Infof("Loaded %d device records from %s", len(recs), path)

	_, err = service.NewBatch(a.comps.Orchestrator, a.console, a.recorder(), path).Run(ctx, recs)
	if errors.Is(err, service.ErrBatchAborted) && ctx.Err() == nil {
		logger.Warnf("Batch stopped: %v", err)
		return nil
	}
	return err
}
