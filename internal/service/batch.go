package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sshcollectorpro/consoleprov/internal/model"
	"github.com/sshcollectorpro/consoleprov/pkg/logger"
)

// ErrBatchAborted 操作员中止批量处理
var ErrBatchAborted = errors.New("batch aborted by operator")

// Provisioner 处理单台设备
type Provisioner interface {
	Provision(ctx context.Context, rec model.DeviceRecord) model.Outcome
}

// Operator 人工操作环节。ConfirmConnect 与 Acknowledge 返回错误表示中止。
type Operator interface {
	ConfirmConnect(ctx context.Context, rec model.DeviceRecord, seq, total int) error
	ReportOutcome(o model.Outcome)
	Acknowledge(ctx context.Context) error
	Summary(res BatchResult)
}

// OutcomeRecorder 运行结果持久化
type OutcomeRecorder interface {
	StartRun(ctx context.Context, run *model.ProvisionRun) error
	RecordOutcome(ctx context.Context, runID string, seq int, o model.Outcome) error
	FinishRun(ctx context.Context, runID string, res BatchResult) error
}

// BatchResult 批量处理结果
type BatchResult struct {
	RunID      string
	Configured []model.DeviceRecord
	Skipped    []model.DeviceRecord
	Outcomes   []model.Outcome
	Aborted    bool
	StartedAt  time.Time
	FinishedAt time.Time
}

// Total 已处理设备数
func (r BatchResult) Total() int { return len(r.Outcomes) }

// Batch 按文件顺序逐台处理设备，单台失败不影响后续设备
type Batch struct {
	prov        Provisioner
	op          Operator
	recorder    OutcomeRecorder
	recordsPath string
}

// NewBatch 创建批量控制器；recorder 可为 nil
func NewBatch(prov Provisioner, op Operator, recorder OutcomeRecorder, recordsPath string) *Batch {
	return &Batch{prov: prov, op: op, recorder: recorder, recordsPath: recordsPath}
}

// Run 依次处理全部记录。操作员中止时返回已处理部分与 ErrBatchAborted。
func (b *Batch) Run(ctx context.Context, records []model.DeviceRecord) (BatchResult, error) {
	res := BatchResult{RunID: uuid.NewString(), StartedAt: time.Now()}
	log := logger.WithField("run_id", res.RunID)
	ctx = WithRunID(ctx, res.RunID)

	if b.recorder != nil {
		run := &model.ProvisionRun{
			ID:          res.RunID,
			RecordsPath: b.recordsPath,
			Total:       len(records),
			Status:      model.RunStatusRunning,
			StartTime:   res.StartedAt,
		}
		if err := b.recorder.StartRun(ctx, run); err != nil {
			log.Warnf("Record run start failed: %v", err)
		}
	}
	log.Infof("Batch started: %d devices", len(records))

	total := len(records)
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return b.finish(ctx, res, err)
		}
		if err := b.op.ConfirmConnect(ctx, rec, i+1, total); err != nil {
			return b.finish(ctx, res, err)
		}

		o := b.prov.Provision(ctx, rec)
		res.Outcomes = append(res.Outcomes, o)
		if o.Status.IsConfigured() {
			res.Configured = append(res.Configured, rec)
		} else {
			res.Skipped = append(res.Skipped, rec)
		}
		b.op.ReportOutcome(o)

		if b.recorder != nil {
			if err := b.recorder.RecordOutcome(ctx, res.RunID, i+1, o); err != nil {
				log.Warnf("Record outcome for %s failed: %v", rec, err)
			}
		}

		if err := ctx.Err(); err != nil {
			return b.finish(ctx, res, err)
		}
		if i < total-1 {
			if err := b.op.Acknowledge(ctx); err != nil {
				return b.finish(ctx, res, err)
			}
		}
	}
	return b.finish(ctx, res, nil)
}

func (b *Batch) finish(ctx context.Context, res BatchResult, cause error) (BatchResult, error) {
	res.FinishedAt = time.Now()
	res.Aborted = cause != nil

	if b.recorder != nil {
		if err := b.recorder.FinishRun(context.WithoutCancel(ctx), res.RunID, res); err != nil {
			logger.WithField("run_id", res.RunID).Warnf("Record run finish failed: %v", err)
		}
	}
	b.op.Summary(res)

	logger.WithField("run_id", res.RunID).Infof("Batch finished: configured=%d skipped=%d aborted=%t",
		len(res.Configured), len(res.Skipped), res.Aborted)
	if cause != nil {
		return res, fmt.Errorf("%w: %w", ErrBatchAborted, cause)
	}
	return res, nil
}
