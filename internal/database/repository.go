package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/sshcollectorpro/consoleprov/internal/model"
	"github.com/sshcollectorpro/consoleprov/internal/service"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("record not found")

// Repository 运行记录与状态记录的读写
type Repository struct {
	db       *gorm.DB
	attempts int
}

// NewRepository 创建仓库；db 为 nil 时使用全局连接
func NewRepository(gdb *gorm.DB) *Repository {
	if gdb == nil {
		gdb = db
	}
	return &Repository{db: gdb, attempts: 5}
}

func (r *Repository) write(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if r.db == nil {
		return fmt.Errorf("database not initialized")
	}
	sleep := 50 * time.Millisecond
	var err error
	for i := 0; i < r.attempts; i++ {
		err = fn(r.db.WithContext(ctx))
		if err == nil || !IsBusyError(err) {
			return err
		}
		time.Sleep(sleep)
		if sleep < 500*time.Millisecond {
			sleep *= 2
		}
	}
	return err
}

// StartRun 登记一次运行
func (r *Repository) StartRun(ctx context.Context, run *model.ProvisionRun) error {
	return r.write(ctx, func(tx *gorm.DB) error { return tx.Create(run).Error })
}

// RecordOutcome 保存单台设备结果，不保存密码
func (r *Repository) RecordOutcome(ctx context.Context, runID string, seq int, o model.Outcome) error {
	row := &model.ProvisionOutcome{
		RunID:           runID,
		Seq:             seq,
		Port:            o.Record.Port,
		Hostname:        o.Record.Hostname,
		ExpectedSerial:  o.Record.Serial,
		ExtractedSerial: o.ExtractedSerial,
		Status:          string(o.Status),
		Reason:          o.Reason,
		CommandsSent:    o.CommandsSent,
		TranscriptURI:   o.TranscriptURI,
		Duration:        o.Duration().Milliseconds(),
	}
	return r.write(ctx, func(tx *gorm.DB) error { return tx.Create(row).Error })
}

// FinishRun 更新运行的汇总信息
func (r *Repository) FinishRun(ctx context.Context, runID string, res service.BatchResult) error {
	status := model.RunStatusCompleted
	if res.Aborted {
		status = model.RunStatusAborted
	}
	return r.write(ctx, func(tx *gorm.DB) error {
		return tx.Model(&model.ProvisionRun{}).Where("id = ?", runID).Updates(map[string]interface{}{
			"configured": len(res.Configured),
			"skipped":    len(res.Skipped),
			"status":     status,
			"end_time":   res.FinishedAt,
		}).Error
	})
}

// Append 保存一条接口状态记录
func (r *Repository) Append(ctx context.Context, rec *model.StatusRecord) error {
	return r.write(ctx, func(tx *gorm.DB) error { return tx.Create(rec).Error })
}

// ListRuns 按开始时间倒序列出运行
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]model.ProvisionRun, error) {
	var runs []model.ProvisionRun
	err := r.db.WithContext(ctx).Order("start_time desc").Limit(normalizeLimit(limit)).Find(&runs).Error
	return runs, err
}

// GetRun 查询单次运行
func (r *Repository) GetRun(ctx context.Context, id string) (*model.ProvisionRun, error) {
	var run model.ProvisionRun
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListOutcomes 按处理顺序列出运行内的设备结果
func (r *Repository) ListOutcomes(ctx context.Context, runID string) ([]model.ProvisionOutcome, error) {
	var rows []model.ProvisionOutcome
	err := r.db.WithContext(ctx).Where("run_id = ?", runID).Order("seq asc").Find(&rows).Error
	return rows, err
}

// ListStatusRecords 列出状态记录，serial 为空时不过滤
func (r *Repository) ListStatusRecords(ctx context.Context, serial string, limit int) ([]model.StatusRecord, error) {
	q := r.db.WithContext(ctx).Order("id desc").Limit(normalizeLimit(limit))
	if serial != "" {
		q = q.Where("serial = ?", serial)
	}
	var rows []model.StatusRecord
	err := q.Find(&rows).Error
	return rows, err
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 100
	}
	return limit
}

var (
	_ service.OutcomeRecorder = (*Repository)(nil)
	_ service.StatusSink      = (*Repository)(nil)
)
