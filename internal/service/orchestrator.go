package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sshcollectorpro/consoleprov/internal/model"
	"github.com/sshcollectorpro/consoleprov/pkg/logger"
	"github.com/sshcollectorpro/consoleprov/pkg/serial"
)

type runIDKey struct{}

// WithRunID 将批量运行 ID 放入上下文
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunIDFrom 取出批量运行 ID
func RunIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// Orchestrator 单台设备的完整处理：打开串口、校验身份、下发配方、关闭
type Orchestrator struct {
	opener      serial.Opener
	openOpts    serial.OpenOptions
	channel     Sender
	extractor   *InventoryExtractor
	gate        *Gate
	sequencer   *Sequencer
	transcripts TranscriptWriter
}

// NewOrchestrator 组装处理流程；transcripts 可为 nil
func NewOrchestrator(opener serial.Opener, openOpts serial.OpenOptions, channel Sender,
	extractor *InventoryExtractor, gate *Gate, sequencer *Sequencer, transcripts TranscriptWriter) *Orchestrator {
	return &Orchestrator{
		opener:      opener,
		openOpts:    openOpts,
		channel:     channel,
		extractor:   extractor,
		gate:        gate,
		sequencer:   sequencer,
		transcripts: transcripts,
	}
}

// Provision 处理一台设备。任何路径都会关闭会话；不返回错误，也不会 panic。
func (o *Orchestrator) Provision(ctx context.Context, rec model.DeviceRecord) (out model.Outcome) {
	log := logger.Device(rec.Port, rec.Hostname)
	out = model.Outcome{Record: rec, StartedAt: time.Now()}
	state := model.StateIdle
	move := func(to model.ProvisionState) {
		out.Trace = append(out.Trace, model.Transition{From: state, To: to, At: time.Now()})
		log.Infof("State %s -> %s", state, to)
		state = to
	}
	skip := func(status model.OutcomeStatus, err error) {
		out.Status = status
		out.Reason = err.Error()
		log.WithField("status", status).Warnf("Device skipped: %v", err)
		move(model.StateSkipped)
	}
	defer func() {
		out.FinishedAt = time.Now()
		log.WithFields(logrus.Fields{
			"status":   out.Status,
			"commands": out.CommandsSent,
			"elapsed":  out.Duration().Round(time.Millisecond),
		}).Info("Device finished")
	}()

	move(model.StateConnecting)
	sess, err := serial.Open(ctx, o.opener, rec.Port, o.openOpts)
	if err != nil {
		skip(model.StatusSkippedPortError, err)
		move(model.StateClosed)
		return out
	}
	log.Info("Connected to device console")

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Recovered from panic during provisioning: %v", r)
			out.Status = model.StatusSkippedException
			out.Reason = fmt.Sprintf("panic: %v", r)
			if state != model.StateSkipped {
				move(model.StateSkipped)
			}
		}
		if err := sess.Close(); err != nil {
			log.Warnf("Close serial port failed: %v", err)
		}
		move(model.StateClosed)
		o.storeTranscript(ctx, sess, &out)
	}()

	move(model.StateIdentityCheck)
	id, err := o.extractor.Extract(ctx, o.channel, sess)
	if err != nil {
		// 读不到清单等同于没有序列号，原因保留底层错误
		out.ExtractedSerial = model.UnknownSerial
		skip(model.StatusSkippedNoSerial, fmt.Errorf("%w: %w", ErrNoIdentity, err))
		return out
	}
	out.ExtractedSerial = id.Serial

	if err := o.gate.Check(rec.Hostname, id.Serial); err != nil {
		if errors.Is(err, ErrNoIdentity) {
			skip(model.StatusSkippedNoSerial, err)
		} else {
			skip(model.StatusSkippedMismatch, err)
		}
		return out
	}
	log.Info("Identity verified")

	move(model.StateConfiguring)
	rep, err := o.sequencer.Apply(ctx, o.channel, sess, rec)
	out.CommandsSent = rep.Sent
	if err != nil {
		skip(model.StatusSkippedException, err)
		return out
	}
	out.Status = model.StatusConfigured
	return out
}

// storeTranscript 尽力写入会话记录，失败只记录日志
func (o *Orchestrator) storeTranscript(ctx context.Context, sess *serial.Session, out *model.Outcome) {
	if o.transcripts == nil || sess.Transcript().Len() == 0 {
		return
	}
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	obj, err := o.transcripts.Write(wctx, TranscriptMeta{
		RunID:     RunIDFrom(ctx),
		Port:      sess.Name(),
		Hostname:  out.Record.Hostname,
		StartedAt: out.StartedAt,
	}, sess.Transcript().String())
	if err != nil {
		logger.WithField("port", sess.Name()).Warnf("Store transcript: %v", err)
	}
	out.TranscriptURI = obj.URI
}
