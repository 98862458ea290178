package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sshcollectorpro/consoleprov/addone/recipe"
	"github.com/sshcollectorpro/consoleprov/internal/config"
	"github.com/sshcollectorpro/consoleprov/internal/model"
	"github.com/sshcollectorpro/consoleprov/pkg/logger"
	"github.com/sshcollectorpro/consoleprov/pkg/serial"
)

// SequenceReport 配方执行情况
type SequenceReport struct {
	Sent  int
	Total int
}

// Sequencer 按固定顺序下发配置命令，不解析响应
type Sequencer struct {
	plugin       recipe.Plugin
	rsaModulus   int
	keygenSettle time.Duration
	saveSettle   time.Duration
}

// NewSequencer 按配置选择平台配方
func NewSequencer(cfg config.RecipeConfig) *Sequencer {
	return &Sequencer{
		plugin:       recipe.Get(cfg.Platform),
		rsaModulus:   cfg.RSAModulus,
		keygenSettle: cfg.KeygenSettle,
		saveSettle:   cfg.SaveSettle,
	}
}

// Plan 进入配置模式的命令 + 配方命令
func (s *Sequencer) Plan(rec model.DeviceRecord) []recipe.Step {
	steps := append([]recipe.Step(nil), s.plugin.ModeEntry()...)
	return append(steps, s.plugin.Build(recipe.Params{
		Hostname:     rec.Hostname,
		User:         rec.User,
		Secret:       rec.Secret,
		Domain:       rec.Domain,
		RSAModulus:   s.rsaModulus,
		KeygenSettle: s.keygenSettle,
		SaveSettle:   s.saveSettle,
	})...)
}

// Apply 依次发送全部命令；链路错误立即中止剩余步骤并返回
func (s *Sequencer) Apply(ctx context.Context, ch Sender, sess *serial.Session, rec model.DeviceRecord) (SequenceReport, error) {
	steps := s.Plan(rec)
	rep := SequenceReport{Total: len(steps)}
	log := logger.Device(rec.Port, rec.Hostname)

	for i, st := range steps {
		shown := serial.Scrub(st.Command, st.Redact)
		if err := ctx.Err(); err != nil {
			return rep, fmt.Errorf("step %d/%d %q: %w", i+1, rep.Total, shown, err)
		}
		log.Debugf("Recipe step %d/%d: %s", i+1, rep.Total, shown)
		if _, err := ch.Do(ctx, sess, serial.Request{Command: st.Command, Settle: st.Settle, Redact: st.Redact}); err != nil {
			return rep, fmt.Errorf("step %d/%d %q: %w", i+1, rep.Total, shown, err)
		}
		rep.Sent++
	}
	log.Infof("Recipe applied (%d commands)", rep.Sent)
	return rep, nil
}
