package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sshcollectorpro/consoleprov/internal/config"
	"github.com/sshcollectorpro/consoleprov/internal/model"
	"github.com/sshcollectorpro/consoleprov/pkg/serial"
	"github.com/sshcollectorpro/consoleprov/simulate"
)

const (
	labSerial   = "FTX1840ALBQ"
	labHostname = "R" + labSerial
)

// testConfig 默认配置，缩短所有等待时间
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Serial.Retries = 2
	cfg.Serial.RetryDelay = time.Millisecond
	cfg.Serial.OpenSettle = 0
	cfg.Serial.ReadTimeout = time.Millisecond
	cfg.Channel.DefaultSettle = 5 * time.Millisecond
	cfg.Channel.MaxWait = 2 * time.Second
	cfg.Inventory.Settle = 5 * time.Millisecond
	cfg.Recipe.KeygenSettle = 5 * time.Millisecond
	cfg.Recipe.SaveSettle = 5 * time.Millisecond
	cfg.Status.Settle = 5 * time.Millisecond
	cfg.Status.CSVPath = filepath.Join(t.TempDir(), "Dispositivos.csv")
	cfg.Storage.Transcripts.Enabled = false
	return cfg
}

func newTestComponents(t *testing.T, cfg *config.Config, fleet *simulate.Fleet) *Components {
	t.Helper()
	c, err := NewComponents(cfg, fleet)
	require.NoError(t, err)
	return c
}

func labRecord(port string) model.DeviceRecord {
	return model.DeviceRecord{
		Port:      port,
		Hostname:  labHostname,
		User:      "admin",
		Secret:    "Cisco123!",
		Domain:    "lab.local",
		DeviceTag: "Router1",
		Serial:    labSerial,
	}
}

func openTestSession(t *testing.T, fleet *simulate.Fleet, port string) *serial.Session {
	t.Helper()
	sess, err := serial.Open(context.Background(), fleet, port, serial.OpenOptions{Retries: 1, ReadTimeout: time.Millisecond})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close() })
	return sess
}

// recipeCommands 期望发送的 14 条命令（2 条进入配置模式 + 12 条配方）
func recipeCommands(hostname string) []string {
	return []string{
		"enable",
		"configure terminal",
		"hostname " + hostname,
		"username admin privilege 15 secret Cisco123!",
		"ip domain-name lab.local",
		"crypto key generate rsa modulus 1024",
		"line vty 0 4",
		"login local",
		"transport input ssh",
		"transport output ssh",
		"exit",
		"ip ssh version 2",
		"end",
		"write memory",
	}
}

// panicSender 在第 after 次 Do 调用时 panic
type panicSender struct {
	Sender
	after int
	calls int
}

func (p *panicSender) Do(ctx context.Context, sess *serial.Session, req serial.Request) (string, error) {
	p.calls++
	if p.calls >= p.after {
		panic("console driver crashed")
	}
	return p.Sender.Do(ctx, sess, req)
}
