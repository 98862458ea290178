package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 9600, cfg.Serial.BaudRate)
	assert.Equal(t, 3, cfg.Serial.Retries)
	assert.Equal(t, 3*time.Second, cfg.Serial.RetryDelay)
	assert.Equal(t, "\r\n", cfg.Channel.LineTerminator)
	assert.Equal(t, "prompt", cfg.Channel.Completion)
	assert.Equal(t, MatchPolicyFull, cfg.Gate.MatchPolicy)
	assert.Equal(t, []string{"FastEthernet", "GigabitEthernet", "Ethernet"}, cfg.Status.InterfacePrefixes)
	assert.Equal(t, "127.0.0.1:18080", cfg.GetServerAddr())
}

func TestLoadRepositoryConfig(t *testing.T) {
	cfg, err := Load("../../configs/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, "\r\n", cfg.Channel.LineTerminator)
	assert.Equal(t, `SN:\s*([A-Z0-9]+)`, cfg.Inventory.MarkerPattern)
	assert.Equal(t, 30*time.Second, cfg.Channel.MaxWait)
	assert.Same(t, cfg, Get())
}

func TestLoadOverridesAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gate:\n  match_policy: PREFIX6\nchannel:\n  completion: idle\nstorage:\n  minio:\n    secret_key: ${TEST_MINIO_SECRET}\n"), 0o644))
	t.Setenv("TEST_MINIO_SECRET", "s3cr3t")
	t.Setenv("CONSOLE_PROV_SERIAL_RETRIES", "7")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, MatchPolicyPrefix6, cfg.Gate.MatchPolicy)
	assert.Equal(t, "idle", cfg.Channel.Completion)
	assert.Equal(t, "s3cr3t", cfg.Storage.Minio.SecretKey)
	assert.Equal(t, 7, cfg.Serial.Retries)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"policy":     "gate:\n  match_policy: fuzzy\n",
		"completion": "channel:\n  completion: guess\n",
		"parser":     "inventory:\n  parser: xml\n",
		"baud":       "serial:\n  baud_rate: 0\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
