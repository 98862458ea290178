package recipe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultBuildOrder(t *testing.T) {
	steps := (&DefaultPlugin{}).Build(Params{
		Hostname:     "RFTX1",
		User:         "admin",
		Secret:       "s3cret",
		Domain:       "lab.local",
		KeygenSettle: 3 * time.Second,
		SaveSettle:   2 * time.Second,
	})
	require.Len(t, steps, 12)

	cmds := make([]string, 0, len(steps))
	for _, s := range steps {
		cmds = append(cmds, s.Command)
	}
	assert.Equal(t, []string{
		"hostname RFTX1",
		"username admin privilege 15 secret s3cret",
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
	}, cmds)

	assert.Equal(t, []string{"s3cret"}, steps[1].Redact)
	assert.Equal(t, 3*time.Second, steps[3].Settle)
	assert.Equal(t, 2*time.Second, steps[11].Settle)
	assert.Zero(t, steps[0].Settle)
}

func TestRegistryFallsBackToDefault(t *testing.T) {
	assert.Equal(t, "default", Get("no-such-platform").Name())

	entry := Get("default").ModeEntry()
	require.Len(t, entry, 2)
	assert.Equal(t, "enable", entry[0].Command)
	assert.Equal(t, "configure terminal", entry[1].Command)
}
