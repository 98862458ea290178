package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sshcollectorpro/consoleprov/simulate"
)

type scriptedCommands []string

func (s *scriptedCommands) NextCommand(context.Context) (string, error) {
	if len(*s) == 0 {
		return "", io.EOF
	}
	cmd := (*s)[0]
	*s = (*s)[1:]
	return cmd, nil
}

func TestManualSession(t *testing.T) {
	cfg := testConfig(t)
	fleet := simulate.NewFleet(nil)
	dev := fleet.Add(simulate.DeviceConfig{Port: "/dev/ttyUSB0", Hostname: "R1"})
	c := newTestComponents(t, cfg, fleet)

	in := scriptedCommands{"enable", "", "  show ip interface brief ", "EXIT", "never sent"}
	var shown []string
	n, err := c.NewManualSessionFrom(5*time.Millisecond).Run(context.Background(), "/dev/ttyUSB0", &in,
		func(cmd, resp string) { shown = append(shown, cmd) })
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"enable", "show ip interface brief"}, shown)
	assert.Equal(t, []string{"enable", "show ip interface brief"}, dev.Received())
	assert.True(t, dev.IsClosed())
	assert.Equal(t, []string{"never sent"}, []string(in))
}

func TestManualSessionEndsOnEOF(t *testing.T) {
	cfg := testConfig(t)
	fleet := simulate.NewFleet(nil)
	dev := fleet.Add(simulate.DeviceConfig{Port: "/dev/ttyUSB0"})
	c := newTestComponents(t, cfg, fleet)

	in := scriptedCommands{"enable"}
	n, err := c.NewManualSessionFrom(0).Run(context.Background(), "/dev/ttyUSB0", &in, func(string, string) {})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, dev.IsClosed())
}
