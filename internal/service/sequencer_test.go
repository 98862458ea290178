package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sshcollectorpro/consoleprov/simulate"
)

func TestSequencerPlan(t *testing.T) {
	s := NewSequencer(testConfig(t).Recipe)
	steps := s.Plan(labRecord("/dev/ttyUSB0"))

	cmds := make([]string, 0, len(steps))
	for _, st := range steps {
		cmds = append(cmds, st.Command)
	}
	assert.Equal(t, recipeCommands(labHostname), cmds)
}

func TestSequencerApplyInOrder(t *testing.T) {
	cfg := testConfig(t)
	fleet := simulate.NewFleet(nil)
	dev := fleet.Add(simulate.DeviceConfig{Port: "/dev/ttyUSB0", Serial: labSerial})
	c := newTestComponents(t, cfg, fleet)
	sess := openTestSession(t, fleet, "/dev/ttyUSB0")

	rep, err := c.Sequencer.Apply(context.Background(), c.Channel, sess, labRecord("/dev/ttyUSB0"))
	require.NoError(t, err)
	assert.Equal(t, 14, rep.Sent)
	assert.Equal(t, 14, rep.Total)
	assert.Equal(t, recipeCommands(labHostname), dev.Received())
	assert.Equal(t, labHostname, dev.Hostname())

	// 设备接受了全部命令
	for _, e := range sess.Transcript().Entries() {
		assert.Empty(t, e.Warning, e.Command)
	}
}

func TestSequencerStopsOnTransportError(t *testing.T) {
	cfg := testConfig(t)
	fleet := simulate.NewFleet(nil)
	dev := fleet.Add(simulate.DeviceConfig{Port: "/dev/ttyUSB0", Serial: labSerial, FailWriteAfter: 5})
	c := newTestComponents(t, cfg, fleet)
	sess := openTestSession(t, fleet, "/dev/ttyUSB0")

	rep, err := c.Sequencer.Apply(context.Background(), c.Channel, sess, labRecord("/dev/ttyUSB0"))
	require.Error(t, err)
	assert.ErrorIs(t, err, simulate.ErrCableUnplugged)
	assert.Equal(t, 5, rep.Sent)
	assert.Len(t, dev.Received(), 5)
	assert.Contains(t, err.Error(), "step 6/14")
}

func TestSequencerRedactsSecretInTranscript(t *testing.T) {
	cfg := testConfig(t)
	fleet := simulate.NewFleet(nil)
	fleet.Add(simulate.DeviceConfig{Port: "/dev/ttyUSB0", Serial: labSerial})
	c := newTestComponents(t, cfg, fleet)
	sess := openTestSession(t, fleet, "/dev/ttyUSB0")

	_, err := c.Sequencer.Apply(context.Background(), c.Channel, sess, labRecord("/dev/ttyUSB0"))
	require.NoError(t, err)
	assert.NotContains(t, sess.Transcript().String(), "Cisco123!")
	assert.Contains(t, sess.Transcript().String(), "username admin privilege 15 secret ******")
}

func TestSequencerHonoursCancellation(t *testing.T) {
	cfg := testConfig(t)
	fleet := simulate.NewFleet(nil)
	dev := fleet.Add(simulate.DeviceConfig{Port: "/dev/ttyUSB0", Serial: labSerial})
	c := newTestComponents(t, cfg, fleet)
	sess := openTestSession(t, fleet, "/dev/ttyUSB0")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rep, err := c.Sequencer.Apply(ctx, c.Channel, sess, labRecord("/dev/ttyUSB0"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, rep.Sent)
	assert.Empty(t, dev.Received())
}
