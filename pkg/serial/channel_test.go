package serial_test

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sshcollectorpro/consoleprov/pkg/logger"
	"github.com/sshcollectorpro/consoleprov/pkg/serial"
	"github.com/sshcollectorpro/consoleprov/simulate"
)

func openSimulated(t *testing.T, dc simulate.DeviceConfig) (*serial.Session, *simulate.Device) {
	t.Helper()
	fleet := simulate.NewFleet(nil)
	dev := fleet.Add(dc)
	sess, err := serial.Open(context.Background(), fleet, dc.Port, fastOptions(1))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close() })
	return sess, dev
}

func promptChannel() *serial.Channel {
	return serial.NewChannel(serial.ChannelOptions{
		Completion:    serial.PromptMatch{Suffixes: []string{"#", ">"}, MaxWait: 2 * time.Second},
		DefaultSettle: 10 * time.Millisecond,
		ErrorHints:    []string{"% Invalid input"},
	})
}

func TestSendReturnsResponseUpToPrompt(t *testing.T) {
	sess, dev := openSimulated(t, simulate.DeviceConfig{Port: "/dev/ttyS1", Serial: "FTX1840ALBQ"})
	ch := promptChannel()

	out, err := ch.Send(context.Background(), sess, "show inventory", 0)
	require.NoError(t, err)
	assert.Contains(t, out, "SN: FTX1840ALBQ")
	assert.True(t, serial.EndsWithPrompt(out, []string{">"}))
	assert.Equal(t, []string{"show inventory"}, dev.Received())

	entries := sess.Transcript().Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "show inventory", entries[0].Command)
	assert.Empty(t, entries[0].Warning)
}

func TestSendDiscardsStaleOutput(t *testing.T) {
	sess, _ := openSimulated(t, simulate.DeviceConfig{Port: "/dev/ttyS1", Hostname: "R1"})

	// 未读取的旧提示符不能混入下一条命令的响应
	_, err := sess.Write([]byte("\r\n\r\n"))
	require.NoError(t, err)

	out, err := promptChannel().Send(context.Background(), sess, "enable", 0)
	require.NoError(t, err)
	assert.Equal(t, "enable\r\nR1#", out)
}

func TestSendFixedDelay(t *testing.T) {
	sess, _ := openSimulated(t, simulate.DeviceConfig{Port: "/dev/ttyS1", Hostname: "R1"})
	ch := serial.NewChannel(serial.ChannelOptions{Completion: serial.FixedDelay{}})

	out, err := ch.Send(context.Background(), sess, "enable", 5*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "enable\r\nR1#", out)
}

func TestSendFlagsRejectedCommand(t *testing.T) {
	sess, _ := openSimulated(t, simulate.DeviceConfig{Port: "/dev/ttyS1"})
	hook := test.NewLocal(logger.GetLogger())
	defer hook.Reset()

	out, err := promptChannel().Send(context.Background(), sess, "shwo version", 0)
	require.NoError(t, err)
	assert.Contains(t, out, "% Invalid input detected")

	entries := sess.Transcript().Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "% Invalid input", entries[0].Warning)

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestDoRedactsSecrets(t *testing.T) {
	sess, _ := openSimulated(t, simulate.DeviceConfig{Port: "/dev/ttyS1", StartMode: "privileged"})
	ch := promptChannel()

	_, err := ch.Send(context.Background(), sess, "configure terminal", 0)
	require.NoError(t, err)
	out, err := ch.Do(context.Background(), sess, serial.Request{
		Command: "username admin privilege 15 secret s3cret",
		Redact:  []string{"s3cret"},
	})
	require.NoError(t, err)
	assert.Contains(t, out, "s3cret")

	entries := sess.Transcript().Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "username admin privilege 15 secret ******", entries[1].Command)
	assert.NotContains(t, entries[1].Response, "s3cret")
	assert.NotContains(t, sess.Transcript().String(), "s3cret")
}

func TestSendOnClosedSession(t *testing.T) {
	sess, _ := openSimulated(t, simulate.DeviceConfig{Port: "/dev/ttyS1"})
	require.NoError(t, sess.Close())

	_, err := promptChannel().Send(context.Background(), sess, "enable", 0)
	assert.ErrorIs(t, err, serial.ErrSessionClosed)
}

func TestSendSurfacesWriteFailure(t *testing.T) {
	sess, _ := openSimulated(t, simulate.DeviceConfig{Port: "/dev/ttyS1", FailWriteAfter: 1})
	ch := promptChannel()

	_, err := ch.Send(context.Background(), sess, "enable", 0)
	require.NoError(t, err)
	_, err = ch.Send(context.Background(), sess, "configure terminal", 0)
	assert.ErrorIs(t, err, simulate.ErrCableUnplugged)
}
