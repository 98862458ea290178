package serial_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sshcollectorpro/consoleprov/pkg/serial"
	"github.com/sshcollectorpro/consoleprov/simulate"
)

func fastOptions(retries int) serial.OpenOptions {
	return serial.OpenOptions{
		BaudRate:    9600,
		Retries:     retries,
		RetryDelay:  time.Millisecond,
		ReadTimeout: time.Millisecond,
	}
}

func TestOpenRetriesUntilPortAppears(t *testing.T) {
	fleet := simulate.NewFleet(nil)
	dev := fleet.Add(simulate.DeviceConfig{Port: "/dev/ttyS9", Serial: "FTX1", FailOpens: 2})

	sess, err := serial.Open(context.Background(), fleet, "/dev/ttyS9", fastOptions(3))
	require.NoError(t, err)
	defer sess.Close()

	assert.Equal(t, "/dev/ttyS9", sess.Name())
	assert.Equal(t, 1, dev.Opens())
	assert.False(t, dev.IsClosed())
}

func TestOpenExhaustsRetries(t *testing.T) {
	fleet := simulate.NewFleet(nil)
	dev := fleet.Add(simulate.DeviceConfig{Port: "/dev/ttyS9", FailOpens: 10})

	sess, err := serial.Open(context.Background(), fleet, "/dev/ttyS9", fastOptions(3))
	require.Error(t, err)
	assert.Nil(t, sess)
	assert.True(t, errors.Is(err, serial.ErrPortUnavailable))
	assert.Contains(t, err.Error(), "3 attempts")
	assert.Equal(t, 0, dev.Opens())
}

func TestOpenUnknownPort(t *testing.T) {
	fleet := simulate.NewFleet(nil)
	_, err := serial.Open(context.Background(), fleet, "/dev/missing", fastOptions(2))
	assert.ErrorIs(t, err, serial.ErrPortUnavailable)
}

func TestOpenHonoursCancellation(t *testing.T) {
	fleet := simulate.NewFleet(nil)
	fleet.Add(simulate.DeviceConfig{Port: "/dev/ttyS9", FailOpens: 10})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := fastOptions(3)
	opts.RetryDelay = time.Hour
	start := time.Now()
	_, err := serial.Open(ctx, fleet, "/dev/ttyS9", opts)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestCloseIsIdempotent(t *testing.T) {
	fleet := simulate.NewFleet(nil)
	dev := fleet.Add(simulate.DeviceConfig{Port: "/dev/ttyS9"})

	sess, err := serial.Open(context.Background(), fleet, "/dev/ttyS9", fastOptions(1))
	require.NoError(t, err)

	assert.NoError(t, sess.Close())
	assert.NoError(t, sess.Close())
	assert.True(t, sess.IsClosed())
	assert.True(t, dev.IsClosed())

	_, err = sess.Write([]byte("enable\r\n"))
	assert.ErrorIs(t, err, serial.ErrSessionClosed)
	_, err = sess.ReadAvailable()
	assert.ErrorIs(t, err, serial.ErrSessionClosed)
}

func TestReadAvailableDrainsPendingBytes(t *testing.T) {
	fleet := simulate.NewFleet(nil)
	fleet.Add(simulate.DeviceConfig{Port: "/dev/ttyS9", Hostname: "R1"})

	sess, err := serial.Open(context.Background(), fleet, "/dev/ttyS9", fastOptions(1))
	require.NoError(t, err)
	defer sess.Close()

	_, err = sess.Write([]byte("\r\n"))
	require.NoError(t, err)

	out, err := sess.ReadAvailable()
	require.NoError(t, err)
	assert.Equal(t, "\r\nR1>", string(out))

	out, err = sess.ReadAvailable()
	require.NoError(t, err)
	assert.Empty(t, out)
}
