package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sshcollectorpro/consoleprov/internal/model"
	"github.com/sshcollectorpro/consoleprov/simulate"
)

const sampleBrief = "Interface                  IP-Address      OK? Method Status                Protocol\r\n" +
	"GigabitEthernet0/0         192.168.1.1     YES manual up                    up\r\n" +
	"GigabitEthernet0/1         unassigned      YES unset  administratively down down\r\n" +
	"Serial0/0/0                unassigned      YES unset  down                  down\r\n" +
	"FastEthernet0/1            unassigned      YES unset  up\r\n" +
	"Router#"

func TestParseInterfaceBrief(t *testing.T) {
	items := ParseInterfaceBrief(sampleBrief, []string{"FastEthernet", "GigabitEthernet", "Ethernet"})
	require.Len(t, items, 2)
	assert.Equal(t, "GigabitEthernet0/0:up/up", items[0].String())
	assert.Equal(t, "GigabitEthernet0/1:administratively down/down", items[1].String())
	assert.Equal(t, "GigabitEthernet0/0:up/up; GigabitEthernet0/1:administratively down/down", JoinInterfaces(items))

	assert.Empty(t, ParseInterfaceBrief("Router#", []string{"Ethernet"}))
}

func TestCSVStatusSinkAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Dispositivos.csv")
	sink := &CSVStatusSink{Path: path}

	require.NoError(t, sink.Append(context.Background(), &model.StatusRecord{Serial: "FTX1", Interfaces: "Gi0/0:up/up"}))
	require.NoError(t, sink.Append(context.Background(), &model.StatusRecord{Serial: "FTX2", Interfaces: "Fa0/1:down/down; Fa0/2:up/up"}))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(b), "Serie,Interfaces"))

	rows, err := ReadStatusCSV(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "FTX1", rows[0].Serial)
	assert.Equal(t, "Fa0/1:down/down; Fa0/2:up/up", rows[1].Interfaces)
}

func TestCSVStatusSinkKeepsExistingRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Dispositivos.csv")
	require.NoError(t, os.WriteFile(path, []byte("Serie,Interfaces\nOLD1,x\n"), 0o644))

	sink := &CSVStatusSink{Path: path}
	require.NoError(t, sink.Append(context.Background(), &model.StatusRecord{Serial: "NEW1", Interfaces: "y"}))

	rows, err := ReadStatusCSV(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "OLD1", rows[0].Serial)
	assert.Equal(t, "NEW1", rows[1].Serial)
}

type memoryStatusSink struct{ got []model.StatusRecord }

func (m *memoryStatusSink) Append(_ context.Context, rec *model.StatusRecord) error {
	m.got = append(m.got, *rec)
	return nil
}

func TestStatusCollect(t *testing.T) {
	cfg := testConfig(t)
	fleet := simulate.NewFleet(nil)
	dev := fleet.Add(simulate.DeviceConfig{
		Port:   "/dev/ttyUSB1",
		Serial: "FOC1234X0AB",
		Interfaces: []simulate.InterfaceConfig{
			{Name: "FastEthernet0/1", Status: "up", Protocol: "up"},
			{Name: "FastEthernet0/2", Status: "down", Protocol: "down"},
			{Name: "Vlan1", Status: "up", Protocol: "up", IP: "10.0.0.2"},
		},
	})
	c := newTestComponents(t, cfg, fleet)
	mem := &memoryStatusSink{}
	collector := c.NewStatusCollectorFrom(cfg.Status, &CSVStatusSink{Path: cfg.Status.CSVPath}, mem)

	rep, err := collector.Collect(context.Background(), "/dev/ttyUSB1")
	require.NoError(t, err)
	assert.Equal(t, "FOC1234X0AB", rep.Record.Serial)
	assert.Equal(t, "FastEthernet0/1:up/up; FastEthernet0/2:down/down", rep.Record.Interfaces)
	assert.Equal(t, []string{"terminal length 0", "show inventory", "show ip interface brief"}, dev.Received())
	assert.True(t, dev.IsClosed())

	require.Len(t, mem.got, 1)
	rows, err := ReadStatusCSV(cfg.Status.CSVPath)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "FOC1234X0AB", rows[0].Serial)
}

func TestStatusCollectPortError(t *testing.T) {
	cfg := testConfig(t)
	fleet := simulate.NewFleet(nil)
	c := newTestComponents(t, cfg, fleet)

	_, err := c.NewStatusCollectorFrom(cfg.Status).Collect(context.Background(), "/dev/nothing")
	assert.Error(t, err)
}
