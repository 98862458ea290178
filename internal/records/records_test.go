package records

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sshcollectorpro/consoleprov/internal/model"
)

const sample = "Device,Serie,Port,User,Password,Ip-domain\n" +
	"Router1,FTX1840ALBQ,/dev/ttyUSB0,admin,Cisco123!,lab.local\n" +
	"Switch1,FOC1234X0AB,COM4,ops,p@ss,lab.local\n"

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	recs, err := Load(writeFile(t, sample), model.MatchPolicyFull)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, model.DeviceRecord{
		Port:      "/dev/ttyUSB0",
		Hostname:  "RFTX1840ALBQ",
		User:      "admin",
		Secret:    "Cisco123!",
		Domain:    "lab.local",
		DeviceTag: "Router1",
		Serial:    "FTX1840ALBQ",
		Line:      2,
	}, recs[0])
	assert.Equal(t, "SFOC1234X0AB", recs[1].Hostname)
	assert.Equal(t, 3, recs[1].Line)
}

func TestLoadPrefixPolicy(t *testing.T) {
	recs, err := Load(writeFile(t, sample), model.MatchPolicyPrefix6)
	require.NoError(t, err)
	assert.Equal(t, "RFTX184", recs[0].Hostname)
	assert.Equal(t, "FTX1840ALBQ", recs[0].Serial)
}

func TestLoadAcceptsBOMAndExtraColumns(t *testing.T) {
	content := "\xef\xbb\xbfNotes,Device,Serie,Port,User,Password,Ip-domain\n" +
		"spare,Router1,FTX1,COM3,admin,pw,lab.local\n"
	recs, err := Load(writeFile(t, content), model.MatchPolicyFull)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "COM3", recs[0].Port)
}

func TestLoadFailures(t *testing.T) {
	cases := map[string]string{
		"missing column": "Device,Serie,Port,User,Password\nRouter1,FTX1,COM3,admin,pw\n",
		"empty field":    "Device,Serie,Port,User,Password,Ip-domain\nRouter1,FTX1,COM3,admin,pw,lab\nSwitch1,,COM4,admin,pw,lab\n",
		"empty file":     "",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			recs, err := Load(writeFile(t, content), model.MatchPolicyFull)
			assert.ErrorIs(t, err, ErrInvalidRecords)
			assert.Nil(t, recs)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "absent.csv"), model.MatchPolicyFull)
	assert.ErrorIs(t, err, ErrInvalidRecords)
}

func TestLoadReportsLine(t *testing.T) {
	content := "Device,Serie,Port,User,Password,Ip-domain\nRouter1,FTX1,COM3,admin,pw,lab\nSwitch1,FOC1,COM4,admin,,lab\n"
	_, err := Load(writeFile(t, content), model.MatchPolicyFull)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3: empty Password")
}
