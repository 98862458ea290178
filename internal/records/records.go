package records

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/sshcollectorpro/consoleprov/internal/model"
)

// ErrInvalidRecords 记录文件无法使用，整批不执行
var ErrInvalidRecords = errors.New("invalid device records")

// RequiredColumns 记录文件必需的列
var RequiredColumns = []string{"Device", "Serie", "Port", "User", "Password", "Ip-domain"}

// Row 记录文件的一行
type Row struct {
	Device   string `csv:"Device"`
	Serie    string `csv:"Serie"`
	Port     string `csv:"Port"`
	User     string `csv:"User"`
	Password string `csv:"Password"`
	Domain   string `csv:"Ip-domain"`
}

func (r *Row) values() []string {
	return []string{r.Device, r.Serie, r.Port, r.User, r.Password, r.Domain}
}

// Load 读取并校验全部记录；任何一行不合法都返回 ErrInvalidRecords
func Load(path, policy string) ([]model.DeviceRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecords, err)
	}
	return Parse(data, policy)
}

// Parse 从 CSV 内容解析记录
func Parse(data []byte, policy string) ([]model.DeviceRecord, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if err := checkHeader(data); err != nil {
		return nil, err
	}

	var rows []*Row
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecords, err)
	}

	out := make([]model.DeviceRecord, 0, len(rows))
	for i, r := range rows {
		line := i + 2
		for j, v := range r.values() {
			if strings.TrimSpace(v) == "" {
				return nil, fmt.Errorf("%w: line %d: empty %s", ErrInvalidRecords, line, RequiredColumns[j])
			}
		}
		serial := strings.TrimSpace(r.Serie)
		out = append(out, model.DeviceRecord{
			Port:      strings.TrimSpace(r.Port),
			Hostname:  model.DeriveHostname(r.Device, serial, policy),
			User:      strings.TrimSpace(r.User),
			Secret:    r.Password,
			Domain:    strings.TrimSpace(r.Domain),
			DeviceTag: strings.TrimSpace(r.Device),
			Serial:    serial,
			Line:      line,
		})
	}
	return out, nil
}

// checkHeader 只读取表头，确认必需列齐全
func checkHeader(data []byte) error {
	header, err := csv.NewReader(bytes.NewReader(data)).Read()
	if err != nil {
		return fmt.Errorf("%w: read header: %v", ErrInvalidRecords, err)
	}
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[strings.TrimSpace(h)] = true
	}
	var missing []string
	for _, c := range RequiredColumns {
		if !present[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing columns %s", ErrInvalidRecords, strings.Join(missing, ", "))
	}
	return nil
}
