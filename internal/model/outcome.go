package model

import "time"

// OutcomeStatus 单台设备的处理结果
type OutcomeStatus string

const (
	StatusConfigured       OutcomeStatus = "configured"
	StatusSkippedNoSerial  OutcomeStatus = "skipped_no_serial"
	StatusSkippedMismatch  OutcomeStatus = "skipped_mismatch"
	StatusSkippedPortError OutcomeStatus = "skipped_port_error"
	StatusSkippedException OutcomeStatus = "skipped_exception"
)

// IsConfigured 是否完成配置
func (s OutcomeStatus) IsConfigured() bool { return s == StatusConfigured }

// Label 面向操作员的中文描述
func (s OutcomeStatus) Label() string {
	switch s {
	case StatusConfigured:
		return "已配置"
	case StatusSkippedNoSerial:
		return "跳过：未读到序列号"
	case StatusSkippedMismatch:
		return "跳过：序列号不匹配"
	case StatusSkippedPortError:
		return "跳过：串口不可用"
	case StatusSkippedException:
		return "跳过：会话异常"
	default:
		return string(s)
	}
}

// ProvisionState 单台设备处理过程中的阶段
type ProvisionState string

const (
	StateIdle          ProvisionState = "idle"
	StateConnecting    ProvisionState = "connecting"
	StateIdentityCheck ProvisionState = "identity_check"
	StateConfiguring   ProvisionState = "configuring"
	StateSkipped       ProvisionState = "skipped"
	StateClosed        ProvisionState = "closed"
)

// Transition 阶段变更记录
type Transition struct {
	From ProvisionState `json:"from"`
	To   ProvisionState `json:"to"`
	At   time.Time      `json:"at"`
}

// Outcome 单台设备处理结果
type Outcome struct {
	Record          DeviceRecord  `json:"record"`
	Status          OutcomeStatus `json:"status"`
	Reason          string        `json:"reason,omitempty"`
	ExtractedSerial string        `json:"extracted_serial,omitempty"`
	CommandsSent    int           `json:"commands_sent"`
	TranscriptURI   string        `json:"transcript_uri,omitempty"`
	StartedAt       time.Time     `json:"started_at"`
	FinishedAt      time.Time     `json:"finished_at"`
	Trace           []Transition  `json:"trace"`
}

// Duration 处理耗时
func (o Outcome) Duration() time.Duration {
	if o.FinishedAt.IsZero() {
		return 0
	}
	return o.FinishedAt.Sub(o.StartedAt)
}
