package model

import (
	"time"
)

// ProvisionRun 一次批量配置运行
type ProvisionRun struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	RecordsPath string    `json:"records_path" gorm:"type:varchar(512)"`
	Total       int       `json:"total"`
	Configured  int       `json:"configured"`
	Skipped     int       `json:"skipped"`
	Status      string    `json:"status" gorm:"type:varchar(16);not null;default:'running'"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 表名
func (ProvisionRun) TableName() string {
	return "provision_runs"
}

// 运行状态
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusAborted   = "aborted"
)

// ProvisionOutcome 运行中单台设备的结果
type ProvisionOutcome struct {
	ID              uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	RunID           string    `json:"run_id" gorm:"type:varchar(64);not null;index"`
	Seq             int       `json:"seq"`
	Port            string    `json:"port" gorm:"type:varchar(128)"`
	Hostname        string    `json:"hostname" gorm:"type:varchar(128);index"`
	ExpectedSerial  string    `json:"expected_serial" gorm:"type:varchar(64)"`
	ExtractedSerial string    `json:"extracted_serial" gorm:"type:varchar(64)"`
	Status          string    `json:"status" gorm:"type:varchar(32);not null"`
	Reason          string    `json:"reason" gorm:"type:text"`
	CommandsSent    int       `json:"commands_sent"`
	TranscriptURI   string    `json:"transcript_uri" gorm:"type:varchar(512)"`
	Duration        int64     `json:"duration"` // 毫秒
	CreatedAt       time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 表名
func (ProvisionOutcome) TableName() string {
	return "provision_outcomes"
}

// StatusRecord 状态采集模式记录的接口摘要
type StatusRecord struct {
	ID         uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Port       string    `json:"port" gorm:"type:varchar(128)"`
	Serial     string    `json:"serial" gorm:"type:varchar(64);index"`
	Interfaces string    `json:"interfaces" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 表名
func (StatusRecord) TableName() string {
	return "status_records"
}
