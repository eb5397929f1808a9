package model

import "time"

// Device 本地清单中的设备
// - name: 主机名或 IP，唯一
// - family: 选填，空表示自动探测
// - recorded_version: 最近一次成功探测（或外部清单）记录的版本
type Device struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Name            string    `gorm:"uniqueIndex;not null" json:"name"`
	Port            int       `gorm:"not null;default:22" json:"port"`
	Family          string    `gorm:"column:family" json:"family,omitempty"`
	RecordedVersion string    `gorm:"column:recorded_version;type:text" json:"recorded_version,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (Device) TableName() string { return "devices" }

// CheckRecord 单台主机一次检查的结果
type CheckRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RunID     string    `gorm:"index;not null" json:"run_id"`
	Host      string    `gorm:"index;not null" json:"host"`
	Family    string    `json:"family"`
	Command   string    `json:"command"`
	Class     string    `gorm:"not null" json:"class"`
	Output    string    `gorm:"type:text" json:"output"`
	Detail    string    `gorm:"type:text" json:"detail"`
	Drift     bool      `gorm:"not null;default:false" json:"drift"`
	CheckedAt time.Time `gorm:"index" json:"checked_at"`
}

func (CheckRecord) TableName() string { return "check_records" }
