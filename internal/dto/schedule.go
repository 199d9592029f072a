package dto

// ── 课表模块 DTO ──

// CreateScheduleRequest 手动添加课表请求
// validate 标签由 service 层校验（weekday / clock / palette 为自定义规则）
type CreateScheduleRequest struct {
	CourseCode string `json:"course_code" binding:"required" validate:"required,max=50"`
	Subject    string `json:"subject"     binding:"required" validate:"required,max=100"`
	Room       string `json:"room"        binding:"required" validate:"required,max=100"`
	Day        string `json:"day"         binding:"required" validate:"required,weekday"`
	Start      string `json:"start"       binding:"required" validate:"required,clock"`
	End        string `json:"end"         binding:"required" validate:"required,clock"`
	Color      string `json:"color"                          validate:"omitempty,palette"`
}

// UpdateScheduleRequest 修改课表请求，字段均可选
// Day/Start 变更时保持原时长；DurationHours 以新的开始时间重新计算结束时间
type UpdateScheduleRequest struct {
	CourseCode    *string `json:"course_code"    validate:"omitempty,min=1,max=50"`
	Subject       *string `json:"subject"        validate:"omitempty,min=1,max=100"`
	Room          *string `json:"room"           validate:"omitempty,min=1,max=100"`
	Day           *string `json:"day"            validate:"omitempty,weekday"`
	Start         *string `json:"start"          validate:"omitempty,clock"`
	End           *string `json:"end"            validate:"omitempty,clock"`
	DurationHours *int    `json:"duration_hours" validate:"omitempty,min=1,max=12"`
	Color         *string `json:"color"          validate:"omitempty,palette"`
}

// ExportRequest 导出路径参数
type ExportRequest struct {
	Format string `uri:"format" binding:"required,oneof=excel xlsx pdf ical ics"`
}

// ── 响应 ──

// ScheduleResponse 课表条目响应
type ScheduleResponse struct {
	ID          string `json:"id"`
	CourseCode  string `json:"course_code"`
	SubjectName string `json:"subject_name"`
	Day         string `json:"day"`
	StartTime   string `json:"start_time"` // HH:MM
	EndTime     string `json:"end_time"`   // HH:MM
	Room        string `json:"room"`       // 原始房间文本，缺省时为房间号
	RoomID      string `json:"room_id"`
	Floor       string `json:"floor,omitempty"`
	Color       string `json:"color"`
	Source      string `json:"source"`
}

// RowResult 导入时每个候选条目的结果，Entry 与 Reason 二选一
type RowResult struct {
	Page       int               `json:"page"`
	Line       int               `json:"line"`
	CourseCode string            `json:"course_code,omitempty"`
	Entry      *ScheduleResponse `json:"entry,omitempty"`
	Reason     string            `json:"reason,omitempty"`
	Detail     string            `json:"detail,omitempty"`
}

// ImportResponse 课表文件导入结果
type ImportResponse struct {
	Message  string         `json:"message"`
	Imported int            `json:"imported"`
	Replaced int64          `json:"replaced"` // 导入前清除的旧条目数
	Pages    int            `json:"pages"`
	Tables   int            `json:"tables"`
	Rows     []RowResult    `json:"rows"`
	Skipped  map[string]int `json:"skipped"`
}

// DeleteAllResponse 清空课表结果
type DeleteAllResponse struct {
	Deleted int64 `json:"deleted"`
}

// ExportFile 导出文件
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}
