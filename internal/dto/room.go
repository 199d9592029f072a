package dto

// ── 楼层与房间 DTO ──

// CreateFloorRequest 创建楼层请求
type CreateFloorRequest struct {
	Name     string `json:"name"     binding:"required,min=1,max=100"`
	Building string `json:"building" binding:"required,min=1,max=100"`
}

// FloorResponse 楼层响应
type FloorResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Building  string `json:"building"`
	RoomCount int64  `json:"room_count"`
	CreatedAt string `json:"created_at"`
}

// RoomResponse 房间响应
type RoomResponse struct {
	ID          string                 `json:"id"`
	FloorID     string                 `json:"floor_id"`
	Floor       string                 `json:"floor,omitempty"`
	Number      string                 `json:"number"`
	Name        string                 `json:"name"`
	Type        string                 `json:"type"`
	Description string                 `json:"description,omitempty"`
	SVGRoomID   string                 `json:"svg_room_id,omitempty"`
	Coordinates map[string]interface{} `json:"coordinates,omitempty"`
}

// ── 平面图导入 ──

// FloorPlanImportRequest 平面图导入参数（multipart 表单字段）
type FloorPlanImportRequest struct {
	FloorID    string `form:"floor_id"    binding:"required"`
	FloorLevel int    `form:"floor_level" binding:"omitempty,min=1,max=99"`
	BuildingID string `form:"building_id" binding:"omitempty,numeric"`
}

// FloorPlanImportResponse 平面图导入结果
type FloorPlanImportResponse struct {
	FloorID string         `json:"floor_id"`
	Level   int            `json:"level"`
	Shapes  int            `json:"shapes"`
	Created int            `json:"created"`
	Updated int            `json:"updated"`
	Rooms   []RoomResponse `json:"rooms"`
}

// RoomRefReloadResponse 房间名称参考表重载结果
type RoomRefReloadResponse struct {
	Entries int `json:"entries"`
}

// ── 运维批处理 ──

// MaintenanceChange 一条字段变更
type MaintenanceChange struct {
	RoomID string `json:"room_id"`
	Field  string `json:"field"`
	From   string `json:"from"`
	To     string `json:"to"`
}

// MaintenanceReport 批处理结果；DryRun 时 Changes 仅为预览
type MaintenanceReport struct {
	Command string              `json:"command"`
	DryRun  bool                `json:"dry_run"`
	Scanned int                 `json:"scanned"`
	Changed int                 `json:"changed"`
	Skipped int                 `json:"skipped"`
	Changes []MaintenanceChange `json:"changes"`
}
