package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"umap/backend/internal/model"
)

// RoomRepository 房间与房间档案数据访问接口（Room Registry）
type RoomRepository interface {
	// 在同一事务内创建房间与档案
	Create(ctx context.Context, room *model.Room, profile *model.RoomProfile) error
	GetByID(ctx context.Context, id string) (*model.Room, error)
	ListByFloor(ctx context.Context, floorID string) ([]model.Room, error)
	CountByFloor(ctx context.Context, floorID string) (int64, error)
	ListProfiles(ctx context.Context) ([]model.RoomProfile, error)
	// 按房间号精确匹配，再按大小写不敏感匹配；占位房间不参与；找不到返回 (nil, nil)
	FindByNumber(ctx context.Context, number string) (*model.Room, error)
	// 在指定楼栋的楼层中按房间号（大小写不敏感）查找；占位房间不参与；找不到返回 (nil, nil)
	FindByBuildingNumber(ctx context.Context, building, number string) (*model.Room, error)
	// 同一楼层内按 SVG 元素 ID 查找；找不到返回 (nil, nil)
	FindBySVGID(ctx context.Context, floorID, svgID string) (*model.RoomProfile, error)
	// 共享占位房间；不存在时返回 gorm.ErrRecordNotFound
	GetPlaceholder(ctx context.Context) (*model.Room, error)
	UpdateProfile(ctx context.Context, profile *model.RoomProfile) error
	Delete(ctx context.Context, id string) error
}

type roomRepo struct {
	db *gorm.DB
}

// NewRoomRepo 创建 RoomRepository 实例
func NewRoomRepo(db *gorm.DB) RoomRepository {
	return &roomRepo{db: db}
}

func (r *roomRepo) Create(ctx context.Context, room *model.Room, profile *model.RoomProfile) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Profile", "Floor").Create(room).Error; err != nil {
			return err
		}
		profile.RoomID = room.RoomID
		if err := tx.Omit("Room").Create(profile).Error; err != nil {
			return err
		}
		room.Profile = profile
		return nil
	})
}

func (r *roomRepo) GetByID(ctx context.Context, id string) (*model.Room, error) {
	var room model.Room
	err := r.db.WithContext(ctx).
		Preload("Profile").
		Preload("Floor").
		Where("room_id = ?", id).
		First(&room).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *roomRepo) ListByFloor(ctx context.Context, floorID string) ([]model.Room, error) {
	var rooms []model.Room
	err := r.db.WithContext(ctx).
		Preload("Profile").
		Where("floor_id = ?", floorID).
		Order("created_at ASC").
		Find(&rooms).Error
	return rooms, err
}

func (r *roomRepo) CountByFloor(ctx context.Context, floorID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Room{}).
		Where("floor_id = ?", floorID).
		Count(&n).Error
	return n, err
}

func (r *roomRepo) ListProfiles(ctx context.Context) ([]model.RoomProfile, error) {
	var profiles []model.RoomProfile
	err := r.db.WithContext(ctx).
		Preload("Room.Floor").
		Order("number ASC").
		Find(&profiles).Error
	return profiles, err
}

func (r *roomRepo) FindByNumber(ctx context.Context, number string) (*model.Room, error) {
	var profile model.RoomProfile
	db := r.db.WithContext(ctx).Where("number <> ?", model.PlaceholderRoomNumber)

	err := db.Session(&gorm.Session{}).Where("number = ?", number).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = db.Session(&gorm.Session{}).Where("LOWER(number) = LOWER(?)", number).First(&profile).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, profile.RoomID)
}

func (r *roomRepo) FindByBuildingNumber(ctx context.Context, building, number string) (*model.Room, error) {
	var profile model.RoomProfile
	err := r.db.WithContext(ctx).
		Joins("JOIN rooms ON rooms.room_id = room_profiles.room_id").
		Joins("JOIN floors ON floors.floor_id = rooms.floor_id").
		Where("LOWER(floors.building) = LOWER(?)", building).
		Where("LOWER(room_profiles.number) = LOWER(?)", number).
		Where("room_profiles.number <> ?", model.PlaceholderRoomNumber).
		Order("room_profiles.created_at ASC").
		First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, profile.RoomID)
}

func (r *roomRepo) FindBySVGID(ctx context.Context, floorID, svgID string) (*model.RoomProfile, error) {
	var profile model.RoomProfile
	err := r.db.WithContext(ctx).
		Joins("JOIN rooms ON rooms.room_id = room_profiles.room_id").
		Where("rooms.floor_id = ? AND room_profiles.svg_room_id = ?", floorID, svgID).
		First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *roomRepo) GetPlaceholder(ctx context.Context) (*model.Room, error) {
	var profile model.RoomProfile
	err := r.db.WithContext(ctx).
		Where("number = ?", model.PlaceholderRoomNumber).
		First(&profile).Error
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, profile.RoomID)
}

func (r *roomRepo) UpdateProfile(ctx context.Context, profile *model.RoomProfile) error {
	return r.db.WithContext(ctx).
		Model(&model.RoomProfile{}).
		Where("room_profile_id = ?", profile.RoomProfileID).
		Updates(map[string]interface{}{
			"number":      profile.Number,
			"name":        profile.Name,
			"type":        profile.Type,
			"description": profile.Description,
			"svg_room_id": profile.SVGRoomID,
			"coordinates": profile.Coordinates,
			"updated_by":  profile.UpdatedBy,
		}).Error
}

func (r *roomRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("room_id = ?", id).Delete(&model.RoomProfile{}).Error; err != nil {
			return err
		}
		return tx.Where("room_id = ?", id).Delete(&model.Room{}).Error
	})
}
