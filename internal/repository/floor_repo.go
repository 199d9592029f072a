package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"umap/backend/internal/model"
)

// FloorRepository 楼层数据访问接口
type FloorRepository interface {
	Create(ctx context.Context, floor *model.Floor) error
	GetByID(ctx context.Context, id string) (*model.Floor, error)
	First(ctx context.Context) (*model.Floor, error)
	FindByName(ctx context.Context, name, building string) (*model.Floor, error)
	List(ctx context.Context) ([]model.Floor, error)
	Update(ctx context.Context, floor *model.Floor) error
	Delete(ctx context.Context, id string) error
}

type floorRepo struct {
	db *gorm.DB
}

// NewFloorRepo 创建 FloorRepository 实例
func NewFloorRepo(db *gorm.DB) FloorRepository {
	return &floorRepo{db: db}
}

func (r *floorRepo) Create(ctx context.Context, floor *model.Floor) error {
	return r.db.WithContext(ctx).Create(floor).Error
}

func (r *floorRepo) GetByID(ctx context.Context, id string) (*model.Floor, error) {
	var floor model.Floor
	err := r.db.WithContext(ctx).
		Where("floor_id = ?", id).
		First(&floor).Error
	if err != nil {
		return nil, err
	}
	return &floor, nil
}

// First 最早创建的楼层
func (r *floorRepo) First(ctx context.Context) (*model.Floor, error) {
	var floor model.Floor
	err := r.db.WithContext(ctx).
		Order("created_at ASC, floor_id ASC").
		First(&floor).Error
	if err != nil {
		return nil, err
	}
	return &floor, nil
}

// FindByName 按楼层名与楼栋查找，不存在时返回 (nil, nil)
func (r *floorRepo) FindByName(ctx context.Context, name, building string) (*model.Floor, error) {
	var floor model.Floor
	err := r.db.WithContext(ctx).
		Where("name = ? AND building = ?", name, building).
		First(&floor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &floor, nil
}

func (r *floorRepo) List(ctx context.Context) ([]model.Floor, error) {
	var floors []model.Floor
	err := r.db.WithContext(ctx).
		Order("building ASC, name ASC").
		Find(&floors).Error
	return floors, err
}

func (r *floorRepo) Update(ctx context.Context, floor *model.Floor) error {
	return r.db.WithContext(ctx).
		Model(&model.Floor{}).
		Where("floor_id = ?", floor.FloorID).
		Updates(map[string]interface{}{
			"name":       floor.Name,
			"building":   floor.Building,
			"updated_by": floor.UpdatedBy,
		}).Error
}

func (r *floorRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("floor_id = ?", id).
		Delete(&model.Floor{}).Error
}
