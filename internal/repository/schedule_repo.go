package repository

import (
	"context"

	"gorm.io/gorm"

	"umap/backend/internal/model"
)

// ScheduleRepository 用户课表数据访问接口，所有查询按用户隔离
type ScheduleRepository interface {
	Create(ctx context.Context, entry *model.ScheduleEntry) error
	GetByID(ctx context.Context, userID, id string) (*model.ScheduleEntry, error)
	ListByUser(ctx context.Context, userID string) ([]model.ScheduleEntry, error)
	ListByUserDay(ctx context.Context, userID, day string) ([]model.ScheduleEntry, error)
	Update(ctx context.Context, entry *model.ScheduleEntry) error
	UpdateColor(ctx context.Context, id, color string) error
	Delete(ctx context.Context, userID, id string) error
	DeleteByUser(ctx context.Context, userID string) (int64, error)
	CountByRoom(ctx context.Context, roomID string) (int64, error)
}

type scheduleRepo struct {
	db *gorm.DB
}

// NewScheduleRepo 创建 ScheduleRepository 实例
func NewScheduleRepo(db *gorm.DB) ScheduleRepository {
	return &scheduleRepo{db: db}
}

func (r *scheduleRepo) Create(ctx context.Context, entry *model.ScheduleEntry) error {
	return r.db.WithContext(ctx).Omit("Room").Create(entry).Error
}

func (r *scheduleRepo) GetByID(ctx context.Context, userID, id string) (*model.ScheduleEntry, error) {
	var entry model.ScheduleEntry
	err := r.db.WithContext(ctx).
		Preload("Room.Profile").
		Where("schedule_entry_id = ? AND user_id = ?", id, userID).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListByUser 按创建顺序返回，展示顺序由业务层统一排序
func (r *scheduleRepo) ListByUser(ctx context.Context, userID string) ([]model.ScheduleEntry, error) {
	var entries []model.ScheduleEntry
	err := r.db.WithContext(ctx).
		Preload("Room.Profile").
		Preload("Room.Floor").
		Where("user_id = ?", userID).
		Order("created_at ASC, schedule_entry_id ASC").
		Find(&entries).Error
	return entries, err
}

func (r *scheduleRepo) ListByUserDay(ctx context.Context, userID, day string) ([]model.ScheduleEntry, error) {
	var entries []model.ScheduleEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND day = ?", userID, day).
		Order("start_time ASC").
		Find(&entries).Error
	return entries, err
}

func (r *scheduleRepo) Update(ctx context.Context, entry *model.ScheduleEntry) error {
	return r.db.WithContext(ctx).
		Model(&model.ScheduleEntry{}).
		Where("schedule_entry_id = ? AND user_id = ?", entry.ScheduleEntryID, entry.UserID).
		Updates(map[string]interface{}{
			"room_id":     entry.RoomID,
			"course_code": entry.CourseCode,
			"subject":     entry.Subject,
			"day":         entry.Day,
			"start_time":  entry.StartTime,
			"end_time":    entry.EndTime,
			"color":       entry.Color,
			"room_text":   entry.RoomText,
			"updated_by":  entry.UpdatedBy,
		}).Error
}

func (r *scheduleRepo) UpdateColor(ctx context.Context, id, color string) error {
	return r.db.WithContext(ctx).
		Model(&model.ScheduleEntry{}).
		Where("schedule_entry_id = ?", id).
		Update("color", color).Error
}

func (r *scheduleRepo) Delete(ctx context.Context, userID, id string) error {
	result := r.db.WithContext(ctx).
		Where("schedule_entry_id = ? AND user_id = ?", id, userID).
		Delete(&model.ScheduleEntry{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *scheduleRepo) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.ScheduleEntry{})
	return result.RowsAffected, result.Error
}

func (r *scheduleRepo) CountByRoom(ctx context.Context, roomID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.ScheduleEntry{}).
		Where("room_id = ?", roomID).
		Count(&n).Error
	return n, err
}
