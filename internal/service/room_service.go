package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"umap/backend/internal/dto"
	"umap/backend/internal/model"
	"umap/backend/internal/repository"
	pkgerrors "umap/backend/pkg/errors"
)

// ── 楼层/房间模块业务错误 ──

var (
	ErrFloorNotFound = errors.New("楼层不存在")
	ErrFloorExists   = errors.New("同一楼栋下楼层名称已存在")
	ErrRoomNotFound  = errors.New("房间不存在")
	ErrRoomInUse     = errors.New("房间仍被课表引用，无法删除")
	ErrRoomProtected = errors.New("占位房间不可删除")
)

// RoomService 楼层与房间登记业务接口
type RoomService interface {
	ListFloors(ctx context.Context) ([]dto.FloorResponse, error)
	CreateFloor(ctx context.Context, req *dto.CreateFloorRequest, callerID string) (*dto.FloorResponse, error)
	ListRooms(ctx context.Context, floorID string) ([]dto.RoomResponse, error)
	GetRoomByNumber(ctx context.Context, number string) (*dto.RoomResponse, error)
	// DeleteRoom 删除房间及其档案；仍有课表引用或为占位房间时拒绝
	DeleteRoom(ctx context.Context, id string) error

	// ResolveRoom 按房间号找登记房间（精确 → 大小写不敏感 → 同楼栋的纯房间号），
	// 找不到时返回共享占位房间
	ResolveRoom(ctx context.Context, roomText string) (*model.Room, error)
	// EnsurePlaceholder 获取或创建共享占位房间
	EnsurePlaceholder(ctx context.Context) (*model.Room, error)
}

type roomService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewRoomService 创建 RoomService 实例
func NewRoomService(repo *repository.Repository, logger *zap.Logger) RoomService {
	return &roomService{repo: repo, logger: logger}
}

// ────────────────────── Floors ──────────────────────

func (s *roomService) ListFloors(ctx context.Context) ([]dto.FloorResponse, error) {
	floors, err := s.repo.Floor.List(ctx)
	if err != nil {
		s.logger.Error("列出楼层失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.FloorResponse, 0, len(floors))
	for i := range floors {
		n, err := s.repo.Room.CountByFloor(ctx, floors[i].FloorID)
		if err != nil {
			s.logger.Error("统计楼层房间失败", zap.String("floor_id", floors[i].FloorID), zap.Error(err))
			return nil, err
		}
		result = append(result, toFloorResponse(&floors[i], n))
	}
	return result, nil
}

func (s *roomService) CreateFloor(ctx context.Context, req *dto.CreateFloorRequest, callerID string) (*dto.FloorResponse, error) {
	name := strings.TrimSpace(req.Name)
	building := strings.TrimSpace(req.Building)

	existing, err := s.repo.Floor.FindByName(ctx, name, building)
	if err != nil {
		s.logger.Error("查询楼层失败", zap.Error(err))
		return nil, err
	}
	if existing != nil {
		return nil, ErrFloorExists
	}

	floor := &model.Floor{Name: name, Building: building}
	floor.CreatedBy = &callerID
	floor.UpdatedBy = &callerID
	if err := s.repo.Floor.Create(ctx, floor); err != nil {
		s.logger.Error("创建楼层失败", zap.Error(err))
		return nil, err
	}

	resp := toFloorResponse(floor, 0)
	return &resp, nil
}

// ────────────────────── Rooms ──────────────────────

func (s *roomService) ListRooms(ctx context.Context, floorID string) ([]dto.RoomResponse, error) {
	floor, err := s.repo.Floor.GetByID(ctx, floorID)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, ErrFloorNotFound
		}
		s.logger.Error("查询楼层失败", zap.String("floor_id", floorID), zap.Error(err))
		return nil, err
	}

	rooms, err := s.repo.Room.ListByFloor(ctx, floorID)
	if err != nil {
		s.logger.Error("列出房间失败", zap.String("floor_id", floorID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.RoomResponse, 0, len(rooms))
	for i := range rooms {
		rooms[i].Floor = floor
		result = append(result, toRoomResponse(&rooms[i]))
	}
	return result, nil
}

func (s *roomService) GetRoomByNumber(ctx context.Context, number string) (*dto.RoomResponse, error) {
	room, err := s.repo.Room.FindByNumber(ctx, strings.TrimSpace(number))
	if err != nil {
		s.logger.Error("按房间号查询失败", zap.String("number", number), zap.Error(err))
		return nil, err
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}
	resp := toRoomResponse(room)
	return &resp, nil
}

func (s *roomService) DeleteRoom(ctx context.Context, id string) error {
	room, err := s.repo.Room.GetByID(ctx, id)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return ErrRoomNotFound
		}
		s.logger.Error("查询房间失败", zap.String("room_id", id), zap.Error(err))
		return err
	}
	if room.Profile != nil && room.Profile.IsPlaceholder() {
		return ErrRoomProtected
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	txRepo := s.repo.WithTx(tx)
	n, err := txRepo.Schedule.CountByRoom(ctx, id)
	if err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("统计房间课表失败", zap.String("room_id", id), zap.Error(err))
		return err
	}
	if n > 0 {
		if tx != nil {
			tx.Rollback()
		}
		return fmt.Errorf("%w: %d 条课表", ErrRoomInUse, n)
	}

	if err := txRepo.Room.Delete(ctx, id); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("删除房间失败", zap.String("room_id", id), zap.Error(err))
		return err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return err
		}
	}

	s.logger.Info("已删除房间", zap.String("room_id", id))
	return nil
}

// ────────────────────── Resolve ──────────────────────

func (s *roomService) ResolveRoom(ctx context.Context, roomText string) (*model.Room, error) {
	number := strings.TrimSpace(roomText)
	if number != "" && !strings.EqualFold(number, model.PlaceholderRoomNumber) {
		room, err := s.repo.Room.FindByNumber(ctx, number)
		if err != nil {
			return nil, err
		}
		if room != nil {
			return room, nil
		}

		// 平面图导入的房间只登记纯房间号，楼栋记在楼层上
		if building, bare, ok := splitBuildingNumber(number); ok {
			room, err = s.repo.Room.FindByBuildingNumber(ctx, building, bare)
			if err != nil {
				return nil, err
			}
			if room != nil {
				return room, nil
			}
		}
		s.logger.Debug("房间未登记，使用占位房间", zap.String("room", number))
	}
	return s.EnsurePlaceholder(ctx)
}

// splitBuildingNumber 拆分 "HPSB 1009" 形式的房间文本
func splitBuildingNumber(text string) (building, number string, ok bool) {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return "", "", false
	}
	building, number = fields[0], fields[1]
	if strings.ContainsAny(building, "0123456789") || !strings.ContainsAny(number, "0123456789") {
		return "", "", false
	}
	return building, number, true
}

func (s *roomService) EnsurePlaceholder(ctx context.Context) (*model.Room, error) {
	room, err := s.repo.Room.GetPlaceholder(ctx)
	if err == nil {
		return room, nil
	}
	if !pkgerrors.IsNotFound(err) {
		s.logger.Error("查询占位房间失败", zap.Error(err))
		return nil, err
	}

	floor, err := s.defaultFloor(ctx)
	if err != nil {
		return nil, err
	}

	room = &model.Room{FloorID: floor.FloorID}
	profile := &model.RoomProfile{
		Number: model.PlaceholderRoomNumber,
		Name:   model.PlaceholderRoomName,
		Type:   model.PlaceholderRoomType,
	}
	if err := s.repo.Room.Create(ctx, room, profile); err != nil {
		// 并发请求先一步创建了占位房间
		if pkgerrors.IsUniqueViolation(err) {
			return s.repo.Room.GetPlaceholder(ctx)
		}
		s.logger.Error("创建占位房间失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("已创建占位房间", zap.String("room_id", room.RoomID), zap.String("floor_id", floor.FloorID))
	return room, nil
}

// defaultFloor 占位房间挂在最早的楼层下；没有任何楼层时创建默认楼层
func (s *roomService) defaultFloor(ctx context.Context) (*model.Floor, error) {
	floor, err := s.repo.Floor.First(ctx)
	if err == nil {
		return floor, nil
	}
	if !pkgerrors.IsNotFound(err) {
		s.logger.Error("查询楼层失败", zap.Error(err))
		return nil, err
	}

	floor, err = s.repo.Floor.FindByName(ctx, model.DefaultFloorName, model.DefaultBuildingName)
	if err != nil {
		return nil, err
	}
	if floor != nil {
		return floor, nil
	}

	floor = &model.Floor{Name: model.DefaultFloorName, Building: model.DefaultBuildingName}
	if err := s.repo.Floor.Create(ctx, floor); err != nil {
		s.logger.Error("创建默认楼层失败", zap.Error(err))
		return nil, err
	}
	return floor, nil
}

// ── 内部辅助方法 ──

func toFloorResponse(f *model.Floor, roomCount int64) dto.FloorResponse {
	return dto.FloorResponse{
		ID:        f.FloorID,
		Name:      f.Name,
		Building:  f.Building,
		RoomCount: roomCount,
		CreatedAt: f.CreatedAt.Format(time.RFC3339),
	}
}

func toRoomResponse(r *model.Room) dto.RoomResponse {
	resp := dto.RoomResponse{ID: r.RoomID, FloorID: r.FloorID}
	if r.Floor != nil {
		resp.Floor = r.Floor.Name
	}
	if p := r.Profile; p != nil {
		resp.Number = p.Number
		resp.Name = p.Name
		resp.Type = p.Type
		resp.Description = p.Description
		if p.SVGRoomID != nil {
			resp.SVGRoomID = *p.SVGRoomID
		}
		if len(p.Coordinates) > 0 {
			resp.Coordinates = p.Coordinates
		}
	}
	return resp
}
