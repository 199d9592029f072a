package service

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"umap/backend/internal/dto"
	"umap/backend/internal/floorplan"
	"umap/backend/internal/model"
	"umap/backend/internal/repository"
	pkgerrors "umap/backend/pkg/errors"
)

// ── 平面图模块业务错误 ──

var (
	ErrFloorPlanInvalid = errors.New("平面图 SVG 无法解析")
	ErrFloorLevel       = errors.New("无法确定楼层号，请在文件名中包含 HPSB{楼层} 或显式指定")
)

const defaultRoomType = "Classroom"

// RoomReference 房间名称参考表
type RoomReference interface {
	Lookup(key string) (string, bool)
	Load(ctx context.Context) error
	Invalidate()
	Len() int
}

// FloorPlanService 平面图导入业务接口
type FloorPlanService interface {
	// Import 解析 SVG 并为每个房间形状创建或更新 Room + RoomProfile（按楼层内 svg_room_id 去重）
	Import(ctx context.Context, req *dto.FloorPlanImportRequest, filename string, svg io.Reader, callerID string) (*dto.FloorPlanImportResponse, error)
}

type floorPlanService struct {
	buildingID string
	repo       *repository.Repository
	names      RoomReference
	logger     *zap.Logger
}

// NewFloorPlanService 创建 FloorPlanService 实例
func NewFloorPlanService(buildingID string, repo *repository.Repository, names RoomReference, logger *zap.Logger) FloorPlanService {
	return &floorPlanService{buildingID: buildingID, repo: repo, names: names, logger: logger}
}

func (s *floorPlanService) Import(ctx context.Context, req *dto.FloorPlanImportRequest, filename string, svg io.Reader, callerID string) (*dto.FloorPlanImportResponse, error) {
	floor, err := s.repo.Floor.GetByID(ctx, req.FloorID)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, ErrFloorNotFound
		}
		s.logger.Error("查询楼层失败", zap.String("floor_id", req.FloorID), zap.Error(err))
		return nil, err
	}

	building := req.BuildingID
	if building == "" {
		building = s.buildingID
	}
	opts := floorplan.ResolveOptions(filename, floorplan.Options{BuildingID: building, Floor: req.FloorLevel})
	if opts.Floor == 0 {
		opts.Floor, _ = FloorLevelFromName(floor.Name)
	}
	if opts.Floor == 0 {
		return nil, ErrFloorLevel
	}

	shapes, err := floorplan.NewExtractor(opts, s.names).Extract(svg)
	if err != nil {
		s.logger.Warn("SVG 解析失败", zap.String("file", filename), zap.Error(err))
		return nil, ErrFloorPlanInvalid
	}

	resp := &dto.FloorPlanImportResponse{
		FloorID: floor.FloorID,
		Level:   opts.Floor,
		Shapes:  len(shapes),
		Rooms:   make([]dto.RoomResponse, 0, len(shapes)),
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
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

	for _, shape := range shapes {
		room, created, err := s.upsertShape(ctx, txRepo, floor, opts.Floor, shape, callerID)
		if err != nil {
			if tx != nil {
				tx.Rollback()
			}
			s.logger.Error("写入平面图房间失败", zap.String("svg_id", shape.ID), zap.Error(err))
			return nil, err
		}
		if created {
			resp.Created++
		} else {
			resp.Updated++
		}
		resp.Rooms = append(resp.Rooms, toRoomResponse(room))
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return nil, err
		}
	}

	s.logger.Info("平面图导入完成",
		zap.String("floor_id", floor.FloorID),
		zap.Int("level", opts.Floor),
		zap.Int("shapes", resp.Shapes),
		zap.Int("created", resp.Created),
		zap.Int("updated", resp.Updated),
	)
	return resp, nil
}

func (s *floorPlanService) upsertShape(
	ctx context.Context,
	repo *repository.Repository,
	floor *model.Floor,
	level int,
	shape floorplan.Shape,
	callerID string,
) (*model.Room, bool, error) {
	number, name, kind := describeShape(shape, level)

	existing, err := repo.Room.FindBySVGID(ctx, floor.FloorID, shape.ID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		existing.Number = number
		existing.Name = name
		existing.Type = kind
		existing.Coordinates = shape.Coordinates()
		existing.UpdatedBy = &callerID
		if err := repo.Room.UpdateProfile(ctx, existing); err != nil {
			return nil, false, err
		}
		return &model.Room{RoomID: existing.RoomID, FloorID: floor.FloorID, Floor: floor, Profile: existing}, false, nil
	}

	svgID := shape.ID
	room := &model.Room{FloorID: floor.FloorID}
	room.CreatedBy = &callerID
	profile := &model.RoomProfile{
		Number:      number,
		Name:        name,
		Type:        kind,
		SVGRoomID:   &svgID,
		Coordinates: shape.Coordinates(),
	}
	profile.CreatedBy = &callerID
	if err := repo.Room.Create(ctx, room, profile); err != nil {
		return nil, false, err
	}
	room.Floor = floor
	return room, true, nil
}

// describeShape 由形状推断房间号、名称与类型
//   - 电梯/楼梯：房间号即类型名
//   - 消防通道（1..24 或 ID 含 fire exit）：房间号为 ID，类型 Fire Exit
//   - 其余：房间号取 ID 首段末 3/4 位，名称优先参考表，否则 "Room N"
func describeShape(shape floorplan.Shape, level int) (number, name, kind string) {
	kind = shape.RoomType
	switch {
	case shape.RoomName == floorplan.TypeElevatorStairs:
		return floorplan.TypeElevatorStairs, floorplan.TypeElevatorStairs, floorplan.TypeElevatorStairs
	case shape.RoomName == floorplan.TypeFireExit:
		return shape.ID, floorplan.TypeFireExit, floorplan.TypeFireExit
	}

	number = ExtractRoomNumber(strings.Fields(shape.ID)[0], level)
	name = shape.RoomName
	if name == "" {
		name = "Room " + number
	}
	if kind == "" {
		kind = defaultRoomType
		if n, err := strconv.Atoi(shape.ID); err == nil && n >= 1 && n <= 24 {
			kind = floorplan.TypeFireExit
		}
	}
	return number, name, kind
}

var floorLevel = regexp.MustCompile(`(\d+)(?:st|nd|rd|th)?`)

// FloorLevelFromName 从 "9th Floor"、"10th Floor" 一类的楼层名中取楼层号
func FloorLevelFromName(name string) (int, bool) {
	m := floorLevel.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// ExtractRoomNumber 单位数楼层取末 3 位、两位数楼层取末 4 位，去掉前导零
// 长度不足或末尾不是数字时原样返回
func ExtractRoomNumber(id string, level int) string {
	id = strings.TrimSpace(id)
	digits := 4
	if level <= 9 {
		digits = 3
	}
	if len(id) < digits {
		return id
	}
	tail := id[len(id)-digits:]
	if strings.Trim(tail, "0123456789") != "" {
		return id
	}
	n := strings.TrimLeft(tail, "0")
	if n == "" {
		return "0"
	}
	return n
}
