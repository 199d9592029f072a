package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"umap/backend/internal/dto"
	"umap/backend/internal/floorplan"
	"umap/backend/internal/model"
	"umap/backend/internal/repository"
)

// ── 运维批处理业务错误 ──

var (
	ErrRoomRefEmpty = errors.New("房间名称参考表为空，请检查 CSV 文件")
)

// 批处理命令名
const (
	CmdFixRoomNumbers  = "fix-room-numbers"
	CmdUpdateRoomNames = "update-room-names"
	CmdFixSpecialRooms = "fix-special-rooms"
)

// MaintenanceService 房间数据批处理；dryRun 时只生成变更预览
type MaintenanceService interface {
	FixRoomNumbers(ctx context.Context, dryRun bool) (*dto.MaintenanceReport, error)
	UpdateRoomNames(ctx context.Context, floorName string, dryRun bool) (*dto.MaintenanceReport, error)
	FixSpecialRooms(ctx context.Context, dryRun bool) (*dto.MaintenanceReport, error)
	// ReloadRoomRef 丢弃并立即重新加载房间名称参考表
	ReloadRoomRef(ctx context.Context) (*dto.RoomRefReloadResponse, error)
}

type maintenanceService struct {
	repo   *repository.Repository
	names  RoomReference
	logger *zap.Logger
}

// NewMaintenanceService 创建 MaintenanceService 实例
func NewMaintenanceService(repo *repository.Repository, names RoomReference, logger *zap.Logger) MaintenanceService {
	return &maintenanceService{repo: repo, names: names, logger: logger}
}

// ────────────────────── fix-room-numbers ──────────────────────
//
// 房间号改为档案名称末 3 位（1-9 层）或末 4 位（10 层以上），去掉前导零；
// 普通教室的名称同步为 "Room N"、类型置为 Classroom。占位房间不处理。

func (s *maintenanceService) FixRoomNumbers(ctx context.Context, dryRun bool) (*dto.MaintenanceReport, error) {
	profiles, err := s.repo.Room.ListProfiles(ctx)
	if err != nil {
		s.logger.Error("查询房间档案失败", zap.Error(err))
		return nil, err
	}

	report := newReport(CmdFixRoomNumbers, dryRun)
	var changed []*model.RoomProfile
	for i := range profiles {
		p := &profiles[i]
		report.Scanned++
		if p.IsPlaceholder() || p.Room == nil || p.Room.Floor == nil {
			report.Skipped++
			continue
		}
		level, ok := FloorLevelFromName(p.Room.Floor.Name)
		if !ok {
			s.logger.Warn("无法从楼层名解析楼层号", zap.String("floor", p.Room.Floor.Name))
			report.Skipped++
			continue
		}

		number := ExtractRoomNumber(p.Name, level)
		name := "Room " + number
		plain := p.Type == "" || p.Type == defaultRoomType

		dirty := false
		if p.Number != number {
			addChange(report, p.RoomID, "number", p.Number, number)
			p.Number = number
			dirty = true
		}
		if plain && p.Name != name {
			addChange(report, p.RoomID, "name", p.Name, name)
			p.Name = name
			p.Type = defaultRoomType
			dirty = true
		}
		if dirty {
			report.Changed++
			changed = append(changed, p)
		}
	}

	return s.apply(ctx, report, changed)
}

// ────────────────────── update-room-names ──────────────────────

func (s *maintenanceService) UpdateRoomNames(ctx context.Context, floorName string, dryRun bool) (*dto.MaintenanceReport, error) {
	if s.names.Len() == 0 {
		return nil, ErrRoomRefEmpty
	}

	profiles, err := s.repo.Room.ListProfiles(ctx)
	if err != nil {
		s.logger.Error("查询房间档案失败", zap.Error(err))
		return nil, err
	}

	report := newReport(CmdUpdateRoomNames, dryRun)
	var changed []*model.RoomProfile
	for i := range profiles {
		p := &profiles[i]
		if floorName != "" && (p.Room == nil || p.Room.Floor == nil || p.Room.Floor.Name != floorName) {
			continue
		}
		report.Scanned++
		name, ok := s.names.Lookup(p.Number)
		if !ok {
			report.Skipped++
			continue
		}
		if p.Name == name {
			continue
		}
		addChange(report, p.RoomID, "name", p.Name, name)
		p.Name = name
		report.Changed++
		changed = append(changed, p)
	}

	return s.apply(ctx, report, changed)
}

// ────────────────────── fix-special-rooms ──────────────────────

func (s *maintenanceService) FixSpecialRooms(ctx context.Context, dryRun bool) (*dto.MaintenanceReport, error) {
	profiles, err := s.repo.Room.ListProfiles(ctx)
	if err != nil {
		s.logger.Error("查询房间档案失败", zap.Error(err))
		return nil, err
	}

	report := newReport(CmdFixSpecialRooms, dryRun)
	var changed []*model.RoomProfile
	for i := range profiles {
		p := &profiles[i]
		if p.Type != floorplan.TypeElevatorStairs {
			continue
		}
		report.Scanned++
		if p.Number == floorplan.TypeElevatorStairs {
			continue
		}
		addChange(report, p.RoomID, "number", p.Number, floorplan.TypeElevatorStairs)
		p.Number = floorplan.TypeElevatorStairs
		report.Changed++
		changed = append(changed, p)
	}

	return s.apply(ctx, report, changed)
}

// ────────────────────── reload ──────────────────────

func (s *maintenanceService) ReloadRoomRef(ctx context.Context) (*dto.RoomRefReloadResponse, error) {
	s.names.Invalidate()
	if err := s.names.Load(ctx); err != nil {
		s.logger.Warn("重新加载房间名称参考表失败", zap.Error(err))
		return nil, err
	}
	return &dto.RoomRefReloadResponse{Entries: s.names.Len()}, nil
}

// ── 内部辅助方法 ──

// apply 在同一事务内写回全部变更；dryRun 时不写库
func (s *maintenanceService) apply(ctx context.Context, report *dto.MaintenanceReport, changed []*model.RoomProfile) (*dto.MaintenanceReport, error) {
	if report.DryRun || len(changed) == 0 {
		s.logReport(report)
		return report, nil
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
	for _, p := range changed {
		if err := txRepo.Room.UpdateProfile(ctx, p); err != nil {
			if tx != nil {
				tx.Rollback()
			}
			s.logger.Error("更新房间档案失败", zap.String("room_id", p.RoomID), zap.Error(err))
			return nil, err
		}
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return nil, err
		}
	}

	s.logReport(report)
	return report, nil
}

func (s *maintenanceService) logReport(r *dto.MaintenanceReport) {
	s.logger.Info("批处理完成",
		zap.String("command", r.Command),
		zap.Bool("dry_run", r.DryRun),
		zap.Int("scanned", r.Scanned),
		zap.Int("changed", r.Changed),
		zap.Int("skipped", r.Skipped),
	)
}

func newReport(command string, dryRun bool) *dto.MaintenanceReport {
	return &dto.MaintenanceReport{
		Command: command,
		DryRun:  dryRun,
		Changes: []dto.MaintenanceChange{},
	}
}

func addChange(r *dto.MaintenanceReport, roomID, field, from, to string) {
	r.Changes = append(r.Changes, dto.MaintenanceChange{RoomID: roomID, Field: field, From: from, To: to})
}
