package repository_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"umap/backend/config"
	"umap/backend/internal/model"
	"umap/backend/internal/repository"
	"umap/backend/pkg/database"
	pkgerrors "umap/backend/pkg/errors"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

// newTestDB 每个测试使用独立的 sqlite 文件
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "umap_test.db"),
	}
	logger := zap.NewNop()
	db, err := database.NewDB(cfg, "error", logger)
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}
	if err := database.Migrate(db, "sqlite", logger, model.All()...); err != nil {
		t.Fatalf("迁移失败: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// seedRoom 创建楼层下的一个房间
func seedRoom(t *testing.T, repo *repository.Repository, floorID, number string) *model.Room {
	t.Helper()
	room := &model.Room{FloorID: floorID}
	profile := &model.RoomProfile{Number: number, Name: "Room " + number, Type: "Classroom"}
	if err := repo.Room.Create(context.Background(), room, profile); err != nil {
		t.Fatalf("创建房间 %s 失败: %v", number, err)
	}
	return room
}

func seedFloor(t *testing.T, repo *repository.Repository, name string) *model.Floor {
	t.Helper()
	floor := &model.Floor{Name: name, Building: "HPSB"}
	if err := repo.Floor.Create(context.Background(), floor); err != nil {
		t.Fatalf("创建楼层失败: %v", err)
	}
	return floor
}

// ═══════════════════════════════════════════════════════════
// Test: Room Registry
// ═══════════════════════════════════════════════════════════

func TestRoom_FindByNumber(t *testing.T) {
	repo := repository.NewRepository(newTestDB(t))
	ctx := context.Background()
	floor := seedFloor(t, repo, "10th Floor")
	room := seedRoom(t, repo, floor.FloorID, "HPSB 1009")

	got, err := repo.Room.FindByNumber(ctx, "HPSB 1009")
	if err != nil || got == nil {
		t.Fatalf("精确匹配应命中: room=%v err=%v", got, err)
	}
	if got.RoomID != room.RoomID {
		t.Errorf("期望 %s，实际 %s", room.RoomID, got.RoomID)
	}
	if got.Profile == nil || got.Floor == nil {
		t.Error("应预加载 Profile 与 Floor")
	}

	got, err = repo.Room.FindByNumber(ctx, "hpsb 1009")
	if err != nil || got == nil || got.RoomID != room.RoomID {
		t.Errorf("大小写不敏感匹配应命中: room=%v err=%v", got, err)
	}

	got, err = repo.Room.FindByNumber(ctx, "HPSB 9999")
	if err != nil || got != nil {
		t.Errorf("未登记房间应返回 (nil, nil)，实际 room=%v err=%v", got, err)
	}
}

func TestRoom_FindByNumber_IgnoresPlaceholder(t *testing.T) {
	repo := repository.NewRepository(newTestDB(t))
	floor := seedFloor(t, repo, model.DefaultFloorName)
	seedRoom(t, repo, floor.FloorID, model.PlaceholderRoomNumber)

	got, err := repo.Room.FindByNumber(context.Background(), "tba")
	if err != nil || got != nil {
		t.Errorf("占位房间不应参与匹配，实际 room=%v err=%v", got, err)
	}
}

func TestRoom_PlaceholderUnique(t *testing.T) {
	repo := repository.NewRepository(newTestDB(t))
	ctx := context.Background()
	floor := seedFloor(t, repo, model.DefaultFloorName)

	if _, err := repo.Room.GetPlaceholder(ctx); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("期望 ErrRecordNotFound，实际 %v", err)
	}

	first := seedRoom(t, repo, floor.FloorID, model.PlaceholderRoomNumber)

	dup := &model.Room{FloorID: floor.FloorID}
	err := repo.Room.Create(ctx, dup, &model.RoomProfile{Number: model.PlaceholderRoomNumber})
	if !pkgerrors.IsUniqueViolation(err) {
		t.Fatalf("第二个占位房间应违反唯一约束，实际 %v", err)
	}

	got, err := repo.Room.GetPlaceholder(ctx)
	if err != nil {
		t.Fatalf("获取占位房间失败: %v", err)
	}
	if got.RoomID != first.RoomID {
		t.Errorf("期望 %s，实际 %s", first.RoomID, got.RoomID)
	}
	n, _ := repo.Room.CountByFloor(ctx, floor.FloorID)
	if n != 1 {
		t.Errorf("失败的创建应整体回滚，期望 1 个房间，实际 %d", n)
	}
}

func TestRoom_FindByBuildingNumber(t *testing.T) {
	repo := repository.NewRepository(newTestDB(t))
	ctx := context.Background()
	hpsb := seedFloor(t, repo, "10th Floor")
	elb := &model.Floor{Name: "2nd Floor", Building: "ELB"}
	if err := repo.Floor.Create(ctx, elb); err != nil {
		t.Fatalf("创建楼层失败: %v", err)
	}
	room := seedRoom(t, repo, hpsb.FloorID, "1009")
	seedRoom(t, repo, elb.FloorID, "2001")
	seedRoom(t, repo, hpsb.FloorID, model.PlaceholderRoomNumber)

	got, err := repo.Room.FindByBuildingNumber(ctx, "hpsb", "1009")
	if err != nil || got == nil {
		t.Fatalf("应按楼栋与房间号命中: room=%v err=%v", got, err)
	}
	if got.RoomID != room.RoomID || got.Floor == nil || got.Floor.Building != "HPSB" {
		t.Errorf("期望 %s（HPSB），实际 %+v", room.RoomID, got)
	}

	for _, c := range [][2]string{{"HPSB", "2001"}, {"ELB", "1009"}, {"HPSB", "tba"}} {
		got, err := repo.Room.FindByBuildingNumber(ctx, c[0], c[1])
		if err != nil || got != nil {
			t.Errorf("%s %s 不应命中，实际 room=%v err=%v", c[0], c[1], got, err)
		}
	}
}

func TestRoom_FindBySVGID(t *testing.T) {
	repo := repository.NewRepository(newTestDB(t))
	ctx := context.Background()
	f10 := seedFloor(t, repo, "10th Floor")
	f9 := seedFloor(t, repo, "9th Floor")

	svgID := "101009"
	room := &model.Room{FloorID: f10.FloorID}
	profile := &model.RoomProfile{Number: "1009", SVGRoomID: &svgID, Coordinates: model.JSONMap{"x": 1.5}}
	if err := repo.Room.Create(ctx, room, profile); err != nil {
		t.Fatalf("创建失败: %v", err)
	}

	got, err := repo.Room.FindBySVGID(ctx, f10.FloorID, svgID)
	if err != nil || got == nil {
		t.Fatalf("应按楼层与 SVG ID 命中: %v", err)
	}
	if got.Coordinates["x"] != 1.5 {
		t.Errorf("坐标应原样读回，实际 %v", got.Coordinates)
	}

	got, err = repo.Room.FindBySVGID(ctx, f9.FloorID, svgID)
	if err != nil || got != nil {
		t.Errorf("其他楼层不应命中，实际 %v %v", got, err)
	}
}

func TestRoom_Delete(t *testing.T) {
	repo := repository.NewRepository(newTestDB(t))
	ctx := context.Background()
	floor := seedFloor(t, repo, "10th Floor")
	room := seedRoom(t, repo, floor.FloorID, "1001")

	if err := repo.Room.Delete(ctx, room.RoomID); err != nil {
		t.Fatalf("删除失败: %v", err)
	}
	if _, err := repo.Room.GetByID(ctx, room.RoomID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("期望 ErrRecordNotFound，实际 %v", err)
	}
	profiles, _ := repo.Room.ListProfiles(ctx)
	if len(profiles) != 0 {
		t.Errorf("档案应一并删除，剩余 %d", len(profiles))
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Schedule Store
// ═══════════════════════════════════════════════════════════

func newEntry(userID, roomID, day, start, end string) *model.ScheduleEntry {
	return &model.ScheduleEntry{
		UserID:     userID,
		RoomID:     roomID,
		CourseCode: "CS101",
		Subject:    "Programming",
		Day:        day,
		StartTime:  start,
		EndTime:    end,
		Color:      "blue",
		Source:     model.ScheduleSourceUpload,
	}
}

func TestSchedule_UserIsolation(t *testing.T) {
	repo := repository.NewRepository(newTestDB(t))
	ctx := context.Background()
	floor := seedFloor(t, repo, "10th Floor")
	room := seedRoom(t, repo, floor.FloorID, "1001")

	mine := newEntry("user-a", room.RoomID, "Monday", "08:00", "09:30")
	theirs := newEntry("user-b", room.RoomID, "Monday", "08:00", "09:30")
	for _, e := range []*model.ScheduleEntry{mine, theirs} {
		if err := repo.Schedule.Create(ctx, e); err != nil {
			t.Fatalf("创建失败: %v", err)
		}
	}

	if _, err := repo.Schedule.GetByID(ctx, "user-a", theirs.ScheduleEntryID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("不应读取他人课表，实际 %v", err)
	}
	if err := repo.Schedule.Delete(ctx, "user-a", theirs.ScheduleEntryID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("删除他人课表应返回 ErrRecordNotFound，实际 %v", err)
	}

	list, err := repo.Schedule.ListByUser(ctx, "user-a")
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if len(list) != 1 || list[0].ScheduleEntryID != mine.ScheduleEntryID {
		t.Fatalf("期望仅返回本人 1 条，实际 %d", len(list))
	}
	if list[0].Room == nil || list[0].Room.Profile == nil || list[0].Room.Profile.Number != "1001" {
		t.Error("应预加载房间档案")
	}
}

func TestSchedule_ListByUserDay_Ordered(t *testing.T) {
	repo := repository.NewRepository(newTestDB(t))
	ctx := context.Background()
	floor := seedFloor(t, repo, "10th Floor")
	room := seedRoom(t, repo, floor.FloorID, "1001")

	for _, r := range [][2]string{{"13:00", "14:00"}, {"08:00", "09:00"}, {"10:30", "12:00"}} {
		if err := repo.Schedule.Create(ctx, newEntry("u", room.RoomID, "Tuesday", r[0], r[1])); err != nil {
			t.Fatalf("创建失败: %v", err)
		}
	}
	if err := repo.Schedule.Create(ctx, newEntry("u", room.RoomID, "Friday", "07:00", "08:00")); err != nil {
		t.Fatalf("创建失败: %v", err)
	}

	list, err := repo.Schedule.ListByUserDay(ctx, "u", "Tuesday")
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("期望 3 条，实际 %d", len(list))
	}
	want := []string{"08:00", "10:30", "13:00"}
	for i, e := range list {
		if e.StartTime != want[i] {
			t.Errorf("第 %d 条期望 %s，实际 %s", i, want[i], e.StartTime)
		}
	}
}

func TestSchedule_UpdateAndDeleteByUser(t *testing.T) {
	repo := repository.NewRepository(newTestDB(t))
	ctx := context.Background()
	floor := seedFloor(t, repo, "10th Floor")
	room := seedRoom(t, repo, floor.FloorID, "1001")

	e := newEntry("u", room.RoomID, "Monday", "08:00", "09:00")
	if err := repo.Schedule.Create(ctx, e); err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	if err := repo.Schedule.Create(ctx, newEntry("u", room.RoomID, "Monday", "10:00", "11:00")); err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	if err := repo.Schedule.Create(ctx, newEntry("other", room.RoomID, "Monday", "10:00", "11:00")); err != nil {
		t.Fatalf("创建失败: %v", err)
	}

	e.Subject = "Data Structures"
	e.Color = "green"
	if err := repo.Schedule.Update(ctx, e); err != nil {
		t.Fatalf("更新失败: %v", err)
	}
	got, _ := repo.Schedule.GetByID(ctx, "u", e.ScheduleEntryID)
	if got.Subject != "Data Structures" || got.Color != "green" {
		t.Errorf("更新未生效: %+v", got)
	}

	if err := repo.Schedule.UpdateColor(ctx, e.ScheduleEntryID, "purple"); err != nil {
		t.Fatalf("更新颜色失败: %v", err)
	}
	got, _ = repo.Schedule.GetByID(ctx, "u", e.ScheduleEntryID)
	if got.Color != "purple" {
		t.Errorf("期望 purple，实际 %s", got.Color)
	}

	n, err := repo.Schedule.CountByRoom(ctx, room.RoomID)
	if err != nil || n != 3 {
		t.Errorf("期望 3 条引用，实际 %d (%v)", n, err)
	}

	deleted, err := repo.Schedule.DeleteByUser(ctx, "u")
	if err != nil {
		t.Fatalf("清空失败: %v", err)
	}
	if deleted != 2 {
		t.Errorf("期望删除 2 条，实际 %d", deleted)
	}
	left, _ := repo.Schedule.ListByUser(ctx, "other")
	if len(left) != 1 {
		t.Errorf("其他用户课表不应受影响，剩余 %d", len(left))
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Transactions
// ═══════════════════════════════════════════════════════════

func TestTransaction_Rollback(t *testing.T) {
	repo := repository.NewRepository(newTestDB(t))
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)
	if err != nil {
		t.Fatalf("开启事务失败: %v", err)
	}
	txRepo := repo.WithTx(tx)
	if err := txRepo.Floor.Create(ctx, &model.Floor{Name: "Tmp", Building: "X"}); err != nil {
		t.Fatalf("事务内创建失败: %v", err)
	}
	tx.Rollback()

	floors, _ := repo.Floor.List(ctx)
	if len(floors) != 0 {
		t.Errorf("回滚后不应残留数据，实际 %d", len(floors))
	}
}

func TestTransaction_Commit(t *testing.T) {
	repo := repository.NewRepository(newTestDB(t))
	ctx := context.Background()

	tx, _ := repo.BeginTx(ctx)
	txRepo := repo.WithTx(tx)
	if err := txRepo.Floor.Create(ctx, &model.Floor{Name: "Kept", Building: "X"}); err != nil {
		t.Fatalf("事务内创建失败: %v", err)
	}
	if err := tx.Commit().Error; err != nil {
		t.Fatalf("提交失败: %v", err)
	}

	got, err := repo.Floor.FindByName(ctx, "Kept", "X")
	if err != nil || got == nil {
		t.Errorf("提交后应可查询: %v", err)
	}
}

func TestRepository_NilDB(t *testing.T) {
	repo := &repository.Repository{}
	tx, err := repo.BeginTx(context.Background())
	if tx != nil || err != nil {
		t.Errorf("未绑定数据库时期望 (nil, nil)，实际 (%v, %v)", tx, err)
	}
	if repo.WithTx(nil) != repo {
		t.Error("tx 为 nil 时应返回自身")
	}
}
