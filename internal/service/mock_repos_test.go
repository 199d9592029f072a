package service

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"umap/backend/internal/model"
	"umap/backend/internal/repository"
)

// ── Mock FloorRepository ──

type mockFloorRepo struct {
	floors []*model.Floor
	seq    int
}

func newMockFloorRepo() *mockFloorRepo {
	return &mockFloorRepo{}
}

func (m *mockFloorRepo) Create(_ context.Context, floor *model.Floor) error {
	if floor.FloorID == "" {
		m.seq++
		floor.FloorID = fmt.Sprintf("floor-%d", m.seq)
	}
	m.floors = append(m.floors, floor)
	return nil
}

func (m *mockFloorRepo) GetByID(_ context.Context, id string) (*model.Floor, error) {
	for _, f := range m.floors {
		if f.FloorID == id {
			return f, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockFloorRepo) First(_ context.Context) (*model.Floor, error) {
	if len(m.floors) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return m.floors[0], nil
}

func (m *mockFloorRepo) FindByName(_ context.Context, name, building string) (*model.Floor, error) {
	for _, f := range m.floors {
		if f.Name == name && f.Building == building {
			return f, nil
		}
	}
	return nil, nil
}

func (m *mockFloorRepo) List(_ context.Context) ([]model.Floor, error) {
	result := make([]model.Floor, 0, len(m.floors))
	for _, f := range m.floors {
		result = append(result, *f)
	}
	return result, nil
}

func (m *mockFloorRepo) Update(_ context.Context, floor *model.Floor) error {
	for i, f := range m.floors {
		if f.FloorID == floor.FloorID {
			m.floors[i] = floor
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockFloorRepo) Delete(_ context.Context, id string) error {
	for i, f := range m.floors {
		if f.FloorID == id {
			m.floors = append(m.floors[:i], m.floors[i+1:]...)
			return nil
		}
	}
	return nil
}

// ── Mock RoomRepository ──

type mockRoomRepo struct {
	floors *mockFloorRepo
	rooms  []*model.Room
	seq    int

	// onCreate 在写入前调用，返回非 nil 时中止写入
	onCreate func(room *model.Room, profile *model.RoomProfile) error
	updated  []string
}

func newMockRoomRepo(floors *mockFloorRepo) *mockRoomRepo {
	return &mockRoomRepo{floors: floors}
}

// add 测试辅助：直接登记一个房间
func (m *mockRoomRepo) add(floorID, number string) *model.Room {
	room := &model.Room{FloorID: floorID}
	_ = m.insert(room, &model.RoomProfile{Number: number, Name: "Room " + number, Type: "Classroom"})
	return room
}

func (m *mockRoomRepo) insert(room *model.Room, profile *model.RoomProfile) error {
	if profile.Number == model.PlaceholderRoomNumber {
		for _, r := range m.rooms {
			if r.Profile.IsPlaceholder() {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	m.seq++
	if room.RoomID == "" {
		room.RoomID = fmt.Sprintf("room-%d", m.seq)
	}
	profile.RoomProfileID = fmt.Sprintf("profile-%d", m.seq)
	profile.RoomID = room.RoomID
	room.Profile = profile
	m.rooms = append(m.rooms, room)
	return nil
}

func (m *mockRoomRepo) withFloor(r *model.Room) *model.Room {
	cp := *r
	if m.floors != nil {
		cp.Floor, _ = m.floors.GetByID(context.Background(), r.FloorID)
	}
	return &cp
}

func (m *mockRoomRepo) Create(_ context.Context, room *model.Room, profile *model.RoomProfile) error {
	if m.onCreate != nil {
		if err := m.onCreate(room, profile); err != nil {
			return err
		}
	}
	return m.insert(room, profile)
}

func (m *mockRoomRepo) GetByID(_ context.Context, id string) (*model.Room, error) {
	for _, r := range m.rooms {
		if r.RoomID == id {
			return m.withFloor(r), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRoomRepo) ListByFloor(_ context.Context, floorID string) ([]model.Room, error) {
	var result []model.Room
	for _, r := range m.rooms {
		if r.FloorID == floorID {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockRoomRepo) CountByFloor(_ context.Context, floorID string) (int64, error) {
	var n int64
	for _, r := range m.rooms {
		if r.FloorID == floorID {
			n++
		}
	}
	return n, nil
}

func (m *mockRoomRepo) ListProfiles(_ context.Context) ([]model.RoomProfile, error) {
	result := make([]model.RoomProfile, 0, len(m.rooms))
	for _, r := range m.rooms {
		p := *r.Profile
		p.Room = m.withFloor(r)
		result = append(result, p)
	}
	return result, nil
}

func (m *mockRoomRepo) FindByNumber(_ context.Context, number string) (*model.Room, error) {
	for _, r := range m.rooms {
		if !r.Profile.IsPlaceholder() && r.Profile.Number == number {
			return m.withFloor(r), nil
		}
	}
	for _, r := range m.rooms {
		if !r.Profile.IsPlaceholder() && strings.EqualFold(r.Profile.Number, number) {
			return m.withFloor(r), nil
		}
	}
	return nil, nil
}

func (m *mockRoomRepo) FindByBuildingNumber(_ context.Context, building, number string) (*model.Room, error) {
	for _, r := range m.rooms {
		if r.Profile.IsPlaceholder() || !strings.EqualFold(r.Profile.Number, number) {
			continue
		}
		if room := m.withFloor(r); room.Floor != nil && strings.EqualFold(room.Floor.Building, building) {
			return room, nil
		}
	}
	return nil, nil
}

func (m *mockRoomRepo) FindBySVGID(_ context.Context, floorID, svgID string) (*model.RoomProfile, error) {
	for _, r := range m.rooms {
		if r.FloorID == floorID && r.Profile.SVGRoomID != nil && *r.Profile.SVGRoomID == svgID {
			p := *r.Profile
			return &p, nil
		}
	}
	return nil, nil
}

func (m *mockRoomRepo) GetPlaceholder(_ context.Context) (*model.Room, error) {
	for _, r := range m.rooms {
		if r.Profile.IsPlaceholder() {
			return m.withFloor(r), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRoomRepo) UpdateProfile(_ context.Context, profile *model.RoomProfile) error {
	for _, r := range m.rooms {
		if r.Profile.RoomProfileID == profile.RoomProfileID {
			p := *profile
			p.Room = nil
			r.Profile = &p
			m.updated = append(m.updated, profile.RoomProfileID)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockRoomRepo) Delete(_ context.Context, id string) error {
	for i, r := range m.rooms {
		if r.RoomID == id {
			m.rooms = append(m.rooms[:i], m.rooms[i+1:]...)
			return nil
		}
	}
	return nil
}

// ── Mock ScheduleRepository ──

type mockScheduleRepo struct {
	entries []*model.ScheduleEntry
	seq     int

	createErr     func(entry *model.ScheduleEntry) error
	colorUpdates  map[string]string
	deleteByUsers []string
}

func newMockScheduleRepo() *mockScheduleRepo {
	return &mockScheduleRepo{colorUpdates: make(map[string]string)}
}

func (m *mockScheduleRepo) Create(_ context.Context, entry *model.ScheduleEntry) error {
	if m.createErr != nil {
		if err := m.createErr(entry); err != nil {
			return err
		}
	}
	if entry.ScheduleEntryID == "" {
		m.seq++
		entry.ScheduleEntryID = fmt.Sprintf("sched-%d", m.seq)
	}
	cp := *entry
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *mockScheduleRepo) GetByID(_ context.Context, userID, id string) (*model.ScheduleEntry, error) {
	for _, e := range m.entries {
		if e.ScheduleEntryID == id && e.UserID == userID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockScheduleRepo) ListByUser(_ context.Context, userID string) ([]model.ScheduleEntry, error) {
	var result []model.ScheduleEntry
	for _, e := range m.entries {
		if e.UserID == userID {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (m *mockScheduleRepo) ListByUserDay(_ context.Context, userID, day string) ([]model.ScheduleEntry, error) {
	var result []model.ScheduleEntry
	for _, e := range m.entries {
		if e.UserID == userID && e.Day == day {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (m *mockScheduleRepo) Update(_ context.Context, entry *model.ScheduleEntry) error {
	for i, e := range m.entries {
		if e.ScheduleEntryID == entry.ScheduleEntryID && e.UserID == entry.UserID {
			cp := *entry
			m.entries[i] = &cp
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockScheduleRepo) UpdateColor(_ context.Context, id, color string) error {
	for _, e := range m.entries {
		if e.ScheduleEntryID == id {
			e.Color = color
			m.colorUpdates[id] = color
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockScheduleRepo) Delete(_ context.Context, userID, id string) error {
	for i, e := range m.entries {
		if e.ScheduleEntryID == id && e.UserID == userID {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockScheduleRepo) DeleteByUser(_ context.Context, userID string) (int64, error) {
	m.deleteByUsers = append(m.deleteByUsers, userID)
	var kept []*model.ScheduleEntry
	var n int64
	for _, e := range m.entries {
		if e.UserID == userID {
			n++
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept
	return n, nil
}

func (m *mockScheduleRepo) CountByRoom(_ context.Context, roomID string) (int64, error) {
	var n int64
	for _, e := range m.entries {
		if e.RoomID == roomID {
			n++
		}
	}
	return n, nil
}

// ── 测试辅助 ──

type mockRepos struct {
	floors    *mockFloorRepo
	rooms     *mockRoomRepo
	schedules *mockScheduleRepo
}

func newMockRepository() (*repository.Repository, *mockRepos) {
	floors := newMockFloorRepo()
	m := &mockRepos{
		floors:    floors,
		rooms:     newMockRoomRepo(floors),
		schedules: newMockScheduleRepo(),
	}
	repo := &repository.Repository{
		Floor:    m.floors,
		Room:     m.rooms,
		Schedule: m.schedules,
	}
	return repo, m
}
