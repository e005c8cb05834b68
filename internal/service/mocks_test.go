package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/JonnyWalker81/heldairy/backend/internal/models"
	"github.com/JonnyWalker81/heldairy/backend/internal/repository"
)

// mockEntryRepository keeps entries in memory, one per (user, date)
type mockEntryRepository struct {
	mu      sync.Mutex
	entries map[string]*models.DailyEntry // id -> entry
	listErr error
}

func newMockEntryRepository(entries ...models.DailyEntry) *mockEntryRepository {
	m := &mockEntryRepository{entries: make(map[string]*models.DailyEntry)}
	for i := range entries {
		e := entries[i]
		m.entries[e.ID] = &e
	}
	return m
}

func (m *mockEntryRepository) Upsert(ctx context.Context, entry *models.DailyEntry) (*models.DailyEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, e := range m.entries {
		if e.UserID == entry.UserID && e.EntryDate == entry.EntryDate && id != entry.ID {
			delete(m.entries, id)
		}
	}
	saved := *entry
	m.entries[entry.ID] = &saved
	return &saved, nil
}

func (m *mockEntryRepository) GetByID(ctx context.Context, userID, id string) (*models.DailyEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[id]; ok && e.UserID == userID {
		out := *e
		return &out, nil
	}
	return nil, nil
}

func (m *mockEntryRepository) GetByDate(ctx context.Context, userID, date string) (*models.DailyEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.UserID == userID && e.EntryDate == date {
			out := *e
			return &out, nil
		}
	}
	return nil, nil
}

func (m *mockEntryRepository) ListRecent(ctx context.Context, userID string, limit int) ([]models.DailyEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []models.DailyEntry
	for _, e := range m.entries {
		if e.UserID == userID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntryDate > out[j].EntryDate })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockEntryRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, e := range m.entries {
		if !seen[e.UserID] {
			seen[e.UserID] = true
			out = append(out, e.UserID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *mockEntryRepository) Delete(ctx context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[id]; ok && e.UserID == userID {
		delete(m.entries, id)
		return nil
	}
	return repository.ErrNotFound
}

type mockSummaryRepository struct {
	mu      sync.Mutex
	records map[string]*models.SummaryRecord
}

func newMockSummaryRepository() *mockSummaryRepository {
	return &mockSummaryRepository{records: make(map[string]*models.SummaryRecord)}
}

func (m *mockSummaryRepository) Save(ctx context.Context, record *models.SummaryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := *record
	m.records[record.UserID+"/"+record.EntryID] = &out
	return nil
}

func (m *mockSummaryRepository) GetByEntryID(ctx context.Context, userID, entryID string) (*models.SummaryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[userID+"/"+entryID], nil
}

type mockAdviceRepository struct {
	mu        sync.Mutex
	records   map[string]*models.AdviceRecord
	saveCalls int
	saveCtx   context.Context
}

func newMockAdviceRepository() *mockAdviceRepository {
	return &mockAdviceRepository{records: make(map[string]*models.AdviceRecord)}
}

func (m *mockAdviceRepository) Save(ctx context.Context, record *models.AdviceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveCalls++
	m.saveCtx = ctx
	out := *record
	m.records[record.UserID+"/"+record.EntryID] = &out
	return nil
}

func (m *mockAdviceRepository) GetByEntryID(ctx context.Context, userID, entryID string) (*models.AdviceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[userID+"/"+entryID], nil
}

type mockInsightRepository struct {
	mu          sync.Mutex
	records     map[string]*models.WeeklyInsightRecord
	upsertCalls int
}

func newMockInsightRepository(records ...models.WeeklyInsightRecord) *mockInsightRepository {
	m := &mockInsightRepository{records: make(map[string]*models.WeeklyInsightRecord)}
	for i := range records {
		r := records[i]
		m.records[r.UserID+"/"+r.WeekStartDate] = &r
	}
	return m
}

func (m *mockInsightRepository) Upsert(ctx context.Context, record *models.WeeklyInsightRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upsertCalls++
	out := *record
	m.records[record.UserID+"/"+record.WeekStartDate] = &out
	return nil
}

func (m *mockInsightRepository) FindByWeekStart(ctx context.Context, userID, weekStart string) (*models.WeeklyInsightRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.records[userID+"/"+weekStart]; ok {
		out := *r
		return &out, nil
	}
	return nil, nil
}

func (m *mockInsightRepository) Latest(ctx context.Context, userID string) (*models.WeeklyInsightRecord, error) {
	list, _ := m.List(ctx, userID, 1)
	if len(list) == 0 {
		return nil, nil
	}
	return &list[0], nil
}

func (m *mockInsightRepository) List(ctx context.Context, userID string, limit int) ([]models.WeeklyInsightRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.WeeklyInsightRecord
	for _, r := range m.records {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekStartDate > out[j].WeekStartDate })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockInsightRepository) DeleteBefore(ctx context.Context, userID, weekStart string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	deleted := 0
	for k, r := range m.records {
		if r.UserID == userID && r.WeekStartDate < weekStart {
			delete(m.records, k)
			deleted++
		}
	}
	return deleted, nil
}

func (m *mockInsightRepository) upserts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upsertCalls
}

type mockTrackingRepository struct {
	mu         sync.Mutex
	items      map[string]*models.AdviceTracking
	replaceErr error
}

func newMockTrackingRepository(items ...models.AdviceTracking) *mockTrackingRepository {
	m := &mockTrackingRepository{items: make(map[string]*models.AdviceTracking)}
	for i := range items {
		item := items[i]
		m.items[item.ID] = &item
	}
	return m
}

func (m *mockTrackingRepository) ReplaceForEntry(ctx context.Context, userID, entryID string, items []models.AdviceTracking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.replaceErr != nil {
		return m.replaceErr
	}
	for id, item := range m.items {
		if item.UserID == userID && item.EntryID == entryID {
			delete(m.items, id)
		}
	}
	for i := range items {
		item := items[i]
		m.items[item.ID] = &item
	}
	return nil
}

func (m *mockTrackingRepository) GetByID(ctx context.Context, userID, id string) (*models.AdviceTracking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if item, ok := m.items[id]; ok && item.UserID == userID {
		out := *item
		return &out, nil
	}
	return nil, nil
}

func (m *mockTrackingRepository) ListByEntry(ctx context.Context, userID, entryID string) ([]models.AdviceTracking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.AdviceTracking
	for _, item := range m.items {
		if item.UserID == userID && item.EntryID == entryID {
			out = append(out, *item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockTrackingRepository) Update(ctx context.Context, item *models.AdviceTracking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[item.ID]; !ok {
		return repository.ErrNotFound
	}
	out := *item
	m.items[item.ID] = &out
	return nil
}

func (m *mockTrackingRepository) ListExecuted(ctx context.Context, userID string, limit int) ([]models.AdviceTracking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.AdviceTracking
	for _, item := range m.items {
		if item.UserID == userID && item.UserFeedback != nil && *item.UserFeedback == models.FeedbackExecuted {
			out = append(out, *item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FeedbackAt.After(*out[j].FeedbackAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var errStorage = errors.New("storage unavailable")

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func numericResponse(questionID, value string, order int) models.Response {
	return models.Response{
		QuestionID:    questionID,
		QuestionOrder: order,
		AnswerType:    "slider",
		AnswerValue:   value,
	}
}

func testEntry(id, userID, date string, responses ...models.Response) models.DailyEntry {
	return models.DailyEntry{ID: id, UserID: userID, EntryDate: date, Responses: responses}
}
