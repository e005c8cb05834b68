package worker

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonnyWalker81/heldairy/backend/internal/models"
	"github.com/JonnyWalker81/heldairy/backend/internal/service"
)

// 2026-10-14 is a Wednesday; the covered week is 2026-10-05..2026-10-11
var workerToday = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

type stubEntries struct {
	users []string
	err   error
}

func (s *stubEntries) Upsert(ctx context.Context, entry *models.DailyEntry) (*models.DailyEntry, error) {
	return entry, nil
}

func (s *stubEntries) GetByID(ctx context.Context, userID, id string) (*models.DailyEntry, error) {
	return nil, nil
}

func (s *stubEntries) GetByDate(ctx context.Context, userID, date string) (*models.DailyEntry, error) {
	return nil, nil
}

func (s *stubEntries) ListRecent(ctx context.Context, userID string, limit int) ([]models.DailyEntry, error) {
	return nil, nil
}

func (s *stubEntries) ListUserIDs(ctx context.Context) ([]string, error) {
	return s.users, s.err
}

func (s *stubEntries) Delete(ctx context.Context, userID, id string) error { return nil }

type memInsights struct {
	mu      sync.Mutex
	records map[string]models.WeeklyInsightRecord
}

func newMemInsights(records ...models.WeeklyInsightRecord) *memInsights {
	m := &memInsights{records: map[string]models.WeeklyInsightRecord{}}
	for _, r := range records {
		m.records[r.UserID+"/"+r.WeekStartDate] = r
	}
	return m
}

func (m *memInsights) Upsert(ctx context.Context, record *models.WeeklyInsightRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[record.UserID+"/"+record.WeekStartDate] = *record
	return nil
}

func (m *memInsights) FindByWeekStart(ctx context.Context, userID, weekStart string) (*models.WeeklyInsightRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.records[userID+"/"+weekStart]; ok {
		return &r, nil
	}
	return nil, nil
}

func (m *memInsights) Latest(ctx context.Context, userID string) (*models.WeeklyInsightRecord, error) {
	list, _ := m.List(ctx, userID, 1)
	if len(list) == 0 {
		return nil, nil
	}
	return &list[0], nil
}

func (m *memInsights) List(ctx context.Context, userID string, limit int) ([]models.WeeklyInsightRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.WeeklyInsightRecord
	for _, r := range m.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekStartDate > out[j].WeekStartDate })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memInsights) DeleteBefore(ctx context.Context, userID, weekStart string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, r := range m.records {
		if r.UserID == userID && r.WeekStartDate < weekStart {
			delete(m.records, k)
			n++
		}
	}
	return n, nil
}

// scriptedWeekly answers GetWeeklyInsight from a per-user script; the last
// step repeats once the script runs out
type scriptedWeekly struct {
	mu     sync.Mutex
	script map[string][]models.WeeklyInsightStatus
	calls  map[string]int
	forced bool
}

func newScriptedWeekly(script map[string][]models.WeeklyInsightStatus) *scriptedWeekly {
	return &scriptedWeekly{script: script, calls: map[string]int{}, forced: true}
}

func (s *scriptedWeekly) GetWeeklyInsight(ctx context.Context, userID string, force bool) (*models.WeeklyInsightResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forced = s.forced && force
	steps := s.script[userID]
	i := s.calls[userID]
	s.calls[userID]++
	if len(steps) == 0 {
		return nil, errors.New("no script")
	}
	if i >= len(steps) {
		i = len(steps) - 1
	}
	return &models.WeeklyInsightResult{Status: steps[i], Message: "scripted"}, nil
}

func (s *scriptedWeekly) RefreshAsync(ctx context.Context, userID string) (*models.WeeklyInsightResult, error) {
	return &models.WeeklyInsightResult{Status: models.WeeklyStatusPending}, nil
}

func (s *scriptedWeekly) History(ctx context.Context, userID string, limit int) ([]models.WeeklyInsightRecord, error) {
	return nil, nil
}

func (s *scriptedWeekly) Wait() {}

func (s *scriptedWeekly) callsFor(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[userID]
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.InitialBackoff = time.Millisecond
	return cfg
}

func newTestScheduler(entries *stubEntries, insights *memInsights, weekly *scriptedWeekly, settings service.SettingsProvider) *WeeklyScheduler {
	s := NewWeeklyScheduler(testConfig(), entries, insights, weekly, settings)
	s.now = func() time.Time { return workerToday }
	return s
}

func TestRunOnce_Outcomes(t *testing.T) {
	insights := newMemInsights(models.WeeklyInsightRecord{
		UserID: "done", WeekStartDate: "2026-10-05", Status: models.InsightStatusFailed,
	})
	weekly := newScriptedWeekly(map[string][]models.WeeklyInsightStatus{
		"fresh":  {models.WeeklyStatusSuccess},
		"quiet":  {models.WeeklyStatusNoData},
		"flaky":  {models.WeeklyStatusError, models.WeeklyStatusSuccess},
		"broken": {models.WeeklyStatusError},
	})
	entries := &stubEntries{users: []string{"done", "fresh", "quiet", "flaky", "broken"}}
	s := newTestScheduler(entries, insights, weekly, service.StaticSettings(true, "key"))

	report, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2026-10-05", report.Week.StartDate())
	assert.Equal(t, 5, report.Users)
	assert.Equal(t, map[Result]int{
		ResultSkipped:   1,
		ResultGenerated: 2,
		ResultNoData:    1,
		ResultFailed:    1,
	}, report.Counts)

	assert.Equal(t, 0, weekly.callsFor("done"), "any existing record skips the user")
	assert.Equal(t, 2, weekly.callsFor("flaky"))
	assert.Equal(t, 3, weekly.callsFor("broken"), "gives up after max tries")
	assert.True(t, weekly.forced)
}

func TestRunOnce_DisabledSkipsEveryone(t *testing.T) {
	weekly := newScriptedWeekly(nil)
	entries := &stubEntries{users: []string{"a", "b"}}

	for _, settings := range []service.SettingsProvider{
		service.StaticSettings(false, "key"),
		service.StaticSettings(true, " "),
	} {
		s := newTestScheduler(entries, newMemInsights(), weekly, settings)
		report, err := s.RunOnce(context.Background())
		require.NoError(t, err)
		assert.True(t, report.Disabled)
		assert.Zero(t, report.Users)
	}
	assert.Equal(t, 0, weekly.callsFor("a"))
}

func TestRunOnce_ListUsersError(t *testing.T) {
	s := newTestScheduler(&stubEntries{err: errors.New("db down")}, newMemInsights(), newScriptedWeekly(nil),
		service.StaticSettings(true, "key"))

	_, err := s.RunOnce(context.Background())
	assert.ErrorContains(t, err, "db down")
}

func TestRunOnce_CancelledContext(t *testing.T) {
	weekly := newScriptedWeekly(map[string][]models.WeeklyInsightStatus{"a": {models.WeeklyStatusError}})
	s := newTestScheduler(&stubEntries{users: []string{"a"}}, newMemInsights(), weekly, service.StaticSettings(true, "key"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.RunOnce(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetentionCleaner(t *testing.T) {
	insights := newMemInsights(
		models.WeeklyInsightRecord{UserID: "a", WeekStartDate: "2026-06-01"},
		models.WeeklyInsightRecord{UserID: "a", WeekStartDate: "2026-07-20"},
		models.WeeklyInsightRecord{UserID: "a", WeekStartDate: "2026-10-05"},
		models.WeeklyInsightRecord{UserID: "b", WeekStartDate: "2026-05-04"},
	)
	c := NewRetentionCleaner(testConfig(), &stubEntries{users: []string{"a", "b"}}, insights)
	c.now = func() time.Time { return workerToday }

	assert.Equal(t, "2026-07-16", c.Cutoff())
	deleted, err := c.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	remaining, _ := insights.List(context.Background(), "a", 0)
	require.Len(t, remaining, 2)
	assert.Equal(t, "2026-07-20", remaining[1].WeekStartDate)
}

func TestRetentionCleaner_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.RetentionDays = 0
	insights := newMemInsights(models.WeeklyInsightRecord{UserID: "a", WeekStartDate: "2020-01-06"})
	c := NewRetentionCleaner(cfg, &stubEntries{users: []string{"a"}}, insights)

	deleted, err := c.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestEvery_RunsImmediatelyAndOnTicks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	runs := 0
	done := make(chan struct{})
	go func() {
		Every(ctx, "test", 5*time.Millisecond, func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			runs++
			if runs == 3 {
				cancel()
			}
			return errors.New("ignored")
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop after cancel")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, runs)
}
