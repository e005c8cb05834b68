package badgerstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonnyWalker81/heldairy/backend/internal/models"
	"github.com/JonnyWalker81/heldairy/backend/internal/repository"
)

func newTestStore(t *testing.T) *repository.Store {
	t.Helper()
	db, err := Open(InMemoryConfig(), nil)
	require.NoError(t, err)
	store := NewStore(db)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func entryOn(userID, id, date string) *models.DailyEntry {
	return &models.DailyEntry{
		ID:        id,
		UserID:    userID,
		EntryDate: date,
		Responses: []models.Response{{QuestionID: "sleep_duration", AnswerValue: "7"}},
	}
}

func TestEntries_ListRecentNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for i, date := range []string{"2026-10-15", "2026-10-17", "2026-10-16"} {
		_, err := store.Entries.Upsert(ctx, entryOn("u1", string(rune('a'+i)), date))
		require.NoError(t, err)
	}
	_, err := store.Entries.Upsert(ctx, entryOn("u2", "z", "2026-10-18"))
	require.NoError(t, err)

	entries, err := store.Entries.ListRecent(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "2026-10-17", entries[0].EntryDate)
	assert.Equal(t, "2026-10-16", entries[1].EntryDate)

	all, err := store.Entries.ListRecent(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestEntries_SameDateReplaces(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.Entries.Upsert(ctx, entryOn("u1", "old", "2026-10-18"))
	require.NoError(t, err)
	require.NoError(t, store.Advice.Save(ctx, &models.AdviceRecord{UserID: "u1", EntryID: "old"}))

	_, err = store.Entries.Upsert(ctx, entryOn("u1", "new", "2026-10-18"))
	require.NoError(t, err)

	byDate, err := store.Entries.GetByDate(ctx, "u1", "2026-10-18")
	require.NoError(t, err)
	require.NotNil(t, byDate)
	assert.Equal(t, "new", byDate.ID)

	old, err := store.Entries.GetByID(ctx, "u1", "old")
	require.NoError(t, err)
	assert.Nil(t, old)

	advice, err := store.Advice.GetByEntryID(ctx, "u1", "old")
	require.NoError(t, err)
	assert.Nil(t, advice, "advice of a replaced entry is removed with it")
}

func TestEntries_ScopedByUser(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.Entries.Upsert(ctx, entryOn("u1", "e1", "2026-10-18"))
	require.NoError(t, err)

	other, err := store.Entries.GetByID(ctx, "u2", "e1")
	require.NoError(t, err)
	assert.Nil(t, other)

	assert.ErrorIs(t, store.Entries.Delete(ctx, "u2", "e1"), repository.ErrNotFound)

	ids, err := store.Entries.ListUserIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, ids)
}

func TestAdvice_SaveReplaces(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	first := &models.AdviceRecord{UserID: "u1", EntryID: "e1", PromptHash: "one"}
	second := &models.AdviceRecord{UserID: "u1", EntryID: "e1", PromptHash: "two", RuleID: "sleep_critical_lt_5h"}
	require.NoError(t, store.Advice.Save(ctx, first))
	require.NoError(t, store.Advice.Save(ctx, second))

	got, err := store.Advice.GetByEntryID(ctx, "u1", "e1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "two", got.PromptHash)
	assert.Equal(t, "sleep_critical_lt_5h", got.RuleID)
}

func TestInsights_UpsertAndLatest(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	msg := "AI response was not valid"
	for _, rec := range []*models.WeeklyInsightRecord{
		{UserID: "u1", WeekStartDate: "2026-10-05", WeekEndDate: "2026-10-11", Status: models.InsightStatusSuccess},
		{UserID: "u1", WeekStartDate: "2026-10-12", WeekEndDate: "2026-10-18", Status: models.InsightStatusFailed, ErrorMessage: &msg},
		{UserID: "u1", WeekStartDate: "2026-10-12", WeekEndDate: "2026-10-18", Status: models.InsightStatusSuccess},
	} {
		require.NoError(t, store.Insights.Upsert(ctx, rec))
	}

	latest, err := store.Insights.Latest(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "2026-10-12", latest.WeekStartDate)
	assert.Equal(t, models.InsightStatusSuccess, latest.Status)
	assert.Nil(t, latest.ErrorMessage)

	history, err := store.Insights.List(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	missing, err := store.Insights.FindByWeekStart(ctx, "u1", "2026-09-28")
	require.NoError(t, err)
	assert.Nil(t, missing)

	deleted, err := store.Insights.DeleteBefore(ctx, "u1", "2026-10-12")
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	history, err = store.Insights.List(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "2026-10-12", history[0].WeekStartDate)
}

func TestTracking_ReplaceUpdateAndListExecuted(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	items := []models.AdviceTracking{
		{ID: "01A", AdviceText: "Sleep earlier", Category: models.CategorySleep},
		{ID: "01B", AdviceText: "Walk 20 minutes", Category: models.CategoryExercise},
	}
	require.NoError(t, store.Tracking.ReplaceForEntry(ctx, "u1", "e1", items))
	require.NoError(t, store.Tracking.ReplaceForEntry(ctx, "u1", "e1", items[1:]))

	listed, err := store.Tracking.ListByEntry(ctx, "u1", "e1")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "01B", listed[0].ID)
	assert.Equal(t, "e1", listed[0].EntryID)

	gone, err := store.Tracking.GetByID(ctx, "u1", "01A")
	require.NoError(t, err)
	assert.Nil(t, gone)

	executed := models.FeedbackExecuted
	score := 4
	at := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	item := listed[0]
	item.UserFeedback = &executed
	item.EffectivenessScore = &score
	item.FeedbackAt = &at
	require.NoError(t, store.Tracking.Update(ctx, &item))

	done, err := store.Tracking.ListExecuted(ctx, "u1", 20)
	require.NoError(t, err)
	require.Len(t, done, 1)
	require.NotNil(t, done[0].EffectivenessScore)
	assert.Equal(t, 4, *done[0].EffectivenessScore)

	missing := models.AdviceTracking{ID: "nope", UserID: "u1"}
	assert.ErrorIs(t, store.Tracking.Update(ctx, &missing), repository.ErrNotFound)
}

func TestEntries_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.Entries.Upsert(ctx, entryOn("u1", "e1", "2026-10-18"))
	require.NoError(t, err)
	require.NoError(t, store.Summaries.Save(ctx, &models.SummaryRecord{UserID: "u1", EntryID: "e1"}))
	require.NoError(t, store.Tracking.ReplaceForEntry(ctx, "u1", "e1", []models.AdviceTracking{{ID: "01A"}}))

	require.NoError(t, store.Entries.Delete(ctx, "u1", "e1"))

	summary, err := store.Summaries.GetByEntryID(ctx, "u1", "e1")
	require.NoError(t, err)
	assert.Nil(t, summary)

	items, err := store.Tracking.ListByEntry(ctx, "u1", "e1")
	require.NoError(t, err)
	assert.Empty(t, items)

	byDate, err := store.Entries.GetByDate(ctx, "u1", "2026-10-18")
	require.NoError(t, err)
	assert.Nil(t, byDate)
}
