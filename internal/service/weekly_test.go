package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonnyWalker81/heldairy/backend/internal/models"
	"github.com/JonnyWalker81/heldairy/backend/pkg/deepseek"
)

// Wednesday: the covered week is Monday 2026-10-05 .. Sunday 2026-10-11
var weeklyToday = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

const (
	weekStart = "2026-10-05"
	weekEnd   = "2026-10-11"
)

func validWeekly() models.WeeklyInsightPayload {
	return models.WeeklyInsightPayload{
		SchemaVersion: 1,
		WeekStartDate: weekStart,
		WeekEndDate:   weekEnd,
		Summary:       "  A steadier week with fewer headaches.  ",
		Highlights:    []string{"Headaches eased", " "},
		Suggestions:   []string{"Keep the evening walk"},
		Confidence:    "high",
	}
}

func weekEntries() []models.DailyEntry {
	return []models.DailyEntry{
		testEntry("w-1", testUser, "2026-10-08", numericResponse("headache_intensity", "4", 1)),
		testEntry("w-2", testUser, "2026-10-09", numericResponse("headache_intensity", "3", 1)),
	}
}

func newWeeklyFixture(settings SettingsProvider, client *deepseek.MockClient, insights *mockInsightRepository, entries ...models.DailyEntry) *weeklyInsightService {
	svc := NewWeeklyInsightService(newMockEntryRepository(entries...), insights, client, settings, time.UTC).(*weeklyInsightService)
	svc.now = fixedClock(weeklyToday)
	return svc
}

func TestDecideWeekly(t *testing.T) {
	success := &models.WeeklyInsightRecord{Status: models.InsightStatusSuccess}
	failed := &models.WeeklyInsightRecord{Status: models.InsightStatusFailed}

	tests := []struct {
		name   string
		cached *models.WeeklyInsightRecord
		force  bool
		want   WeeklyAction
	}{
		{name: "no record", cached: nil, want: WeeklyGenerate},
		{name: "success record", cached: success, want: WeeklyServeCache},
		{name: "success record forced", cached: success, force: true, want: WeeklyGenerate},
		{name: "failed record", cached: failed, want: WeeklyGenerate},
		{name: "failed record forced", cached: failed, force: true, want: WeeklyGenerate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecideWeekly(tt.cached, tt.force))
		})
	}
}

func TestGetWeeklyInsight_NoData(t *testing.T) {
	client := deepseek.NewMockClient(nil, []deepseek.MockWeekly{{Payload: validWeekly()}})
	insights := newMockInsightRepository()
	svc := newWeeklyFixture(StaticSettings(true, "sk-test"), client, insights)

	result, err := svc.GetWeeklyInsight(context.Background(), testUser, false)
	require.NoError(t, err)
	assert.Equal(t, models.WeeklyStatusNoData, result.Status)
	assert.Equal(t, weekStart, result.WeekStartDate)
	assert.Equal(t, 0, client.WeeklyCalls())
	assert.Equal(t, 0, insights.upserts())
}

func TestGetWeeklyInsight_ServesSuccessFromCache(t *testing.T) {
	payload := validWeekly().Normalized()
	insights := newMockInsightRepository(models.WeeklyInsightRecord{
		UserID:        testUser,
		WeekStartDate: weekStart,
		WeekEndDate:   weekEnd,
		GeneratedAt:   weeklyToday.Add(-time.Hour),
		AIResult:      &payload,
		Status:        models.InsightStatusSuccess,
	})
	client := deepseek.NewMockClient(nil, nil)
	// A cached success is served even when AI has since been disabled
	svc := newWeeklyFixture(StaticSettings(false, ""), client, insights, weekEntries()...)

	result, err := svc.GetWeeklyInsight(context.Background(), testUser, false)
	require.NoError(t, err)
	assert.Equal(t, models.WeeklyStatusSuccess, result.Status)
	assert.True(t, result.Cached)
	assert.Equal(t, payload.Summary, result.Payload.Summary)
	assert.Equal(t, 0, client.WeeklyCalls())
}

func TestGetWeeklyInsight_FailedRecordRegeneratesOnOrdinaryDay(t *testing.T) {
	msg := "timeout"
	insights := newMockInsightRepository(models.WeeklyInsightRecord{
		UserID:        testUser,
		WeekStartDate: weekStart,
		WeekEndDate:   weekEnd,
		Status:        models.InsightStatusFailed,
		ErrorMessage:  &msg,
	})
	client := deepseek.NewMockClient(nil, []deepseek.MockWeekly{{Payload: validWeekly()}})
	svc := newWeeklyFixture(StaticSettings(true, "sk-test"), client, insights)

	require.False(t, models.WeekRangeFor(weeklyToday).IsBoundaryDay(weeklyToday))

	result, err := svc.GetWeeklyInsight(context.Background(), testUser, false)
	require.NoError(t, err)
	assert.Equal(t, models.WeeklyStatusSuccess, result.Status)
	assert.False(t, result.Cached)
	assert.Equal(t, "A steadier week with fewer headaches.", result.Payload.Summary)
	assert.Equal(t, []string{"Headaches eased"}, result.Payload.Highlights)
	assert.Equal(t, 1, client.WeeklyCalls())

	stored, err := insights.FindByWeekStart(context.Background(), testUser, weekStart)
	require.NoError(t, err)
	assert.Equal(t, models.InsightStatusSuccess, stored.Status)
	assert.Nil(t, stored.ErrorMessage)
}

func TestGetWeeklyInsight_ForceRegeneratesSuccess(t *testing.T) {
	old := validWeekly().Normalized()
	old.Summary = "Old summary."
	insights := newMockInsightRepository(models.WeeklyInsightRecord{
		UserID:        testUser,
		WeekStartDate: weekStart,
		WeekEndDate:   weekEnd,
		AIResult:      &old,
		Status:        models.InsightStatusSuccess,
	})
	client := deepseek.NewMockClient(nil, []deepseek.MockWeekly{{Payload: validWeekly()}})
	svc := newWeeklyFixture(StaticSettings(true, "sk-test"), client, insights, weekEntries()...)

	result, err := svc.GetWeeklyInsight(context.Background(), testUser, true)
	require.NoError(t, err)
	assert.Equal(t, models.WeeklyStatusSuccess, result.Status)
	assert.NotEqual(t, "Old summary.", result.Payload.Summary)
	assert.Equal(t, 1, client.WeeklyCalls())
}

func TestGetWeeklyInsight_SettingsStates(t *testing.T) {
	tests := []struct {
		name     string
		settings SettingsProvider
		want     models.WeeklyInsightStatus
		message  string
	}{
		{name: "disabled", settings: StaticSettings(false, "sk-test"), want: models.WeeklyStatusDisabled, message: ErrAIDisabled.Error()},
		{name: "missing key", settings: StaticSettings(true, ""), want: models.WeeklyStatusError, message: ErrMissingAPIKey.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := deepseek.NewMockClient(nil, []deepseek.MockWeekly{{Payload: validWeekly()}})
			insights := newMockInsightRepository()
			svc := newWeeklyFixture(tt.settings, client, insights, weekEntries()...)

			result, err := svc.GetWeeklyInsight(context.Background(), testUser, false)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Status)
			assert.Equal(t, tt.message, result.Message)
			assert.Equal(t, 0, client.WeeklyCalls())
			assert.Equal(t, 0, insights.upserts())
		})
	}
}

func TestGetWeeklyInsight_FailuresPersistFailedRecord(t *testing.T) {
	invalid := validWeekly()
	invalid.Summary = " "

	tests := []struct {
		name        string
		result      deepseek.MockWeekly
		wantMessage string
		wantError   string
	}{
		{
			name:        "format error",
			result:      deepseek.MockWeekly{Err: &deepseek.FormatError{Reason: "no JSON object"}},
			wantMessage: ErrInvalidAIResponse.Error(),
			wantError:   "invalid AI response: no JSON object",
		},
		{
			name:        "transport error",
			result:      deepseek.MockWeekly{Err: errors.New("connection refused")},
			wantMessage: msgGenerateRetry,
			wantError:   "connection refused",
		},
		{
			name:        "validation issues",
			result:      deepseek.MockWeekly{Payload: invalid},
			wantMessage: ErrInvalidAIResponse.Error(),
			wantError:   "summary_empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := deepseek.NewMockClient(nil, []deepseek.MockWeekly{tt.result})
			insights := newMockInsightRepository()
			svc := newWeeklyFixture(StaticSettings(true, "sk-test"), client, insights, weekEntries()...)

			result, err := svc.GetWeeklyInsight(context.Background(), testUser, false)
			require.NoError(t, err)
			assert.Equal(t, models.WeeklyStatusError, result.Status)
			assert.Equal(t, tt.wantMessage, result.Message)
			// No in-process retry for weekly generation
			assert.Equal(t, 1, client.WeeklyCalls())

			stored, err := insights.FindByWeekStart(context.Background(), testUser, weekStart)
			require.NoError(t, err)
			require.NotNil(t, stored)
			assert.Equal(t, models.InsightStatusFailed, stored.Status)
			require.NotNil(t, stored.ErrorMessage)
			assert.Contains(t, *stored.ErrorMessage, tt.wantError)
			assert.NotNil(t, stored.Window7)
		})
	}
}

func TestRefreshAsync_ReportsPendingThenStores(t *testing.T) {
	client := deepseek.NewMockClient(nil, []deepseek.MockWeekly{{Payload: validWeekly()}})
	insights := newMockInsightRepository()
	svc := newWeeklyFixture(StaticSettings(true, "sk-test"), client, insights, weekEntries()...)

	ctx, cancel := context.WithCancel(context.Background())
	result, err := svc.RefreshAsync(ctx, testUser)
	cancel()
	require.NoError(t, err)
	assert.Equal(t, models.WeeklyStatusPending, result.Status)
	assert.Equal(t, weekEnd, result.WeekEndDate)

	svc.Wait()
	stored, err := insights.FindByWeekStart(context.Background(), testUser, weekStart)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, models.InsightStatusSuccess, stored.Status)
}

func TestRefreshAsync_DisabledIsSynchronous(t *testing.T) {
	client := deepseek.NewMockClient(nil, nil)
	svc := newWeeklyFixture(StaticSettings(false, ""), client, newMockInsightRepository(), weekEntries()...)

	result, err := svc.RefreshAsync(context.Background(), testUser)
	require.NoError(t, err)
	assert.Equal(t, models.WeeklyStatusDisabled, result.Status)
	svc.Wait()
	assert.Equal(t, 0, client.WeeklyCalls())
}

func TestGetWeeklyInsight_PendingWhileGenerating(t *testing.T) {
	svc := newWeeklyFixture(StaticSettings(true, "sk-test"), deepseek.NewMockClient(nil, nil), newMockInsightRepository(), weekEntries()...)
	week := models.WeekRangeFor(weeklyToday)
	svc.inflight.Store(weeklyKey(testUser, week), struct{}{})

	result, err := svc.GetWeeklyInsight(context.Background(), testUser, false)
	require.NoError(t, err)
	assert.Equal(t, models.WeeklyStatusPending, result.Status)
}

// gatedWeeklyClient holds FetchWeeklyInsight until release is closed
type gatedWeeklyClient struct {
	*deepseek.MockClient
	started chan struct{}
	release chan struct{}
}

func (c *gatedWeeklyClient) FetchWeeklyInsight(ctx context.Context, apiKey, systemPrompt, userPrompt string) (models.WeeklyInsightPayload, error) {
	close(c.started)
	select {
	case <-c.release:
	case <-ctx.Done():
		return models.WeeklyInsightPayload{}, ctx.Err()
	}
	return c.MockClient.FetchWeeklyInsight(ctx, apiKey, systemPrompt, userPrompt)
}

func TestGetWeeklyInsight_GenerationOutlivesCaller(t *testing.T) {
	client := &gatedWeeklyClient{
		MockClient: deepseek.NewMockClient(nil, []deepseek.MockWeekly{{Payload: validWeekly()}}),
		started:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	insights := newMockInsightRepository()
	svc := NewWeeklyInsightService(newMockEntryRepository(weekEntries()...), insights, client, StaticSettings(true, "sk-test"), time.UTC).(*weeklyInsightService)
	svc.now = fixedClock(weeklyToday)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := svc.GetWeeklyInsight(ctx, testUser, false)
		errc <- err
	}()

	<-client.started
	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)

	close(client.release)
	svc.Wait()

	stored, err := insights.FindByWeekStart(context.Background(), testUser, weekStart)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, models.InsightStatusSuccess, stored.Status)

	result, err := svc.GetWeeklyInsight(context.Background(), testUser, false)
	require.NoError(t, err)
	assert.True(t, result.Cached)
}

func TestGetWeeklyInsight_UsesConfiguredLocation(t *testing.T) {
	// Saturday evening in UTC is already Sunday ten hours east
	saturday := time.Date(2026, 10, 10, 20, 0, 0, 0, time.UTC)
	east := time.FixedZone("UTC+10", 10*60*60)

	tests := []struct {
		name      string
		location  *time.Location
		wantStart string
	}{
		{name: "utc", location: time.UTC, wantStart: "2026-09-28"},
		{name: "east of utc", location: east, wantStart: weekStart},
		{name: "nil location is utc", location: nil, wantStart: "2026-09-28"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewWeeklyInsightService(newMockEntryRepository(), newMockInsightRepository(), deepseek.NewMockClient(nil, nil), StaticSettings(true, "sk-test"), tt.location).(*weeklyInsightService)
			svc.now = fixedClock(saturday)

			result, err := svc.GetWeeklyInsight(context.Background(), testUser, false)
			require.NoError(t, err)
			assert.Equal(t, models.WeeklyStatusNoData, result.Status)
			assert.Equal(t, tt.wantStart, result.WeekStartDate)
		})
	}
}

func TestHistory_DefaultLimit(t *testing.T) {
	var records []models.WeeklyInsightRecord
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	for i := 0; i < DefaultHistoryLimit+3; i++ {
		records = append(records, models.WeeklyInsightRecord{
			UserID:        testUser,
			WeekStartDate: models.FormatDate(start.AddDate(0, 0, 7*i)),
			Status:        models.InsightStatusSuccess,
		})
	}
	svc := newWeeklyFixture(StaticSettings(true, "sk-test"), deepseek.NewMockClient(nil, nil), newMockInsightRepository(records...))

	history, err := svc.History(context.Background(), testUser, 0)
	require.NoError(t, err)
	require.Len(t, history, DefaultHistoryLimit)
	assert.True(t, history[0].WeekStartDate > history[1].WeekStartDate)
}
