package repository

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonnyWalker81/heldairy/backend/internal/models"
	"github.com/JonnyWalker81/heldairy/backend/pkg/supabase"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  map[string]string
	Prefer string
	Body   []byte
}

func newTestClient(t *testing.T, status int, response string) (*supabase.Client, *[]recordedRequest) {
	t.Helper()
	var requests []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		query := map[string]string{}
		for k, v := range r.URL.Query() {
			query[k] = v[0]
		}
		requests = append(requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  query,
			Prefer: r.Header.Get("Prefer"),
			Body:   body,
		})
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return supabase.NewClient(srv.URL, "service-key"), &requests
}

func TestEntryRepository_GetByIDMissReturnsNil(t *testing.T) {
	client, requests := newTestClient(t, http.StatusOK, `[]`)
	repo := NewEntryRepository(client)

	entry, err := repo.GetByID(context.Background(), "user-1", "entry-1")
	require.NoError(t, err)
	assert.Nil(t, entry)

	require.Len(t, *requests, 1)
	req := (*requests)[0]
	assert.Equal(t, "/rest/v1/daily_entries", req.Path)
	assert.Equal(t, "eq.entry-1", req.Query["id"])
	assert.Equal(t, "eq.user-1", req.Query["user_id"])
}

func TestEntryRepository_UpsertConflictsOnDate(t *testing.T) {
	client, requests := newTestClient(t, http.StatusCreated,
		`[{"id":"e1","user_id":"u1","entry_date":"2026-10-18","responses":[{"question_id":"sleep_duration","answer_value":"7"}]}]`)
	repo := NewEntryRepository(client)

	saved, err := repo.Upsert(context.Background(), &models.DailyEntry{
		ID:        "e1",
		UserID:    "u1",
		EntryDate: "2026-10-18",
		Responses: []models.Response{{QuestionID: "sleep_duration", AnswerValue: "7"}},
	})
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "e1", saved.ID)

	req := (*requests)[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "user_id,entry_date", req.Query["on_conflict"])
	assert.Contains(t, req.Prefer, "resolution=merge-duplicates")
}

func TestEntryRepository_ListUserIDsDeduplicates(t *testing.T) {
	client, _ := newTestClient(t, http.StatusOK, `[{"user_id":"b"},{"user_id":"a"},{"user_id":"b"}]`)
	repo := NewEntryRepository(client)

	ids, err := repo.ListUserIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestEntryRepository_DeleteMissing(t *testing.T) {
	client, requests := newTestClient(t, http.StatusOK, `[]`)
	repo := NewEntryRepository(client)

	err := repo.Delete(context.Background(), "u1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, *requests, 1, "no delete should be issued for a missing entry")
}

func TestAdviceRepository_SaveUpsertsPerEntry(t *testing.T) {
	client, requests := newTestClient(t, http.StatusCreated, `[]`)
	repo := NewAdviceRepository(client)

	err := repo.Save(context.Background(), &models.AdviceRecord{
		UserID:     "u1",
		EntryID:    "e1",
		EntryDate:  "2026-10-18",
		Model:      "deepseek-chat",
		Advice:     models.AdvicePayload{Observations: []string{"o"}},
		PromptHash: "abc",
	})
	require.NoError(t, err)

	req := (*requests)[0]
	assert.Equal(t, "user_id,entry_id", req.Query["on_conflict"])

	var body map[string]any
	require.NoError(t, json.Unmarshal(req.Body, &body))
	assert.Nil(t, body["rule_id"])
	assert.Equal(t, "abc", body["prompt_hash"])
}

func TestInsightRepository_LatestOrdersByWeek(t *testing.T) {
	client, requests := newTestClient(t, http.StatusOK,
		`[{"user_id":"u1","week_start_date":"2026-10-12","week_end_date":"2026-10-18","status":"success"}]`)
	repo := NewInsightRepository(client)

	record, err := repo.Latest(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, models.InsightStatusSuccess, record.Status)

	req := (*requests)[0]
	assert.Equal(t, "week_start_date.desc", req.Query["order"])
	assert.Equal(t, "1", req.Query["limit"])
}

func TestTrackingRepository_ReplaceForEntryCallsRPC(t *testing.T) {
	client, requests := newTestClient(t, http.StatusOK, ``)
	repo := NewTrackingRepository(client)

	err := repo.ReplaceForEntry(context.Background(), "u1", "e1", nil)
	require.NoError(t, err)

	req := (*requests)[0]
	assert.Equal(t, "/rest/v1/rpc/replace_advice_tracking", req.Path)

	var params map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(req.Body, &params))
	assert.JSONEq(t, `[]`, string(params["p_items"]))
	assert.JSONEq(t, `"e1"`, string(params["p_entry_id"]))
}

func TestTrackingRepository_UpdateMissing(t *testing.T) {
	client, _ := newTestClient(t, http.StatusOK, `[]`)
	repo := NewTrackingRepository(client)

	err := repo.Update(context.Background(), &models.AdviceTracking{ID: "t1", UserID: "u1"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_CloseWithoutCloser(t *testing.T) {
	var s *Store
	assert.NoError(t, s.Close())
	assert.NoError(t, NewSupabaseStore(supabase.NewClient("http://localhost", "k")).Close())
}

func TestInsightRepository_DeleteBeforeCountsRows(t *testing.T) {
	client, requests := newTestClient(t, http.StatusOK, `[{"week_start_date":"2026-06-01"},{"week_start_date":"2026-06-08"}]`)
	repo := NewInsightRepository(client)

	deleted, err := repo.DeleteBefore(context.Background(), "u1", "2026-07-20")
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	require.Len(t, *requests, 1)
	req := (*requests)[0]
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Equal(t, "lt.2026-07-20", req.Query["week_start_date"])
	assert.Equal(t, "eq.u1", req.Query["user_id"])
	assert.Equal(t, "return=representation", req.Prefer)
}
