package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romanzh1/practice-srs/internal/models"
	"github.com/romanzh1/practice-srs/internal/repository/testdb"
	"github.com/romanzh1/practice-srs/internal/service"
)

const testSecret = "test-secret"

type testServer struct {
	t     *testing.T
	e     *echo.Echo
	clock *time.Time
	token string
}

func newTestServer(t *testing.T, start time.Time) *testServer {
	t.Helper()

	ts := &testServer{t: t, clock: &start}
	now := func() time.Time { return *ts.clock }

	svc := service.NewService(testdb.New(t), service.WithClock(now))
	h := NewHTTPHandler(svc, testSecret)
	h.now = now
	ts.e = NewServer(h)

	token, err := IssueToken(testSecret, "alice", time.Hour*24*365, start)
	require.NoError(t, err)
	ts.token = token

	return ts
}

func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	ts.t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if ts.token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+ts.token)
	}

	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, time.Now())
	ts.token = ""

	rec := ts.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuth(t *testing.T) {
	ts := newTestServer(t, time.Now())

	ts.token = ""
	rec := ts.do(http.MethodGet, "/api/v1/revisions", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	forged, err := IssueToken("other-secret", "alice", time.Hour, time.Now())
	require.NoError(t, err)
	ts.token = forged
	rec = ts.do(http.MethodGet, "/api/v1/revisions", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	expired, err := IssueToken(testSecret, "alice", time.Hour, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	ts.token = expired
	rec = ts.do(http.MethodGet, "/api/v1/revisions", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	_, err = IssueToken(testSecret, "", time.Hour, time.Now())
	assert.Error(t, err)
}

func TestAuth_UsesHandlerClock(t *testing.T) {
	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	ts := newTestServer(t, start)

	token, err := IssueToken(testSecret, "alice", time.Hour, start)
	require.NoError(t, err)
	ts.token = token

	rec := ts.do(http.MethodGet, "/api/v1/revisions", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	*ts.clock = start.Add(2 * time.Hour)
	rec = ts.do(http.MethodGet, "/api/v1/revisions", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid token", decode[errorResponse](t, rec).Error)
}

func TestRevisionFlow(t *testing.T) {
	day0 := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	ts := newTestServer(t, day0)

	rec := ts.do(http.MethodPost, "/api/v1/problems", `{"name":"Two Sum","platform":"LeetCode","markedForRevision":true,"dateSolved":"2024-01-10T00:00:00Z"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	problem := decode[models.Problem](t, rec)
	assert.True(t, problem.MarkedForRevision)

	*ts.clock = time.Date(2024, 1, 13, 8, 0, 0, 0, time.UTC)
	rec = ts.do(http.MethodGet, "/api/v1/revisions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	due := decode[dueAndUpcomingResponse](t, rec)
	require.Len(t, due.Today, 1)
	assert.Equal(t, "2024-01-13", due.Today[0].ScheduledDay)
	assert.False(t, due.Today[0].Overdue)
	assert.Len(t, due.Upcoming, 2)
	assert.Equal(t, 3, due.Stats.TotalPending)

	path := "/api/v1/revisions/" + strconv.FormatInt(due.Today[0].ID, 10) + "/complete"
	rec = ts.do(http.MethodPost, path, `{"performanceNotes":"hash map","timeTaken":10}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	done := decode[models.RevisionRecord](t, rec)
	assert.Equal(t, models.StatusCompleted, done.Status)
	assert.Equal(t, "hash map", done.PerformanceNotes)

	rec = ts.do(http.MethodPost, path, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "this item is no longer pending", decode[errorResponse](t, rec).Error)

	rec = ts.do(http.MethodGet, "/api/v1/problems/"+problem.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[models.Problem](t, rec).RevisionCount)

	rec = ts.do(http.MethodGet, "/api/v1/revisions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 33.3, decode[dueAndUpcomingResponse](t, rec).Stats.CompletionRate)

	*ts.clock = time.Date(2024, 1, 18, 8, 0, 0, 0, time.UTC)
	rec = ts.do(http.MethodGet, "/api/v1/revisions?tz=Asia/Tokyo", "")
	require.Equal(t, http.StatusOK, rec.Code)
	due = decode[dueAndUpcomingResponse](t, rec)
	require.Len(t, due.Today, 1)
	assert.Equal(t, models.CycleSevenDay, due.Today[0].Cycle)
	assert.Equal(t, "2024-01-17", due.Today[0].ScheduledDay)
	assert.True(t, due.Today[0].Overdue)

	rec = ts.do(http.MethodDelete, "/api/v1/problems/"+problem.ID+"/revision", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]int{"deleted": 2}, decode[map[string]int](t, rec))
}

func TestOptIn(t *testing.T) {
	ts := newTestServer(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))

	rec := ts.do(http.MethodPost, "/api/v1/problems/nope/revision", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodPost, "/api/v1/problems", `{"name":"Coin Change"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	problem := decode[models.Problem](t, rec)
	assert.False(t, problem.MarkedForRevision)

	rec = ts.do(http.MethodPost, "/api/v1/problems/"+problem.ID+"/revision", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	record := decode[models.RevisionRecord](t, rec)
	assert.Equal(t, models.CycleThreeDay, record.Cycle)
	assert.True(t, record.ScheduledDate.Equal(time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)))

	rec = ts.do(http.MethodPost, "/api/v1/problems/"+problem.ID+"/revision", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already marked for revision", decode[errorResponse](t, rec).Error)
}

func TestValidation(t *testing.T) {
	ts := newTestServer(t, time.Now())

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"missing name", http.MethodPost, "/api/v1/problems", `{"platform":"LeetCode"}`},
		{"bad revision id", http.MethodPost, "/api/v1/revisions/abc/complete", ""},
		{"negative time", http.MethodPost, "/api/v1/revisions/1/complete", `{"timeTaken":-5}`},
		{"unknown timezone", http.MethodGet, "/api/v1/revisions?tz=Mars/Olympus", ""},
		{"reminder without chat", http.MethodPut, "/api/v1/reminders", `{"enabled":true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestSaveReminders(t *testing.T) {
	ts := newTestServer(t, time.Now())

	rec := ts.do(http.MethodPut, "/api/v1/reminders", `{"telegramChatId":12345,"enabled":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sub := decode[models.ReminderSubscription](t, rec)
	assert.Equal(t, "alice", sub.OwnerID)
	assert.Equal(t, int64(12345), sub.TelegramChatID)
	assert.True(t, sub.Enabled)
}
