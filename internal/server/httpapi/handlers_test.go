package httpapi

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/habits/internal/common"
	"github.com/dmitrijs2005/habits/internal/logging"
	"github.com/dmitrijs2005/habits/internal/server/auth"
	"github.com/dmitrijs2005/habits/internal/server/metrics"
	"github.com/dmitrijs2005/habits/internal/server/models"
	"github.com/dmitrijs2005/habits/internal/server/services"
)

const habitUUID = "3f1c2b8e-9a4d-4e6f-8b21-5c7d9e0a1b23"

type fakeUsers struct {
	registerIn  services.RegisterInput
	registerErr error
	loginErr    error
}

func (f *fakeUsers) Register(ctx context.Context, in services.RegisterInput) (*models.User, string, error) {
	f.registerIn = in
	if f.registerErr != nil {
		return nil, "", f.registerErr
	}
	return &models.User{ID: alice.ID, Email: in.Email, Username: in.Username, PasswordHash: "$2a$secret"}, "tok", nil
}

func (f *fakeUsers) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	if f.loginErr != nil {
		return nil, "", f.loginErr
	}
	return &models.User{ID: alice.ID, Email: email, PasswordHash: "$2a$secret"}, "tok", nil
}

type fakeHabits struct {
	userID    string
	habitID   string
	createIn  services.CreateHabitInput
	updateIn  services.UpdateHabitInput
	completed models.Entry
	err       error
}

func (f *fakeHabits) Create(ctx context.Context, userID string, in services.CreateHabitInput) (*models.HabitWithTags, error) {
	f.userID, f.createIn = userID, in
	if f.err != nil {
		return nil, f.err
	}
	return &models.HabitWithTags{Habit: models.Habit{ID: habitUUID, UserID: userID, Name: in.Name, Frequency: in.Frequency}, Tags: []models.Tag{}}, nil
}

func (f *fakeHabits) Update(ctx context.Context, userID, habitID string, in services.UpdateHabitInput) (*models.HabitWithTags, error) {
	f.userID, f.updateIn = userID, in
	if f.err != nil {
		return nil, f.err
	}
	return &models.HabitWithTags{Habit: models.Habit{ID: habitID}, Tags: []models.Tag{}}, nil
}

func (f *fakeHabits) Delete(ctx context.Context, userID, habitID string) error {
	f.userID, f.habitID = userID, habitID
	return f.err
}

func (f *fakeHabits) List(ctx context.Context, userID string) ([]*models.HabitWithTags, error) {
	f.userID = userID
	if f.err != nil {
		return nil, f.err
	}
	return []*models.HabitWithTags{{Habit: models.Habit{ID: habitUUID}, Tags: []models.Tag{}}}, nil
}

func (f *fakeHabits) Stats(ctx context.Context, userID, habitID string) (*models.HabitStats, error) {
	f.userID = userID
	if f.err != nil {
		return nil, f.err
	}
	return &models.HabitStats{Habit: models.Habit{ID: habitID}, Tags: []models.Tag{}, Entries: []models.Entry{}}, nil
}

func (f *fakeHabits) Complete(ctx context.Context, userID string, e models.Entry) (*models.Entry, error) {
	f.userID, f.completed = userID, e
	if f.err != nil {
		return nil, f.err
	}
	e.ID = "e-1"
	return &e, nil
}

type fakeTags struct {
	err   error
	panic bool
}

func (f *fakeTags) List(ctx context.Context) ([]models.Tag, error) {
	if f.panic {
		panic("tags exploded")
	}
	if f.err != nil {
		return nil, f.err
	}
	return []models.Tag{{ID: "t-1", Name: "Health"}}, nil
}

func (f *fakeTags) Create(ctx context.Context, name string, color *string) (*models.Tag, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Tag{ID: "t-1", Name: name, Color: color}, nil
}

type testServer struct {
	handler http.Handler
	tokens  *auth.TokenIssuer
	users   *fakeUsers
	habits  *fakeHabits
	tags    *fakeTags
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{tokens: newTokens(), users: &fakeUsers{}, habits: &fakeHabits{}, tags: &fakeTags{}}
	ts.handler = NewRouter(Options{
		Users:   ts.users,
		Habits:  ts.habits,
		Tags:    ts.tags,
		Tokens:  ts.tokens,
		Metrics: metrics.New(),
		Dev:     true,
		Now:     func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) },
	})
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	if authed {
		r.Header.Set("Authorization", "Bearer "+mustIssue(t, ts.tokens, alice))
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, r)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/health", "", false)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"OK","timestamp":"2025-01-02T03:04:05Z","service":"Habits API"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodGet, "/health", "", false)

	rec := ts.do(t, http.MethodGet, "/metrics", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `habits_http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestNotFound(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/api/nothing?x=1", "", false)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Not found - /api/nothing?x=1"}`, rec.Body.String())
}

func TestRegister(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/api/auth/register",
		`{"email":"Lorem@Habits.com","username":"johndoe5","password":"password123","firstName":"Jay"}`, false)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "password")
	assert.NotContains(t, rec.Body.String(), "$2a$secret")

	body := decode(t, rec)
	assert.Equal(t, "User created successfully", body["message"])
	assert.Equal(t, "tok", body["token"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "lorem@habits.com", user["email"])
	assert.Equal(t, "password123", ts.users.registerIn.Password)
}

func TestRegister_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		body   string
		status int
		want   string
	}{
		{name: "invalid json", body: `{`, status: http.StatusBadRequest, want: "Invalid JSON body"},
		{name: "validation", body: `{"email":"x"}`, status: http.StatusBadRequest, want: "Body Validation Failed!"},
		{name: "duplicate", err: common.ErrorAlreadyExists, body: `{"email":"a@b.co","username":"a","password":"p"}`, status: http.StatusConflict, want: "User with this email or username already exists"},
		{name: "storage", err: errors.New("db down"), body: `{"email":"a@b.co","username":"a","password":"p"}`, status: http.StatusInternalServerError, want: "Failed to create user"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.users.registerErr = tt.err
			rec := ts.do(t, http.MethodPost, "/api/auth/register", tt.body, false)
			require.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.want, decode(t, rec)["error"])
		})
	}
}

func TestRegister_ValidationDetails(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/api/auth/register", `{"email":"x","username":"u","password":"p"}`, false)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t,
		`{"error":"Body Validation Failed!","details":[{"field":"email","message":"Invalid email address"}]}`,
		rec.Body.String())
}

func TestRegister_PasswordTooLongForBcrypt(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/api/auth/register",
		`{"email":"a@b.co","username":"a","password":"`+strings.Repeat("p", 100)+`"}`, false)

	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.JSONEq(t,
		`{"error":"Body Validation Failed!","details":[{"field":"password","message":"Must be at most 72 bytes"}]}`,
		rec.Body.String())
	assert.Empty(t, ts.users.registerIn.Password)
}

func TestInternalError_DetailsOnlyInDev(t *testing.T) {
	ts := newTestServer(t)
	ts.users.registerErr = errors.New("db down")
	rec := ts.do(t, http.MethodPost, "/api/auth/register", `{"email":"a@b.co","username":"a","password":"p"}`, false)
	assert.Equal(t, "db down", decode(t, rec)["details"])

	prod := NewRouter(Options{Users: ts.users, Habits: ts.habits, Tags: ts.tags, Tokens: ts.tokens})
	r := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(`{"email":"a@b.co","username":"a","password":"p"}`))
	rec = httptest.NewRecorder()
	prod.ServeHTTP(rec, r)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, decode(t, rec), "details")
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/api/auth/login", `{"email":"lorem@habits.com","password":"password123"}`, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Login successful", decode(t, rec)["message"])

	ts.users.loginErr = common.ErrorUnauthorized
	rec = ts.do(t, http.MethodPost, "/api/auth/login", `{"email":"lorem@habits.com","password":"wrong"}`, false)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid credentials!"}`, rec.Body.String())
}

func TestLogin_RateLimited(t *testing.T) {
	ts := newTestServer(t)
	h := NewRouter(Options{
		Users: ts.users, Habits: ts.habits, Tags: ts.tags, Tokens: ts.tokens,
		LoginLimiter: NewRateLimiter(0.001, 1, nil),
	})

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login",
			strings.NewReader(`{"email":"lorem@habits.com","password":"p"}`)))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestHabitRoutes_RequireToken(t *testing.T) {
	ts := newTestServer(t)
	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/habits"},
		{http.MethodPost, "/api/habits"},
		{http.MethodPatch, "/api/habits/" + habitUUID},
		{http.MethodDelete, "/api/habits/" + habitUUID},
		{http.MethodGet, "/api/habits/" + habitUUID + "/stats"},
		{http.MethodPost, "/api/habits/" + habitUUID + "/completed"},
		{http.MethodGet, "/api/tags"},
		{http.MethodPost, "/api/tags"},
	}
	for _, rt := range routes {
		rec := ts.do(t, rt.method, rt.path, "", false)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", rt.method, rt.path)
	}
}

func TestListHabits(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/api/habits", "", true)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, alice.ID, ts.habits.userID)
	habits := decode(t, rec)["habits"].([]any)
	require.Len(t, habits, 1)
	assert.Contains(t, habits[0], "tags")
}

func TestCreateHabit(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/api/habits",
		`{"name":"Run","frequency":"daily","targetCount":2,"tagIds":["`+habitUUID+`"]}`, true)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Habit created successfully", decode(t, rec)["message"])
	assert.Equal(t, models.FrequencyDaily, ts.habits.createIn.Frequency)
	assert.Equal(t, []string{habitUUID}, ts.habits.createIn.TagIDs)
	require.NotNil(t, ts.habits.createIn.TargetCount)
	assert.Equal(t, 2, *ts.habits.createIn.TargetCount)
}

func TestCreateHabit_Errors(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/habits", `{"name":"Run","frequency":"hourly"}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ts.habits.err = common.ErrorUnknownTag
	rec = ts.do(t, http.MethodPost, "/api/habits", `{"name":"Run","frequency":"daily","tagIds":["`+habitUUID+`"]}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ts.habits.err = errors.New("db down")
	rec = ts.do(t, http.MethodPost, "/api/habits", `{"name":"Run","frequency":"daily"}`, true)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to create habit!", decode(t, rec)["error"])
}

func TestUpdateHabit(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPatch, "/api/habits/"+habitUUID, `{"frequency":"weekly","isActive":false}`, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Nil(t, ts.habits.updateIn.TagIDs, "absent tagIds leaves tags untouched")
	require.NotNil(t, ts.habits.updateIn.Changes.Frequency)
	assert.Equal(t, models.FrequencyWeekly, *ts.habits.updateIn.Changes.Frequency)
	require.NotNil(t, ts.habits.updateIn.Changes.IsActive)
	assert.False(t, *ts.habits.updateIn.Changes.IsActive)

	rec = ts.do(t, http.MethodPatch, "/api/habits/"+habitUUID, `{"tagIds":[]}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, ts.habits.updateIn.TagIDs)
	assert.Empty(t, *ts.habits.updateIn.TagIDs)
}

func TestUpdateHabit_Errors(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPatch, "/api/habits/not-a-uuid", `{}`, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Params Validation Failed!", decode(t, rec)["error"])

	ts.habits.err = common.ErrorNotFound
	rec = ts.do(t, http.MethodPatch, "/api/habits/"+habitUUID, `{"name":"x"}`, true)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Habit not found!"}`, rec.Body.String())
}

func TestDeleteHabit(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodDelete, "/api/habits/"+habitUUID, "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Habit deleted successfully"}`, rec.Body.String())

	ts.habits.err = common.ErrorNotFound
	rec = ts.do(t, http.MethodDelete, "/api/habits/"+habitUUID, "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHabitID_Canonicalized(t *testing.T) {
	ts := newTestServer(t)

	for _, form := range []string{
		"urn:uuid:" + habitUUID,
		strings.ToUpper(habitUUID),
		strings.ReplaceAll(habitUUID, "-", ""),
	} {
		ts.habits.habitID = ""
		rec := ts.do(t, http.MethodDelete, "/api/habits/"+form, "", true)
		require.Equal(t, http.StatusOK, rec.Code, form)
		assert.Equal(t, habitUUID, ts.habits.habitID, form)
	}
}

func TestCollectionRoutes_TrailingSlash(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/habits/", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode(t, rec), "habits")

	rec = ts.do(t, http.MethodPost, "/api/habits/", `{"name":"Run","frequency":"daily"}`, true)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/tags/", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode(t, rec), "tags")
}

func TestHabitStats(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/habits/"+habitUUID+"/stats", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	habit := decode(t, rec)["habit"].(map[string]any)
	assert.Equal(t, habitUUID, habit["id"])
	assert.Contains(t, habit, "entries")
	assert.Contains(t, habit, "tags")

	ts.habits.err = common.ErrorNotFound
	rec = ts.do(t, http.MethodGet, "/api/habits/"+habitUUID+"/stats", "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCompleteHabit(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/habits/"+habitUUID+"/completed", "", true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, habitUUID, ts.habits.completed.HabitID)
	assert.True(t, ts.habits.completed.CompletionDate.IsZero())

	rec = ts.do(t, http.MethodPost, "/api/habits/"+habitUUID+"/completed",
		`{"completionDate":"2025-01-02T07:00:00Z","note":"5km"}`, true)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, time.Date(2025, 1, 2, 7, 0, 0, 0, time.UTC), ts.habits.completed.CompletionDate.UTC())
	assert.Equal(t, "Habit completed", decode(t, rec)["message"])

	ts.habits.err = common.ErrorNotFound
	rec = ts.do(t, http.MethodPost, "/api/habits/"+habitUUID+"/completed", "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTags(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/tags", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["tags"], 1)

	rec = ts.do(t, http.MethodPost, "/api/tags", `{"name":"Health","color":"#00ff00"}`, true)
	require.Equal(t, http.StatusCreated, rec.Code)

	ts.tags.err = common.ErrorAlreadyExists
	rec = ts.do(t, http.MethodPost, "/api/tags", `{"name":"Health"}`, true)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPanicIsLoggedWithRequest(t *testing.T) {
	var buf bytes.Buffer
	log := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
	ts := newTestServer(t)
	ts.tags.panic = true
	h := NewRouter(Options{Users: ts.users, Habits: ts.habits, Tags: ts.tags, Tokens: ts.tokens, Logger: log})

	r := httptest.NewRequest(http.MethodGet, "/api/tags", nil)
	r.Header.Set("Authorization", "Bearer "+mustIssue(t, ts.tokens, alice))
	r.Header.Set(requestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	require.NotPanics(t, func() { h.ServeHTTP(rec, r) })
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	records := map[string]map[string]any{}
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		var line map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &line))
		records[line["msg"].(string)] = line
	}

	require.Contains(t, records, "panic recovered")
	assert.Equal(t, "req-42", records["panic recovered"]["request_id"])
	require.Contains(t, records, "http request")
	assert.Equal(t, "req-42", records["http request"]["request_id"])
	assert.EqualValues(t, http.StatusInternalServerError, records["http request"]["status"])
}
