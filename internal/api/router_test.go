package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"speak_score/internal/app/service"
	"speak_score/internal/common"
	"speak_score/internal/common/security"
	"speak_score/internal/domain/model"
	"speak_score/internal/platform/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type stubUserRepo struct {
	byName map[string]*model.User
}

func (r *stubUserRepo) Create(ctx context.Context, user *model.User) error {
	user.CreatedAt = time.Now().UTC()
	cp := *user
	r.byName[user.Username] = &cp
	return nil
}

func (r *stubUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	u, ok := r.byName[username]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

type stubProblemRepo struct {
	problems []model.Problem
	genres   []model.Genre
}

func (r *stubProblemRepo) CreateProblem(ctx context.Context, p *model.Problem) error {
	p.CreatedAt = time.Now().UTC()
	r.problems = append(r.problems, *p)
	return nil
}

func (r *stubProblemRepo) FindProblemByID(ctx context.Context, id string) (*model.Problem, error) {
	for i := range r.problems {
		if r.problems[i].ID == id {
			return &r.problems[i], nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *stubProblemRepo) ListRecentProblems(ctx context.Context, limit int) ([]model.Problem, error) {
	if len(r.problems) > limit {
		return r.problems[:limit], nil
	}
	return r.problems, nil
}

func (r *stubProblemRepo) CreateGenre(ctx context.Context, g *model.Genre) error {
	g.CreatedAt = time.Now().UTC()
	r.genres = append(r.genres, *g)
	return nil
}

func (r *stubProblemRepo) ListGenres(ctx context.Context) ([]model.Genre, error) {
	return r.genres, nil
}

type stubResultRepo struct {
	latest  map[string]*model.Result // problemID+"/"+userID
	ranking []model.RankingEntry
}

func (r *stubResultRepo) Create(ctx context.Context, res *model.Result) error { return nil }

func (r *stubResultRepo) FindLatest(ctx context.Context, problemID, userID string) (*model.Result, error) {
	res, ok := r.latest[problemID+"/"+userID]
	if !ok {
		return nil, common.ErrNotFound
	}
	return res, nil
}

func (r *stubResultRepo) Ranking(ctx context.Context, since time.Time, limit int) ([]model.RankingEntry, error) {
	if len(r.ranking) > limit {
		return r.ranking[:limit], nil
	}
	return r.ranking, nil
}

type stubObjectStore struct {
	keys []string
}

func (s *stubObjectStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	s.keys = append(s.keys, key)
	return nil
}

func (s *stubObjectStore) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "https://example.invalid/" + key, nil
}

type testEnv struct {
	server      *httptest.Server
	userRepo    *stubUserRepo
	problemRepo *stubProblemRepo
	resultRepo  *stubResultRepo
	store       *stubObjectStore
	rdb         *redis.Client
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	cfg := &config.Config{
		ProblemsLimit: 30,
		RankingWindow: time.Hour,
		RankingTopN:   10,
	}
	sessions := security.NewSessions([]byte("router-test-key"), time.Hour)

	env := &testEnv{
		userRepo:    &stubUserRepo{byName: map[string]*model.User{}},
		problemRepo: &stubProblemRepo{},
		resultRepo:  &stubResultRepo{latest: map[string]*model.Result{}},
		store:       &stubObjectStore{},
		rdb:         rdb,
	}

	router := NewRouter(
		service.NewAuthService(env.userRepo, sessions),
		service.NewProblemService(env.problemRepo, env.store, cfg),
		service.NewResultService(env.resultRepo, cfg),
		service.NewUploadService(env.store, rdb, "scoring_test_queue"),
		sessions,
	)
	env.server = httptest.NewServer(router)
	t.Cleanup(env.server.Close)
	return env
}

func TestLoginSetsSessionCookie(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Post(env.server.URL+"/login", "application/json",
		strings.NewReader(`{"username":"alice"}`))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d, want 200", resp.StatusCode)
	}

	var body struct {
		UserID   string `json:"user_id"`
		Username string `json:"username"`
		Message  string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.UserID == "" || body.Username != "alice" {
		t.Fatalf("unexpected body: %+v", body)
	}

	var sessionCookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == security.SessionCookieName {
			sessionCookie = c
		}
	}
	if sessionCookie == nil || sessionCookie.Value == "" {
		t.Fatal("expected a session cookie")
	}
	if !sessionCookie.HttpOnly {
		t.Fatal("session cookie must be HttpOnly")
	}
}

func TestLoginRejectsEmptyUsername(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Post(env.server.URL+"/login", "application/json",
		strings.NewReader(`{"username":"   "}`))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", resp.StatusCode)
	}
}

func TestListProblemsEnvelope(t *testing.T) {
	env := newTestEnv(t)
	env.problemRepo.problems = []model.Problem{
		{ID: "p1", GenreID: "g1", Text: "hello", AnswerFilePath: "answers/p1.mp3", CreatedAt: time.Now().UTC()},
	}

	resp, err := http.Get(env.server.URL + "/problems")
	if err != nil {
		t.Fatalf("list problems: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d, want 200", resp.StatusCode)
	}
	var body struct {
		Problems []model.Problem `json:"problems"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Problems) != 1 || body.Problems[0].ID != "p1" {
		t.Fatalf("unexpected problems: %+v", body.Problems)
	}
	if body.Problems[0].AnswerURL != "https://example.invalid/answers/p1.mp3" {
		t.Fatalf("answer URL %q, want presigned link", body.Problems[0].AnswerURL)
	}
}

func TestLatestResultNotFoundIs404(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.server.URL + "/problems/p1/result?user_id=u1")
	if err != nil {
		t.Fatalf("latest result: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status %d, want 404", resp.StatusCode)
	}
}

func TestLatestResultProjection(t *testing.T) {
	env := newTestEnv(t)
	score := 87.5
	transcript := "hello world"
	env.resultRepo.latest["p1/u1"] = &model.Result{
		ID: "r1", UserID: "u1", ProblemID: "p1",
		AnsweredText: &transcript, Score: &score,
		TryFilePath: "problems/p1/users/u1/r1.mp3",
		CreatedAt:   time.Now().UTC(),
	}

	resp, err := http.Get(env.server.URL + "/problems/p1/result?user_id=u1")
	if err != nil {
		t.Fatalf("latest result: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d, want 200", resp.StatusCode)
	}
	var body model.Result
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.ID != "r1" || body.Score == nil || *body.Score != 87.5 {
		t.Fatalf("unexpected result: %+v", body)
	}
}

func TestRankingEnvelope(t *testing.T) {
	env := newTestEnv(t)
	env.resultRepo.ranking = []model.RankingEntry{
		{Name: "alice", Score: 99.5},
		{Name: "bob", Score: 71},
	}

	resp, err := http.Get(env.server.URL + "/ranking")
	if err != nil {
		t.Fatalf("ranking: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d, want 200", resp.StatusCode)
	}
	var body struct {
		Ranking []model.RankingEntry `json:"ranking"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Ranking) != 2 || body.Ranking[0].Name != "alice" {
		t.Fatalf("unexpected ranking: %+v", body.Ranking)
	}
}

func multipartUpload(t *testing.T, url, filename string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte("fake audio bytes")); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	mw.Close()

	resp, err := http.Post(url+"/upload", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	return resp
}

func TestUploadAcceptsWellFormedFilename(t *testing.T) {
	env := newTestEnv(t)

	resp := multipartUpload(t, env.server.URL, "12_34.mp3")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d, want 200", resp.StatusCode)
	}
	var body struct {
		Status string `json:"status"`
		FileID string `json:"file_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" || body.FileID == "" {
		t.Fatalf("unexpected body: %+v", body)
	}
	if len(env.store.keys) != 1 {
		t.Fatalf("got %d stored objects, want 1", len(env.store.keys))
	}
}

func TestUploadRejectsFilenameWithoutUnderscore(t *testing.T) {
	env := newTestEnv(t)

	resp := multipartUpload(t, env.server.URL, "12-34.mp3")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", resp.StatusCode)
	}
}

func TestAuthoringRequiresSession(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Post(env.server.URL+"/genres", "application/json",
		strings.NewReader(`{"display_name":"Tongue Twisters"}`))
	if err != nil {
		t.Fatalf("create genre: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401 without a session", resp.StatusCode)
	}
}

func TestAuthoringWithSessionCreatesGenre(t *testing.T) {
	env := newTestEnv(t)

	loginResp, err := http.Post(env.server.URL+"/login", "application/json",
		strings.NewReader(`{"username":"author"}`))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	loginResp.Body.Close()
	cookies := loginResp.Cookies()

	body := strings.NewReader(`{"display_name":"Tongue Twisters"}`)
	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/genres", body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("create genre: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status %d, want 201", resp.StatusCode)
	}
	var genre model.Genre
	if err := json.NewDecoder(resp.Body).Decode(&genre); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if genre.Name != "tongue-twisters" {
		t.Fatalf("genre name %q, want slug %q", genre.Name, "tongue-twisters")
	}
}
