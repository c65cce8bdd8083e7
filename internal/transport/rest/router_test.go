package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	_ "taxnavo/docs"
	"taxnavo/internal/catalog"
	"taxnavo/internal/model"
	"taxnavo/internal/repository"
	"taxnavo/internal/service"
	"taxnavo/internal/transport/ws"
)

type memStore struct {
	mu      sync.Mutex
	data    map[service.SaveKey]model.AnswerMap
	saveErr error
}

func (m *memStore) Load(ctx context.Context, userID string, year int) (model.AnswerMap, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[service.SaveKey{UserID: userID, Year: year}].Clone(), nil
}

func (m *memStore) Save(ctx context.Context, userID string, year int, answers model.AnswerMap) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	if m.data == nil {
		m.data = make(map[service.SaveKey]model.AnswerMap)
	}
	m.data[service.SaveKey{UserID: userID, Year: year}] = answers.Clone()
	return nil
}

type memUsers struct {
	mu    sync.Mutex
	users []*model.User
}

func (m *memUsers) Create(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user.Email = strings.ToLower(user.Email)
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	m.users = append(m.users, user)
	return nil
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == strings.ToLower(email) {
			return u, nil
		}
	}
	return nil, nil
}

func (m *memUsers) GetByID(ctx context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

type memDocuments struct {
	mu   sync.Mutex
	next int
	docs []*model.Document
}

func (m *memDocuments) Create(ctx context.Context, doc *model.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	doc.ID = "doc-" + string(rune('0'+m.next))
	doc.UploadedAt = time.Now()
	m.docs = append(m.docs, doc)
	return nil
}

func (m *memDocuments) ListByUser(ctx context.Context, userID string, year int) ([]*model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Document{}
	for _, d := range m.docs {
		if d.UserID == userID && (year == 0 || d.Year == year) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memDocuments) Delete(ctx context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, d := range m.docs {
		if d.UserID == userID && d.ID == id {
			m.docs = append(m.docs[:i], m.docs[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type testServer struct {
	srv   *httptest.Server
	store *memStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()

	reg := catalog.NewRegistry()
	require.NoError(t, reg.Register(&model.QuestionSet{
		Year:      2030,
		Title:     "Test",
		Documents: []string{"Photo ID"},
		Questions: []model.Question{
			{ID: "1", Prompt: "Name?", Kind: model.KindFreeForm, InputType: model.InputText, ProfileField: "full_name"},
			{ID: "2", Prompt: "Dependents?", Kind: model.KindChoice, Options: []string{"Yes", "No"},
				Documents: &model.DocumentRule{In: []string{"Yes"}, Names: []string{"Dependent SSN cards"}}},
			{ID: "3", Prompt: "How many?", Kind: model.KindFreeForm, InputType: model.InputNumber},
		},
	}))

	store := &memStore{}
	saver := service.NewSaver(store, 1, time.Second, logger)
	questionnaires := service.NewQuestionnaireService(reg, store, nil, saver, time.Hour, logger)
	hub := ws.NewHub(logger)
	saver.SetBroadcaster(hub)

	c := &Container{
		AuthService: service.NewAuthService(&memUsers{}, store, service.AuthConfig{
			JWTSecret:  "test-secret",
			TokenTTL:   time.Hour,
			SignupYear: 2030,
		}, logger),
		QuestionnaireService: questionnaires,
		ProfileService:       service.NewProfileService(reg, store, nil, logger),
		DocumentService:      service.NewDocumentService(&memDocuments{}, questionnaires, logger),
		WSHub:                hub,
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST"},
			AllowedHeaders: []string{"Authorization"},
		},
		Logger: logger,
	}

	srv := httptest.NewServer(NewRouter(c))
	t.Cleanup(func() {
		srv.Close()
		questionnaires.Close()
		require.NoError(t, saver.Close(context.Background()))
		hub.Close()
	})
	return &testServer{srv: srv, store: store}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var r *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	} else {
		r = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, ts.srv.URL+path, r)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func (ts *testServer) login(t *testing.T) string {
	t.Helper()
	creds := model.SignupRequest{Email: "pat@example.com", Password: "secret"}
	resp := ts.do(t, "POST", "/v1/auth/signup", "", creds)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = ts.do(t, "POST", "/v1/auth/login", "", model.LoginRequest{Email: creds.Email, Password: creds.Password})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var lr model.LoginResponse
	decode(t, resp, &lr)
	require.NotEmpty(t, lr.Token)
	return lr.Token
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp := ts.do(t, "GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestSwaggerDoc(t *testing.T) {
	ts := newTestServer(t)
	resp := ts.do(t, "GET", "/swagger/doc.json", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var doc struct {
		BasePath string                 `json:"basePath"`
		Paths    map[string]interface{} `json:"paths"`
	}
	decode(t, resp, &doc)
	assert.Equal(t, "/v1", doc.BasePath)
	assert.Contains(t, doc.Paths, "/questionnaires/{year}/answers")
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)
	resp := ts.do(t, "OPTIONS", "/v1/questionnaires/2030", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "GET, POST", resp.Header.Get("Access-Control-Allow-Methods"))
}

func TestYears_Public(t *testing.T) {
	ts := newTestServer(t)
	resp := ts.do(t, "GET", "/v1/years", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string][]int
	decode(t, resp, &body)
	assert.Equal(t, []int{2030}, body["years"])
}

func TestUserRoutes_RequireToken(t *testing.T) {
	ts := newTestServer(t)
	resp := ts.do(t, "GET", "/v1/questionnaires/2030", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = ts.do(t, "GET", "/v1/profile", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t)
	resp := ts.do(t, "POST", "/v1/auth/signup", "", model.SignupRequest{Email: "PAT@example.com", Password: "x"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestLogin_WrongPassword(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t)
	resp := ts.do(t, "POST", "/v1/auth/login", "", model.LoginRequest{Email: "pat@example.com", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestQuestionnaireFlow(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t)

	resp := ts.do(t, "GET", "/v1/questionnaires/2030", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var st model.SessionState
	decode(t, resp, &st)
	assert.Equal(t, 0, st.Cursor)
	assert.Equal(t, 3, st.Total)
	require.NotNil(t, st.Question)
	assert.Equal(t, model.QuestionID("1"), st.Question.ID)

	resp = ts.do(t, "POST", "/v1/questionnaires/2030/answers", token,
		model.RecordAnswerRequest{QuestionID: "2", Value: model.Text("Yes")})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	var errBody struct {
		Error string              `json:"error"`
		State *model.SessionState `json:"state"`
	}
	decode(t, resp, &errBody)
	require.NotNil(t, errBody.State)
	assert.Equal(t, 0, errBody.State.Cursor)

	resp = ts.do(t, "POST", "/v1/questionnaires/2030/answers", token,
		model.RecordAnswerRequest{QuestionID: "1", Value: model.Text("Pat Doe")})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.do(t, "POST", "/v1/questionnaires/2030/advance", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &st)
	assert.Equal(t, 1, st.Cursor)

	resp = ts.do(t, "POST", "/v1/questionnaires/2030/answers", token,
		model.RecordAnswerRequest{QuestionID: "2", Value: model.Text("Maybe")})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = ts.do(t, "POST", "/v1/questionnaires/2030/answers", token,
		model.RecordAnswerRequest{QuestionID: "2", Value: model.Text("Yes")})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.do(t, "PUT", "/v1/questionnaires/2030/save", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &st)
	assert.NotNil(t, st.Save.LastSavedAt)
	assert.Empty(t, st.Save.LastError)

	resp = ts.do(t, "GET", "/v1/questionnaires/2030/answers", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var answers model.AnswerMap
	decode(t, resp, &answers)
	assert.Equal(t, model.AnswerMap{"1": model.Text("Pat Doe"), "2": model.Text("Yes")}, answers)

	resp = ts.do(t, "POST", "/v1/questionnaires/2030/retreat", token, nil)
	decode(t, resp, &st)
	assert.Equal(t, 0, st.Cursor)

	resp = ts.do(t, "POST", "/v1/questionnaires/2030/seek", token, model.SeekRequest{Index: 99})
	decode(t, resp, &st)
	assert.Equal(t, 3, st.Cursor)
	assert.True(t, st.Complete)
}

func TestQuestionnaire_UnknownYear(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t)
	resp := ts.do(t, "GET", "/v1/questionnaires/1999", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSave_StoreFailureKeepsState(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t)

	resp := ts.do(t, "POST", "/v1/questionnaires/2030/answers", token,
		model.RecordAnswerRequest{QuestionID: "1", Value: model.Text("Pat")})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	ts.store.mu.Lock()
	ts.store.saveErr = assert.AnError
	ts.store.mu.Unlock()

	resp = ts.do(t, "PUT", "/v1/questionnaires/2030/save", token, nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	var errBody struct {
		State *model.SessionState `json:"state"`
	}
	decode(t, resp, &errBody)
	require.NotNil(t, errBody.State)
	assert.Equal(t, model.Text("Pat"), errBody.State.Answers["1"])
	assert.NotEmpty(t, errBody.State.Save.LastError)
}

func TestProfile(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t)

	ts.do(t, "POST", "/v1/questionnaires/2030/answers", token,
		model.RecordAnswerRequest{QuestionID: "1", Value: model.Text("Pat Doe")})
	resp := ts.do(t, "PUT", "/v1/questionnaires/2030/save", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.do(t, "GET", "/v1/profile", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var p model.Profile
	decode(t, resp, &p)
	assert.Equal(t, "pat@example.com", p.Email)
	assert.Equal(t, 2030, p.SourceYear)
	assert.Equal(t, "Pat Doe", p.Fields["full_name"])
}

func upload(t *testing.T, ts *testServer, token, docType string, content []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("docType", docType))
	require.NoError(t, mw.WriteField("year", "2030"))
	fw, err := mw.CreateFormFile("file", "w2.pdf")
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest("POST", ts.srv.URL+"/v1/documents", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestDocuments(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t)

	resp := upload(t, ts, token, "Photo ID", []byte("%PDF-1.4\n%fake\n"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var doc model.Document
	decode(t, resp, &doc)
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.Equal(t, 2030, doc.Year)

	resp = upload(t, ts, token, "Photo ID", []byte("plain text is not a document"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(t, "GET", "/v1/documents?year=2030", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var docs []model.Document
	decode(t, resp, &docs)
	require.Len(t, docs, 1)

	resp = ts.do(t, "GET", "/v1/questionnaires/2030/documents", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var items []model.ChecklistItem
	decode(t, resp, &items)
	assert.Equal(t, []model.ChecklistItem{{Name: "Photo ID", Uploaded: true}}, items)

	resp = ts.do(t, "DELETE", "/v1/documents/"+doc.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = ts.do(t, "DELETE", "/v1/documents/"+doc.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNumberAnswers_RejectNonFinite(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t)

	resp := ts.do(t, "POST", "/v1/questionnaires/2030/answers", token,
		model.RecordAnswerRequest{QuestionID: "1", Value: model.Text("Pat")})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = ts.do(t, "POST", "/v1/questionnaires/2030/advance", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = ts.do(t, "POST", "/v1/questionnaires/2030/answers", token,
		model.RecordAnswerRequest{QuestionID: "2", Value: model.Text("Yes")})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = ts.do(t, "POST", "/v1/questionnaires/2030/advance", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for _, in := range []string{"NaN", "Inf", "-Infinity", "0x1p4", "1e400"} {
		resp = ts.do(t, "POST", "/v1/questionnaires/2030/answers", token,
			model.RecordAnswerRequest{QuestionID: "3", Value: model.Text(in)})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, "input %q", in)
	}

	resp = ts.do(t, "POST", "/v1/questionnaires/2030/answers", token,
		model.RecordAnswerRequest{QuestionID: "3", Value: model.Text("2")})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// every successful reply carries a decodable body
	for _, path := range []string{"/v1/questionnaires/2030", "/v1/questionnaires/2030/answers"} {
		resp = ts.do(t, "GET", path, token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
		var body map[string]interface{}
		decode(t, resp, &body)
		assert.NotEmpty(t, body, path)
	}

	resp = ts.do(t, "GET", "/v1/questionnaires/2030/answers", token, nil)
	var answers model.AnswerMap
	decode(t, resp, &answers)
	assert.Equal(t, model.Number(2), answers["3"])
}
