package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/triagesense/ai/agent"
	"github.com/hrygo/triagesense/ai/routing"
	"github.com/hrygo/triagesense/internal/profile"
	"github.com/hrygo/triagesense/store"
	"github.com/hrygo/triagesense/store/db/sqlite"
)

type completerFunc func(ctx context.Context, prompt string) string

func (f completerFunc) Complete(ctx context.Context, prompt string) string {
	return f(ctx, prompt)
}

func newTestService(t *testing.T, withAI bool) *APIV1Service {
	t.Helper()

	p := &profile.Profile{
		Mode:    "dev",
		Driver:  "sqlite",
		DSN:     filepath.Join(t.TempDir(), "test.db"),
		Version: "0.1.0",
	}
	driver, err := sqlite.NewDB(p)
	require.NoError(t, err)
	require.NoError(t, driver.Migrate(context.Background()))

	storeInstance := store.New(driver, p)
	t.Cleanup(func() { _ = storeInstance.Close() })

	profiles, err := agent.Defaults()
	require.NoError(t, err)

	service := &APIV1Service{
		Profile:  p,
		Store:    storeInstance,
		Profiles: profiles,
	}
	if withAI {
		completer := completerFunc(func(_ context.Context, _ string) string {
			return "Generated analysis."
		})
		router, err := routing.NewRouter(completer, profiles)
		require.NoError(t, err)
		service.Router = router
	}
	return service
}

func doJSON(t *testing.T, handler echo.HandlerFunc, method, target, body, session string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if session != "" {
		req.Header.Set(sessionHeader, session)
	}
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	err := handler(c)
	if err != nil {
		var httpErr *echo.HTTPError
		require.ErrorAs(t, err, &httpErr)
		rec.Code = httpErr.Code
	}
	return rec
}

func TestGetStatus(t *testing.T) {
	service := newTestService(t, false)

	rec := doJSON(t, service.GetStatus, http.MethodGet, "/api/v1/status", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	response := &StatusResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), response))
	require.Equal(t, "triagesense", response.Name)
	require.False(t, response.AIEnabled)
	require.Len(t, response.Specialties, 4)
	require.Equal(t, agent.KeyGeneral, response.Specialties[len(response.Specialties)-1].Key)
}

func TestAnalyzeRequiresAI(t *testing.T) {
	service := newTestService(t, false)

	rec := doJSON(t, service.Analyze, http.MethodPost, "/api/v1/analyze", `{"report_text":"x"}`, "s")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAnalyzeRejectsEmptyReport(t *testing.T) {
	service := newTestService(t, true)

	rec := doJSON(t, service.Analyze, http.MethodPost, "/api/v1/analyze", `{"report_text":"   "}`, "s")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzePersistsAndResponds(t *testing.T) {
	service := newTestService(t, true)

	body := `{"report_text":"ECG shows arrhythmia, chest pain, palpitations, angina, murmur, hypertension, high cholesterol","symptoms":"palpitations"}`
	rec := doJSON(t, service.Analyze, http.MethodPost, "/api/v1/analyze", body, "session-a")
	require.Equal(t, http.StatusOK, rec.Code)

	response := &AnalyzeResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), response))
	require.Equal(t, "session-a", response.SessionID)
	require.Equal(t, agent.KeyCardiology, response.Decision.Primary)
	require.Equal(t, "Generated analysis.", response.Primary.Analysis)
	require.NotEmpty(t, response.UID)

	session := "session-a"
	records, err := service.Store.ListAnalysisRecords(context.Background(), &store.FindAnalysisRecord{SessionID: &session})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, agent.KeyCardiology, records[0].PrimarySpecialty)
	require.False(t, records[0].FellBack)
}

func TestAnalyzeMultipartUpload(t *testing.T) {
	service := newTestService(t, true)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("report_file", "report.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("chest pain, palpitations, arrhythmia, angina, murmur, hypertension"))
	require.NoError(t, err)
	require.NoError(t, writer.WriteField("symptoms", "dizziness"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", &buf)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	req.Header.Set(sessionHeader, "s")
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	require.NoError(t, service.Analyze(c))
	require.Equal(t, http.StatusOK, rec.Code)

	response := &AnalyzeResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), response))
	require.Equal(t, agent.KeyCardiology, response.Decision.Primary)
}

func TestAnalyzeRejectsNonTxtUpload(t *testing.T) {
	service := newTestService(t, true)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("report_file", "report.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("content"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", &buf)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	err = service.Analyze(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestChatRoundTrip(t *testing.T) {
	service := newTestService(t, true)

	rec := doJSON(t, service.CreateChatMessage, http.MethodPost, "/api/v1/chat/messages", `{"message":"What does an elevated LDL mean?"}`, "chat-s")
	require.Equal(t, http.StatusOK, rec.Code)

	response := &ChatResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), response))
	require.Equal(t, "user", response.Message.Role)
	require.Equal(t, "assistant", response.Reply.Role)
	require.Equal(t, "Generated analysis.", response.Reply.Content)

	listRec := doJSON(t, service.ListChatMessages, http.MethodGet, "/api/v1/chat/messages", "", "chat-s")
	require.Equal(t, http.StatusOK, listRec.Code)
	var transcript []ChatMessage
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &transcript))
	require.Len(t, transcript, 2)

	clearRec := doJSON(t, service.ClearChatMessages, http.MethodDelete, "/api/v1/chat/messages", "", "chat-s")
	require.Equal(t, http.StatusOK, clearRec.Code)

	listRec = doJSON(t, service.ListChatMessages, http.MethodGet, "/api/v1/chat/messages", "", "chat-s")
	transcript = nil
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &transcript))
	require.Empty(t, transcript)
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	service := newTestService(t, true)

	rec := doJSON(t, service.CreateChatMessage, http.MethodPost, "/api/v1/chat/messages", `{"message":""}`, "s")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryStatsAndClear(t *testing.T) {
	service := newTestService(t, true)

	body := `{"report_text":"chest pain, palpitations, arrhythmia, angina, murmur, hypertension"}`
	for i := 0; i < 2; i++ {
		rec := doJSON(t, service.Analyze, http.MethodPost, "/api/v1/analyze", body, "hist-s")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	statsRec := doJSON(t, service.GetHistoryStats, http.MethodGet, "/api/v1/history/stats", "", "hist-s")
	require.Equal(t, http.StatusOK, statsRec.Code)
	stats := &HistoryStatsResponse{}
	require.NoError(t, json.Unmarshal(statsRec.Body.Bytes(), stats))
	require.Equal(t, int64(2), stats.Total)
	require.Equal(t, int64(2), stats.ByPrimary[agent.KeyCardiology])

	clearRec := doJSON(t, service.ClearHistory, http.MethodDelete, "/api/v1/history", "", "hist-s")
	require.Equal(t, http.StatusOK, clearRec.Code)

	statsRec = doJSON(t, service.GetHistoryStats, http.MethodGet, "/api/v1/history/stats", "", "hist-s")
	stats = &HistoryStatsResponse{}
	require.NoError(t, json.Unmarshal(statsRec.Body.Bytes(), stats))
	require.Equal(t, int64(0), stats.Total)
}

func TestExportHistoryCSV(t *testing.T) {
	service := newTestService(t, true)

	body := `{"report_text":"chest pain, palpitations, arrhythmia, angina, murmur, hypertension"}`
	rec := doJSON(t, service.Analyze, http.MethodPost, "/api/v1/analyze", body, "exp-s")
	require.Equal(t, http.StatusOK, rec.Code)

	exportRec := doJSON(t, service.ExportHistory, http.MethodGet, "/api/v1/history/export?format=csv", "", "exp-s")
	require.Equal(t, http.StatusOK, exportRec.Code)
	require.Contains(t, exportRec.Header().Get(echo.HeaderContentDisposition), "attachment")

	lines := strings.Split(strings.TrimSpace(exportRec.Body.String()), "\n")
	require.Len(t, lines, 2)
	require.True(t, strings.HasPrefix(lines[0], "uid,created,primary_specialty"))
	require.Contains(t, lines[1], agent.KeyCardiology)
}

func TestExportHistoryRejectsUnknownFormat(t *testing.T) {
	service := newTestService(t, true)

	rec := doJSON(t, service.ExportHistory, http.MethodGet, "/api/v1/history/export?format=xml", "", "s")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionAssignedWhenHeaderMissing(t *testing.T) {
	service := newTestService(t, true)

	rec := doJSON(t, service.ListChatMessages, http.MethodGet, "/api/v1/chat/messages", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get(sessionHeader))
}

func TestRegisterRoutes(t *testing.T) {
	service := newTestService(t, true)

	e := echo.New()
	service.RegisterRoutes(e)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
