package v1

import (
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/triagesense/ai/agent"
	"github.com/hrygo/triagesense/ai/routing"
	"github.com/hrygo/triagesense/store"
)

// maxReportUploadBytes caps uploaded report files.
const maxReportUploadBytes = 16 << 20

type AnalyzeRequest struct {
	ReportText     string `json:"report_text"`
	Symptoms       string `json:"symptoms"`
	MedicalHistory string `json:"medical_history"`
}

type AnalyzeResponse struct {
	UID       string                `json:"uid"`
	SessionID string                `json:"session_id"`
	Decision  routing.Decision      `json:"decision"`
	Primary   routing.AgentResult   `json:"primary"`
	Secondary []routing.AgentResult `json:"secondary"`
	CreatedTs int64                 `json:"created_ts"`
}

// Analyze runs the full report analysis pipeline: parse input (JSON body or
// an uploaded .txt file), route to specialists, generate analyses, persist
// the record for the session.
func (s *APIV1Service) Analyze(c echo.Context) error {
	if s.Router == nil {
		return errAIDisabled()
	}

	start := time.Now()
	session := s.sessionID(c)

	request, err := s.parseAnalyzeRequest(c)
	if err != nil {
		s.observeAnalyze("bad_request", start)
		return err
	}
	if strings.TrimSpace(request.ReportText) == "" {
		s.observeAnalyze("bad_request", start)
		return echo.NewHTTPError(http.StatusBadRequest, "report text is required")
	}

	ctx := c.Request().Context()
	analysis := s.Router.Analyze(ctx, request.ReportText, request.Symptoms, request.MedicalHistory)

	record := &store.AnalysisRecord{
		SessionID:         session,
		ReportExcerpt:     request.ReportText,
		Symptoms:          request.Symptoms,
		History:           request.MedicalHistory,
		PrimarySpecialty:  analysis.Decision.Primary,
		PrimaryConfidence: analysis.Decision.PrimaryScore,
		FellBack:          analysis.Decision.Primary == agent.KeyGeneral,
		Secondary:         secondaryKeys(analysis.Secondary),
		Analyses:          toStoredAnalyses(analysis),
	}
	if _, err := s.Store.CreateAnalysisRecord(ctx, record); err != nil {
		// The analysis itself succeeded; history persistence is best-effort.
		slog.Error("failed to persist analysis record", "error", err)
	}

	s.observeAnalyze("ok", start)
	return c.JSON(http.StatusOK, &AnalyzeResponse{
		UID:       record.UID,
		SessionID: session,
		Decision:  analysis.Decision,
		Primary:   analysis.Primary,
		Secondary: analysis.Secondary,
		CreatedTs: record.CreatedTs,
	})
}

// parseAnalyzeRequest accepts either a JSON body or a multipart form with a
// plain-text report file under the "report_file" field.
func (s *APIV1Service) parseAnalyzeRequest(c echo.Context) (*AnalyzeRequest, error) {
	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(contentType, echo.MIMEMultipartForm) {
		request := &AnalyzeRequest{}
		if err := c.Bind(request); err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
		return request, nil
	}

	file, err := c.FormFile("report_file")
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "report file is required")
	}
	if !strings.EqualFold(filepath.Ext(file.Filename), ".txt") {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "only .txt report files are supported")
	}
	if file.Size > maxReportUploadBytes {
		return nil, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "report file exceeds 16MB")
	}

	src, err := file.Open()
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "failed to open report file")
	}
	defer src.Close()

	content, err := io.ReadAll(io.LimitReader(src, maxReportUploadBytes))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "failed to read report file")
	}

	return &AnalyzeRequest{
		ReportText:     string(content),
		Symptoms:       c.FormValue("symptoms"),
		MedicalHistory: c.FormValue("medical_history"),
	}, nil
}

func (s *APIV1Service) observeAnalyze(status string, start time.Time) {
	if s.Exporter != nil {
		s.Exporter.ObserveAnalyze(status, time.Since(start))
	}
}

func secondaryKeys(results []routing.AgentResult) []string {
	keys := make([]string, 0, len(results))
	for _, result := range results {
		keys = append(keys, result.Key)
	}
	return keys
}

func toStoredAnalyses(analysis *routing.Analysis) []store.AgentAnalysis {
	stored := make([]store.AgentAnalysis, 0, 1+len(analysis.Secondary))
	for _, result := range append([]routing.AgentResult{analysis.Primary}, analysis.Secondary...) {
		stored = append(stored, store.AgentAnalysis{
			Key:        result.Key,
			Name:       result.Name,
			Icon:       result.Icon,
			Confidence: result.Confidence,
			Analysis:   result.Analysis,
		})
	}
	return stored
}
