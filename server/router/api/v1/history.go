package v1

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/triagesense/store"
)

type HistoryRecord struct {
	UID               string                `json:"uid"`
	ReportExcerpt     string                `json:"report_excerpt"`
	Symptoms          string                `json:"symptoms"`
	MedicalHistory    string                `json:"medical_history"`
	PrimarySpecialty  string                `json:"primary_specialty"`
	PrimaryConfidence float64               `json:"primary_confidence"`
	FellBack          bool                  `json:"fell_back"`
	Secondary         []string              `json:"secondary"`
	Analyses          []store.AgentAnalysis `json:"analyses"`
	CreatedTs         int64                 `json:"created_ts"`
}

type HistoryStatsResponse struct {
	Total       int64            `json:"total"`
	ThisMonth   int64            `json:"this_month"`
	ByPrimary   map[string]int64 `json:"by_primary"`
	LastCreated int64            `json:"last_created"`
}

// ListHistory returns the session's analysis records, newest first.
func (s *APIV1Service) ListHistory(c echo.Context) error {
	session := s.sessionID(c)

	find := &store.FindAnalysisRecord{SessionID: &session}
	if limit, err := strconv.Atoi(c.QueryParam("limit")); err == nil && limit > 0 {
		find.Limit = &limit
		if offset, err := strconv.Atoi(c.QueryParam("offset")); err == nil && offset > 0 {
			find.Offset = &offset
		}
	}

	records, err := s.Store.ListAnalysisRecords(c.Request().Context(), find)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list history")
	}

	list := make([]HistoryRecord, 0, len(records))
	for _, record := range records {
		list = append(list, toHistoryRecord(record))
	}
	return c.JSON(http.StatusOK, list)
}

// ClearHistory deletes all of the session's analysis records.
func (s *APIV1Service) ClearHistory(c echo.Context) error {
	session := s.sessionID(c)

	deleted, err := s.Store.DeleteAnalysisRecords(c.Request().Context(), &store.DeleteAnalysisRecord{SessionID: &session})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to clear history")
	}

	return c.JSON(http.StatusOK, map[string]int64{"deleted": deleted})
}

// GetHistoryStats summarizes the session's stored analyses.
func (s *APIV1Service) GetHistoryStats(c echo.Context) error {
	session := s.sessionID(c)

	stats, err := s.Store.GetAnalysisStats(c.Request().Context(), session)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get stats")
	}

	return c.JSON(http.StatusOK, &HistoryStatsResponse{
		Total:       stats.Total,
		ThisMonth:   stats.ThisMonth,
		ByPrimary:   stats.ByPrimary,
		LastCreated: stats.LastCreated,
	})
}

// ExportHistory streams the session's records as a JSON or CSV download.
func (s *APIV1Service) ExportHistory(c echo.Context) error {
	session := s.sessionID(c)

	format := c.QueryParam("format")
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "csv" {
		return echo.NewHTTPError(http.StatusBadRequest, "format must be json or csv")
	}

	records, err := s.Store.ListAnalysisRecords(c.Request().Context(), &store.FindAnalysisRecord{SessionID: &session})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list history")
	}

	filename := fmt.Sprintf("triagesense-history-%s.%s", time.Now().Format("20060102"), format)
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))

	if format == "json" {
		list := make([]HistoryRecord, 0, len(records))
		for _, record := range records {
			list = append(list, toHistoryRecord(record))
		}
		return c.JSON(http.StatusOK, list)
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)

	writer := csv.NewWriter(c.Response())
	if err := writer.Write([]string{"uid", "created", "primary_specialty", "primary_confidence", "fell_back", "secondary", "report_excerpt"}); err != nil {
		return err
	}
	for _, record := range records {
		row := []string{
			record.UID,
			time.Unix(record.CreatedTs, 0).UTC().Format(time.RFC3339),
			record.PrimarySpecialty,
			strconv.FormatFloat(record.PrimaryConfidence, 'f', 3, 64),
			strconv.FormatBool(record.FellBack),
			strings.Join(record.Secondary, ";"),
			record.ReportExcerpt,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func toHistoryRecord(record *store.AnalysisRecord) HistoryRecord {
	return HistoryRecord{
		UID:               record.UID,
		ReportExcerpt:     record.ReportExcerpt,
		Symptoms:          record.Symptoms,
		MedicalHistory:    record.History,
		PrimarySpecialty:  record.PrimarySpecialty,
		PrimaryConfidence: record.PrimaryConfidence,
		FellBack:          record.FellBack,
		Secondary:         record.Secondary,
		Analyses:          record.Analyses,
		CreatedTs:         record.CreatedTs,
	}
}
