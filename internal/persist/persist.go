// Package persist writes per-target results to disk: byte-stable JSON plus
// derived CSV for the tabular record groups.
package persist

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/maheshrjl/reraharvest/api/schemas"
)

// stableJSON sorts map keys so repeated writes of the same data are
// byte-identical.
var stableJSON = jsoniter.Config{
	SortMapKeys:   true,
	IndentionStep: 2,
}.Froze()

const surveyNumberColumn = "Survey Number"

// FileSink implements schemas.ResultSink on the local filesystem.
type FileSink struct {
	baseDir string
	logger  *zap.Logger
}

var _ schemas.ResultSink = (*FileSink)(nil)

// NewFileSink creates a sink rooted at baseDir.
func NewFileSink(baseDir string, logger *zap.Logger) *FileSink {
	return &FileSink{
		baseDir: baseDir,
		logger:  logger.Named("persist"),
	}
}

// WriteTarget persists one successful target payload:
//
//	<base>/project_details.json                  {projectDetails, complaints}
//	<base>/json/<slug>_land_details.json         pivoted land rows
//	<base>/csv/<slug>_land_details.csv
//	<base>/json/<slug>_documents.json            flat document records
//	<base>/csv/<slug>_documents.csv
//
// project_details.json is a fixed path: in a multi-target run the
// last-persisted target's registration payload wins. The slug-prefixed land
// and document files never collide across targets.
func (s *FileSink) WriteTarget(result *schemas.TargetResult) error {
	if result == nil {
		return fmt.Errorf("nil target result")
	}
	slug := Slug(result.Target)

	jsonDir := filepath.Join(s.baseDir, "json")
	csvDir := filepath.Join(s.baseDir, "csv")
	for _, dir := range []string{s.baseDir, jsonDir, csvDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory %q: %w", dir, err)
		}
	}

	if result.Registration != nil {
		path := filepath.Join(s.baseDir, "project_details.json")
		if err := s.writeJSON(path, result.Registration); err != nil {
			return err
		}
	}

	if result.LandDocuments != nil {
		headers, rows := PivotLandDetails(result.LandDocuments.LandDetails)

		if err := s.writeJSON(filepath.Join(jsonDir, slug+"_land_details.json"), rows); err != nil {
			return err
		}
		if err := s.writeCSV(filepath.Join(csvDir, slug+"_land_details.csv"), headers, landCSVRows(headers, rows)); err != nil {
			return err
		}

		if err := s.writeJSON(filepath.Join(jsonDir, slug+"_documents.json"), result.LandDocuments.Documents); err != nil {
			return err
		}
		docHeaders, docRows := documentRows(result.LandDocuments.Documents)
		if err := s.writeCSV(filepath.Join(csvDir, slug+"_documents.csv"), docHeaders, docRows); err != nil {
			return err
		}
	}

	s.logger.Info("Persisted target result.", zap.String("target", result.Target), zap.String("slug", slug))
	return nil
}

func (s *FileSink) writeJSON(path string, v any) error {
	data, err := stableJSON.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %q: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %q: %w", path, err)
	}
	return nil
}

func (s *FileSink) writeCSV(path string, headers []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %q: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(headers); err != nil {
		return fmt.Errorf("failed to write CSV header to %q: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write CSV rows to %q: %w", path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush %q: %w", path, err)
	}
	return nil
}

// Slug derives a filesystem-safe base name from a target identifier: lower
// case, whitespace runs collapsed to single underscores, path separators
// replaced.
func Slug(target string) string {
	lowered := strings.ToLower(strings.TrimSpace(target))
	lowered = strings.ReplaceAll(lowered, "/", "_")
	return strings.Join(strings.Fields(lowered), "_")
}

// PivotLandDetails turns the flat (surveyNumber, field, value) triples into
// one row per survey number. Column order is the survey-number column
// followed by field names in first-seen order; a survey number missing a
// field simply has no entry for it (absent in JSON, empty in CSV).
func PivotLandDetails(triples []schemas.LandDetailRecord) ([]string, []map[string]string) {
	headers := []string{surveyNumberColumn}
	seenField := map[string]bool{surveyNumberColumn: true}

	var order []string
	rowsBySurvey := make(map[string]map[string]string)

	for _, t := range triples {
		row, ok := rowsBySurvey[t.SurveyNumber]
		if !ok {
			row = map[string]string{surveyNumberColumn: t.SurveyNumber}
			rowsBySurvey[t.SurveyNumber] = row
			order = append(order, t.SurveyNumber)
		}
		if !seenField[t.Field] {
			seenField[t.Field] = true
			headers = append(headers, t.Field)
		}
		row[t.Field] = t.Value
	}

	rows := make([]map[string]string, 0, len(order))
	for _, survey := range order {
		rows = append(rows, rowsBySurvey[survey])
	}
	return headers, rows
}

// landCSVRows materializes pivoted rows against the full header set; cells
// for absent fields are empty.
func landCSVRows(headers []string, rows []map[string]string) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		record := make([]string, len(headers))
		for i, h := range headers {
			record[i] = row[h]
		}
		out = append(out, record)
	}
	return out
}

func documentRows(documents []schemas.DocumentRecord) ([]string, [][]string) {
	headers := []string{"Category", "File Name", "Uploaded Date", "Download URL"}
	rows := make([][]string, 0, len(documents))
	for _, d := range documents {
		rows = append(rows, []string{d.Category, d.FileName, d.UploadedDate, d.DownloadURL})
	}
	return headers, rows
}
