package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/KaramelBytes/tabloom/internal/analysis"
	"github.com/KaramelBytes/tabloom/internal/dataset"
	"github.com/KaramelBytes/tabloom/internal/planner"
)

type analyzeRequest struct {
	Name         string          `json:"name"`
	Data         json.RawMessage `json:"data"`
	DataPath     string          `json:"dataPath"`
	Plan         analysis.Plan   `json:"plan"`
	FocusAreas   []string        `json:"focusAreas"`
	Prompt       string          `json:"prompt"`
	TargetFields []string        `json:"targetFields"`
	Depth        string          `json:"depth"`
	Format       string          `json:"format"`
}

type analyzeResponse struct {
	AnalysisID string             `json:"analysisId"`
	Findings   *analysis.Findings `json:"findings"`
}

type fieldsResponse struct {
	Columns       []string                            `json:"columns"`
	FieldTypes    map[string]analysis.FieldType       `json:"fieldTypes"`
	FieldMeanings map[string]analysis.SemanticMeaning `json:"fieldMeanings"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	depth := s.opt.DefaultDepth
	if req.Depth != "" {
		d, err := analysis.ParseDepth(req.Depth)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		depth = d
	}
	format := strings.ToLower(req.Format)
	switch format {
	case "", "json", "markdown", "md", "html":
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported format %q", req.Format))
		return
	}
	ds, err := s.readDataset(req.Name, req.Data, req.DataPath)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	plan := req.Plan
	if !plan.Valid() && !ds.Empty() {
		plan = planner.Resolve(r.Context(), s.opt.Planner, planner.Request{
			FocusAreas: req.FocusAreas,
			Prompt:     req.Prompt,
			Fields:     planner.Describe(ds),
		}, s.opt.PlannerTimeout, s.opt.Log)
	}

	findings, err := s.opt.Engine.Analyze(ds, plan, req.TargetFields, depth)
	if err != nil {
		var inputErr *analysis.InputError
		if errors.As(err, &inputErr) {
			writeError(w, http.StatusUnprocessableEntity, inputErr.Message)
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	id := uuid.NewString()
	w.Header().Set("X-Analysis-Id", id)
	switch format {
	case "markdown", "md":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = w.Write([]byte(findings.Markdown()))
	case "html":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(findings.HTML())
	default:
		writeJSON(w, http.StatusOK, analyzeResponse{AnalysisID: id, Findings: findings})
	}
}

func (s *Server) handleFields(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ds, err := s.readDataset(req.Name, req.Data, req.DataPath)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(ds.Columns) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "No fields provided")
		return
	}
	meanings, err := analysis.InferFieldMeanings(ds.Columns, ds)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, fieldsResponse{
		Columns:       ds.Columns,
		FieldTypes:    s.opt.Engine.InferFieldTypes(ds),
		FieldMeanings: meanings,
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func (s *Server) readDataset(name string, data json.RawMessage, dataPath string) (*dataset.Dataset, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, errors.New("data is required")
	}
	opt := dataset.DefaultOptions()
	opt.DataPath = dataPath
	if s.opt.MaxRows > 0 {
		opt.MaxRows = s.opt.MaxRows
	}
	ds, err := dataset.ReadJSON(data, opt)
	if err != nil {
		return nil, fmt.Errorf("data: %w", err)
	}
	ds.Name = name
	return ds, nil
}
