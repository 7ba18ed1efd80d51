package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/symbology/internal/classify"
	"github.com/sells-group/symbology/internal/feature"
	"github.com/sells-group/symbology/internal/palette"
	"github.com/sells-group/symbology/internal/render"
	"github.com/sells-group/symbology/internal/style"
	"github.com/sells-group/symbology/internal/workspace"
)

type methodInfo struct {
	ID          classify.Method `json:"id"`
	Label       string          `json:"label"`
	Description string          `json:"description"`
}

type datasetInfo struct {
	ID           string               `json:"id"`
	Title        string               `json:"title"`
	GeometryType feature.GeometryType `json:"geometry_type"`
	FeatureCount int                  `json:"feature_count"`
	Styled       bool                 `json:"styled"`
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) palettes(w http.ResponseWriter, _ *http.Request) {
	methods := make([]methodInfo, 0, len(classify.Methods))
	for _, m := range classify.Methods {
		methods = append(methods, methodInfo{ID: m, Label: m.Label(), Description: m.Description()})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"families": h.styler.Palettes().Families(),
		"methods":  methods,
	})
}

func (h *Handler) listDatasets(w http.ResponseWriter, _ *http.Request) {
	layers := h.styler.Workspace().Layers()
	out := make([]datasetInfo, 0, len(layers))
	for _, l := range layers {
		_, _, styled := l.Style()
		out = append(out, datasetInfo{
			ID:           l.ID,
			Title:        l.Title,
			GeometryType: l.Collection.GeometryType,
			FeatureCount: l.Collection.Len(),
			Styled:       styled,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) selection(w http.ResponseWriter, r *http.Request) {
	sel, err := h.styler.Select(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sel)
}

func (h *Handler) applyStyle(w http.ResponseWriter, r *http.Request) {
	var req workspace.ApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.DatasetID = chi.URLParam(r, "id")

	if req.Method != "" {
		m, err := classify.ParseMethod(string(req.Method))
		if err != nil {
			writeErr(w, r, err)
			return
		}
		req.Method = m
	}

	res, err := h.styler.Apply(r.Context(), req)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) legend(w http.ResponseWriter, r *http.Request) {
	legend, err := h.styler.Legend(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, r, err)
		return
	}

	if r.URL.Query().Get("format") == "xlsx" {
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="legend.xlsx"`)
		if err := render.WriteLegendXLSX(w, legend); err != nil {
			zap.L().Error("legend export failed",
				zap.String("component", "api"),
				zap.String("request_id", RequestID(r.Context())),
				zap.Error(err),
			)
		}
		return
	}
	writeJSON(w, http.StatusOK, legend)
}

func (h *Handler) features(w http.ResponseWriter, r *http.Request) {
	data, hit, err := h.styler.Render(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, r, err)
		return
	}

	cache := "miss"
	if hit {
		cache = "hit"
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.Header().Set("X-Cache", cache)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) cacheStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"render": h.styler.RenderStats(),
		"styles": h.styler.StyledDatasets(),
	})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, workspace.ErrUnknownDataset):
		return http.StatusNotFound
	case errors.Is(err, style.ErrMissingSelection),
		errors.Is(err, style.ErrInvalidOptions),
		errors.Is(err, style.ErrColorMismatch),
		errors.Is(err, classify.ErrEmptySample),
		errors.Is(err, classify.ErrInvalidClassCount),
		errors.Is(err, classify.ErrUnknownMethod),
		errors.Is(err, palette.ErrInvalidPalette),
		errors.Is(err, palette.ErrInvalidCount):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("component", "api"),
			zap.String("request_id", RequestID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
