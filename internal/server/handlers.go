package server

import (
	"fmt"
	"net/http"
	"time"

	"enrprod/internal/analytics"
	"enrprod/internal/geo"
	"enrprod/internal/models"
)

const defaultTopN = 10

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// dataset fetches the current dataset, writing the error response itself
// when it fails.
func (s *Server) dataset(w http.ResponseWriter, r *http.Request) (*models.Dataset, bool) {
	ds, err := s.store.Get(r.Context(), s.path)
	if err != nil {
		s.writeDatasetError(w, err)

		return nil, false
	}

	return ds, true
}

// selection returns the observations matching the request filter.
func (s *Server) selection(w http.ResponseWriter, r *http.Request) ([]models.Observation, bool) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)

		return nil, false
	}

	ds, ok := s.dataset(w, r)
	if !ok {
		return nil, false
	}

	return f.Apply(ds.Observations), true
}

type datasetInfo struct {
	LoadedAt time.Time `json:"loaded_at"`
	RunID    string    `json:"run_id"`
	Source   string    `json:"source"`
	Checksum string    `json:"checksum"`
	Warnings []string  `json:"warnings"`
}

type optionsResponse struct {
	Dataset datasetInfo               `json:"dataset"`
	Stats   models.NormalizationStats `json:"stats"`
	analytics.Options
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}

	warnings := ds.Warnings
	if warnings == nil {
		warnings = []string{}
	}

	s.writeJSON(w, http.StatusOK, optionsResponse{
		Dataset: datasetInfo{
			LoadedAt: ds.LoadedAt,
			RunID:    ds.RunID,
			Source:   ds.Source,
			Checksum: ds.Checksum,
			Warnings: warnings,
		},
		Stats:   ds.Observations.Stats,
		Options: analytics.AvailableOptions(ds.Observations),
	})
}

func (s *Server) handleObservations(w http.ResponseWriter, r *http.Request) {
	obs, ok := s.selection(w, r)
	if !ok {
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"count":        len(obs),
		"observations": obs,
	})
}

func (s *Server) handleAggregate(w http.ResponseWriter, r *http.Request) {
	by := r.URL.Query().Get("by")
	if by == "" {
		by = string(analytics.DimRegion)
	}

	dims, err := analytics.ParseDimensions(by)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)

		return
	}

	obs, ok := s.selection(w, r)
	if !ok {
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"by":        dims,
		"total_mwh": analytics.Total(obs),
		"groups":    analytics.SumBy(obs, dims...),
	})
}

func (s *Server) handleKPIs(w http.ResponseWriter, r *http.Request) {
	obs, ok := s.selection(w, r)
	if !ok {
		return
	}

	s.writeJSON(w, http.StatusOK, analytics.ComputeKPIs(obs))
}

func (s *Server) handleTop(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	dim, err := dimensionParam(q, "by", analytics.DimRegion)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)

		return
	}

	n, set, err := intParam(q, "n")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)

		return
	}

	if !set {
		n = defaultTopN
	}

	obs, ok := s.selection(w, r)
	if !ok {
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"by":    dim,
		"items": analytics.TopN(obs, dim, n),
	})
}

func (s *Server) handleGrowth(w http.ResponseWriter, r *http.Request) {
	obs, ok := s.selection(w, r)
	if !ok {
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"points": analytics.GrowthRates(obs)})
}

func (s *Server) handleCumulative(w http.ResponseWriter, r *http.Request) {
	obs, ok := s.selection(w, r)
	if !ok {
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"points": analytics.Cumulative(obs)})
}

func (s *Server) handlePivot(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	rows, err := dimensionParam(q, "rows", analytics.DimYear)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)

		return
	}

	cols, err := dimensionParam(q, "cols", analytics.DimEnergyType)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)

		return
	}

	if rows == cols {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: rows and cols are both %s", errInvalidParam, rows))

		return
	}

	obs, ok := s.selection(w, r)
	if !ok {
		return
	}

	s.writeJSON(w, http.StatusOK, analytics.Pivot(obs, rows, cols))
}

func (s *Server) handleDistribution(w http.ResponseWriter, r *http.Request) {
	dim, err := dimensionParam(r.URL.Query(), "by", analytics.DimEnergyType)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)

		return
	}

	obs, ok := s.selection(w, r)
	if !ok {
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"by":      dim,
		"summary": analytics.Distribution(obs, dim),
	})
}

func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	obs, ok := s.selection(w, r)
	if !ok {
		return
	}

	s.writeJSON(w, http.StatusOK, analytics.BuildHeatmap(obs))
}

func (s *Server) handleChange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	from, fromSet, err := intParam(q, "from")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)

		return
	}

	to, toSet, err := intParam(q, "to")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)

		return
	}

	obs, ok := s.selection(w, r)
	if !ok {
		return
	}

	first, last, _ := analytics.YearBounds(obs)
	if !fromSet {
		from = first
	}

	if !toSet {
		to = last
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"from":    from,
		"to":      to,
		"changes": analytics.YearChange(obs, from, to),
	})
}

func (s *Server) handleGeometry(w http.ResponseWriter, r *http.Request) {
	region := r.PathValue("region")

	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}

	feature, ok := geo.Feature(ds.Geometry, region)
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("no geometry for region %q", region))

		return
	}

	body, err := feature.MarshalJSON()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("encode geometry: %w", err))

		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(body); err != nil {
		s.log.Error("Failed to write geometry", "region", region, "error", err)
	}
}

func (s *Server) handleInvalidate(w http.ResponseWriter, _ *http.Request) {
	dropped := s.store.Invalidate(s.path)
	s.log.Info("Cache invalidation requested", "path", s.path, "dropped", dropped)

	s.writeJSON(w, http.StatusOK, map[string]bool{"invalidated": dropped})
}
