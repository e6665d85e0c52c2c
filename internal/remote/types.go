package remote

import (
	"github.com/theirongolddev/cdash/internal/model"
	"github.com/theirongolddev/cdash/internal/pipeline"
)

type errorResponse struct {
	Error string `json:"error"`
}

type listResponse struct {
	Files []model.SourceObject `json:"files"`
}

type uploadResponse struct {
	Success bool   `json:"success"`
	Key     string `json:"key"`
}

// DashboardResponse is the body of /api/dashboard.
type DashboardResponse struct {
	Source    string                 `json:"source"`
	Filters   pipeline.Criteria      `json:"filters"`
	Options   pipeline.FilterOptions `json:"options"`
	Dashboard model.Dashboard        `json:"dashboard"`
}
