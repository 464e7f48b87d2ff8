// Package store persists run history: every grouping or similarity run's
// parameters, results, and per-segment scores. SQLite backs the default
// single-user install; PostgreSQL backs shared deployments.
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"

	"github.com/lakeshore-group/coastline-cli/internal/coast"
)

// RunKind distinguishes the two pipelines in run history.
type RunKind string

const (
	RunKindUnits      RunKind = "units"
	RunKindSimilarity RunKind = "similarity"
)

// Run is one recorded pipeline execution.
type Run struct {
	ID        string          `json:"id"`
	Kind      RunKind         `json:"kind"`
	Params    json.RawMessage `json:"params"`
	Result    json.RawMessage `json:"result"`
	CreatedAt time.Time       `json:"created_at"`

	// Segments holds the per-segment score rows; populated on save and
	// by SegmentScores, not by GetRun or ListRuns.
	Segments []SegmentScore `json:"segments,omitempty"`
}

// SegmentScore is one segment's outcome within a run.
type SegmentScore struct {
	SegmentID int     `json:"segment_id"`
	Category  int     `json:"category"`
	Score     float64 `json:"score"`
}

// RunFilter narrows ListRuns.
type RunFilter struct {
	Kind   RunKind `json:"kind,omitempty"`
	Limit  int     `json:"limit,omitempty"`
	Offset int     `json:"offset,omitempty"`
}

// ErrNotFound reports a run id with no stored row.
var ErrNotFound = eris.New("store: run not found")

// Store is the persistence interface for run history.
type Store interface {
	SaveRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, runID string) (*Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]Run, error)
	SegmentScores(ctx context.Context, runID string) ([]SegmentScore, error)
	DeleteRunsBefore(ctx context.Context, cutoff time.Time) (int, error)

	Migrate(ctx context.Context) error
	Close() error
}

// NewUnitsRun packages a grouping run for persistence.
func NewUnitsRun(req coast.UnitsRequest, res *coast.UnitsResult) (*Run, error) {
	params, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal units params")
	}
	result, err := json.Marshal(res)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal units result")
	}

	run := &Run{
		ID:        res.RunID,
		Kind:      RunKindUnits,
		Params:    params,
		Result:    result,
		CreatedAt: time.Now().UTC(),
	}
	for _, seg := range res.Segments {
		run.Segments = append(run.Segments, SegmentScore{
			SegmentID: seg.ID,
			Category:  seg.Category,
			Score:     seg.FinalValueNormal,
		})
	}
	return run, nil
}

// NewSimilarityRun packages a similarity run for persistence. Similarity
// runs carry their own id because the pipeline result identifies only the
// reference segment.
func NewSimilarityRun(id string, req coast.SimilarityRequest, res *coast.SimilarityResult) (*Run, error) {
	params, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal similarity params")
	}
	result, err := json.Marshal(res)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal similarity result")
	}

	run := &Run{
		ID:        id,
		Kind:      RunKindSimilarity,
		Params:    params,
		Result:    result,
		CreatedAt: time.Now().UTC(),
	}
	for _, seg := range res.Segments {
		run.Segments = append(run.Segments, SegmentScore{
			SegmentID: seg.ID,
			Score:     seg.Similarity,
		})
	}
	return run, nil
}
