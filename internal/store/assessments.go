package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MikeSquared-Agency/secondthought/internal/assessment"
)

// Assessment sources.
const (
	SourceText     = "text"
	SourceURL      = "url"
	SourceEvent    = "event"
	SourceBackfill = "backfill"
)

// AssessmentRecord is a persisted risk analysis.
type AssessmentRecord struct {
	ID         uuid.UUID         `json:"id"`
	Source     string            `json:"source"`
	SourceRef  string            `json:"sourceRef,omitempty"`
	Transcript string            `json:"-"`
	Result     assessment.Result `json:"result"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// SaveAssessment inserts rec and returns it with ID and CreatedAt set.
func (s *Store) SaveAssessment(ctx context.Context, rec AssessmentRecord) (AssessmentRecord, error) {
	if err := rec.Result.Assessment.Validate(); err != nil {
		return AssessmentRecord{}, fmt.Errorf("insert assessment: %w", err)
	}
	rec.ID = uuid.New()
	a := rec.Result.Assessment

	err := s.pool.QueryRow(ctx, `
		INSERT INTO risk_assessments (
			id, source, source_ref, path, transcript,
			trust_score, flattery_index, dependency_gradient, emotional_bonding_level,
			reality_distortion_potential, critical_thinking_suppression,
			risks, patterns, recommendations, temporal_dynamics
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at`,
		rec.ID, rec.Source, rec.SourceRef, string(rec.Result.Path), rec.Transcript,
		a.TrustScore, a.FlatteryIndex, a.DependencyGradient, a.EmotionalBondingLevel,
		a.RealityDistortionPotential, a.CriticalThinkingSuppression,
		a.Risks, a.Patterns, a.Recommendations, a.TemporalDynamics,
	).Scan(&rec.CreatedAt)
	if err != nil {
		return AssessmentRecord{}, fmt.Errorf("insert assessment: %w", err)
	}
	return rec, nil
}

// GetAssessment fetches a stored analysis by ID.
func (s *Store) GetAssessment(ctx context.Context, id uuid.UUID) (AssessmentRecord, error) {
	var (
		rec  AssessmentRecord
		path string
		a    assessment.RiskAssessment
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, source, source_ref, path, transcript,
			trust_score, flattery_index, dependency_gradient, emotional_bonding_level,
			reality_distortion_potential, critical_thinking_suppression,
			risks, patterns, recommendations, temporal_dynamics, created_at
		FROM risk_assessments
		WHERE id = $1`, id,
	).Scan(
		&rec.ID, &rec.Source, &rec.SourceRef, &path, &rec.Transcript,
		&a.TrustScore, &a.FlatteryIndex, &a.DependencyGradient, &a.EmotionalBondingLevel,
		&a.RealityDistortionPotential, &a.CriticalThinkingSuppression,
		&a.Risks, &a.Patterns, &a.Recommendations, &a.TemporalDynamics, &rec.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return AssessmentRecord{}, ErrNotFound
	}
	if err != nil {
		return AssessmentRecord{}, fmt.Errorf("get assessment: %w", err)
	}
	rec.Result = assessment.Result{Assessment: a, Path: assessment.Path(path)}
	return rec, nil
}
