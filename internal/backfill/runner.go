// Package backfill analyzes a directory of exported chat logs in one pass,
// resuming where a previous run stopped.
package backfill

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/MikeSquared-Agency/secondthought/internal/analyzer"
	"github.com/MikeSquared-Agency/secondthought/internal/assessment"
	"github.com/MikeSquared-Agency/secondthought/internal/store"
	"github.com/MikeSquared-Agency/secondthought/internal/transcript"
)

// Config holds the backfill command configuration.
type Config struct {
	Dir         string
	SingleFile  string
	StatePath   string
	DryRun      bool
	MinMessages int
	AlertBelow  int
}

type AssessmentStore interface {
	SaveAssessment(ctx context.Context, rec store.AssessmentRecord) (store.AssessmentRecord, error)
}

type Alerter interface {
	PostRiskAlert(ctx context.Context, sourceRef string, res assessment.Result) (string, error)
}

// Summary reports what one run did.
type Summary struct {
	Discovered int
	Analyzed   int
	Skipped    int
	Duplicates int
	LowTrust   int
	Failed     int
}

type Runner struct {
	cfg      Config
	analyzer analyzer.Analyzer
	store    AssessmentStore
	alerter  Alerter
	logger   *slog.Logger
}

// NewRunner creates a backfill runner. alerter may be nil.
func NewRunner(cfg Config, a analyzer.Analyzer, s AssessmentStore, alerter Alerter, logger *slog.Logger) *Runner {
	if cfg.StatePath == "" {
		cfg.StatePath = DefaultStatePath
	}
	if cfg.MinMessages <= 0 {
		cfg.MinMessages = 2
	}
	return &Runner{
		cfg:      cfg,
		analyzer: a,
		store:    s,
		alerter:  alerter,
		logger:   logger,
	}
}

// Run analyzes every unprocessed log. State is saved after each file so an
// interrupted run resumes from the next one.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	var sum Summary

	state, err := LoadState(r.cfg.StatePath)
	if err != nil {
		return sum, fmt.Errorf("load state: %w", err)
	}

	files, err := r.discoverFiles()
	if err != nil {
		return sum, fmt.Errorf("discover files: %w", err)
	}
	sum.Discovered = len(files)

	var pending []string
	for _, f := range files {
		if !state.IsProcessed(f) {
			pending = append(pending, f)
		}
	}
	state.FilesRemaining = len(pending)
	r.logger.Info("files discovered", "total", len(files), "pending", len(pending), "dry_run", r.cfg.DryRun)

	for _, path := range pending {
		if err := ctx.Err(); err != nil {
			r.logger.Info("backfill interrupted")
			if !r.cfg.DryRun {
				_ = state.Save()
			}
			return sum, err
		}

		r.processFile(ctx, path, state, &sum)
		state.FilesRemaining--

		if !r.cfg.DryRun {
			if err := state.Save(); err != nil {
				return sum, fmt.Errorf("save state: %w", err)
			}
		}
	}

	r.logger.Info("backfill complete",
		"analyzed", sum.Analyzed,
		"skipped", sum.Skipped,
		"duplicates", sum.Duplicates,
		"low_trust", sum.LowTrust,
		"failed", sum.Failed,
	)
	return sum, nil
}

func (r *Runner) processFile(ctx context.Context, path string, state *State, sum *Summary) {
	msgs, err := parseFile(path)
	if err != nil {
		r.logger.Warn("failed to parse file", "path", path, "error", err)
		state.AddError(fmt.Sprintf("parse %s: %v", path, err))
		sum.Failed++
		return
	}
	if len(msgs) < r.cfg.MinMessages || !hasRole(msgs, transcript.RoleUser) {
		sum.Skipped++
		state.MarkProcessed(path)
		return
	}

	text := transcript.Format(msgs)
	fp := fingerprint(text)
	if first, ok := state.Seen(fp); ok {
		r.logger.Info("skipping duplicate transcript", "path", path, "first_seen", first)
		sum.Duplicates++
		state.MarkProcessed(path)
		return
	}

	res := r.analyzer.Analyze(ctx, text)
	low := res.Assessment.TrustScore < r.cfg.AlertBelow
	if low {
		sum.LowTrust++
	}
	r.logger.Info("file analyzed",
		"path", path,
		"messages", len(msgs),
		"analysis_path", res.Path,
		"trust_score", res.Assessment.TrustScore,
	)
	sum.Analyzed++

	if r.cfg.DryRun {
		return
	}

	if r.store != nil {
		if _, err := r.store.SaveAssessment(ctx, store.AssessmentRecord{
			Source:     store.SourceBackfill,
			SourceRef:  path,
			Transcript: text,
			Result:     res,
		}); err != nil {
			r.logger.Error("failed to persist assessment", "path", path, "error", err)
			state.AddError(fmt.Sprintf("persist %s: %v", path, err))
			sum.Failed++
			return
		}
		state.AssessmentsSaved++
	}
	if low {
		state.LowTrust++
		if r.alerter != nil {
			if _, err := r.alerter.PostRiskAlert(ctx, filepath.Base(path), res); err != nil {
				r.logger.Error("slack alert failed", "path", path, "error", err)
			}
		}
	}
	state.Remember(fp, path)
	state.MarkProcessed(path)
}

func (r *Runner) discoverFiles() ([]string, error) {
	if r.cfg.SingleFile != "" {
		return []string{r.cfg.SingleFile}, nil
	}
	if r.cfg.Dir == "" {
		return nil, fmt.Errorf("no directory or file given")
	}

	var files []string
	err := filepath.WalkDir(r.cfg.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".jsonl") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func parseFile(path string) ([]transcript.Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return transcript.ParseJSONL(f)
}

func hasRole(msgs []transcript.Message, role string) bool {
	for _, m := range msgs {
		if m.Role == role {
			return true
		}
	}
	return false
}

func fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
