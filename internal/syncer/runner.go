package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"anisync/internal/changeset"
	"anisync/internal/gate"
	"anisync/internal/history"
	"anisync/internal/logging"
	"anisync/internal/match"
	"anisync/internal/reconcile"
	"anisync/internal/services"
	"anisync/internal/store"
)

// Catalog searches the destination catalog and verifies write access.
type Catalog interface {
	Authenticate(ctx context.Context) error
	Search(ctx context.Context, title string) ([]match.Candidate, error)
}

// Updater applies a progress update to the destination list.
type Updater interface {
	UpdateProgress(ctx context.Context, animeID int64, progress int, status reconcile.Status) error
}

// StateStore is the slice of persistent state the runner touches directly.
// The duplicate gate holds its own view of the processed-episode set.
type StateStore interface {
	GetMapping(ctx context.Context, rawTitle string) (*store.Mapping, error)
	PutMapping(ctx context.Context, rawTitle string, candidate match.Candidate, similarity float64) error
	PutNegativeMapping(ctx context.Context, rawTitle string, bestSimilarity float64) error
	HasSeriesProgress(ctx context.Context, seriesTitle string) (bool, error)
	HighestProgress(ctx context.Context, seriesTitle string) (int, error)
	AppendAudit(ctx context.Context, record store.AuditRecord) error
}

// Options tune one run.
type Options struct {
	// Threshold is the minimum similarity for accepting a catalog match.
	Threshold float64
	// NegativeCache persists confirmed no-match titles across runs.
	NegativeCache bool
	// EarlyStopThreshold stops pagination after this many consecutive
	// already-applied records. 0 disables early stop. Ignored when recording
	// a changeset, which must see the full history.
	EarlyStopThreshold int
	// DryRun evaluates everything but writes nothing.
	DryRun bool
	// ChangesetPath, when set, records planned updates to this file instead
	// of applying them.
	ChangesetPath string
	// Retry overrides the backoff policy for collaborator calls.
	Retry services.RetryPolicy
}

func (o Options) recordMode() bool {
	return o.ChangesetPath != ""
}

// Runner executes sync runs against a fixed set of collaborators.
type Runner struct {
	source  history.Source
	catalog Catalog
	updater Updater
	state   StateStore
	gate    *gate.Gate
	logger  *slog.Logger
	opts    Options
}

// New assembles a runner. logger may be nil.
func New(source history.Source, catalog Catalog, updater Updater, state StateStore, dupGate *gate.Gate, logger *slog.Logger, opts Options) *Runner {
	if opts.Threshold <= 0 {
		opts.Threshold = match.DefaultThreshold
	}
	return &Runner{
		source:  source,
		catalog: catalog,
		updater: updater,
		state:   state,
		gate:    dupGate,
		logger:  logging.NewComponentLogger(logger, "syncer"),
		opts:    opts,
	}
}

// run carries the mutable state of one sync run.
type run struct {
	id          string
	report      *Report
	plan        *changeset.Changeset
	destAuthErr error
	dupStreak   int
}

// Run executes one sync run to completion. The returned report is non-nil
// even when the run fails; err is non-nil only for fatal failures.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	current := &run{
		id: uuid.NewString(),
		report: &Report{
			DryRun: r.opts.DryRun,
		},
	}
	current.report.RunID = current.id
	if r.opts.recordMode() {
		current.plan = changeset.New()
		current.report.ChangesetPath = r.opts.ChangesetPath
	}

	logger := r.logger.With(logging.String(logging.FieldRunID, current.id))

	r.transition(logger, current, StateAuthenticatingSource)
	if err := r.source.Authenticate(ctx); err != nil {
		r.transition(logger, current, StateFailed)
		return current.report, fmt.Errorf("authenticate source: %w", err)
	}

	// Destination auth is checked up front in normal mode so a bad token is
	// reported once instead of once per record. The run still completes and
	// the would-be updates are reported as failures.
	if !r.opts.DryRun && !r.opts.recordMode() {
		if err := r.catalog.Authenticate(ctx); err != nil {
			if services.IsFatal(err) {
				r.transition(logger, current, StateFailed)
				return current.report, fmt.Errorf("authenticate destination: %w", err)
			}
			current.destAuthErr = err
			logger.Warn("destination authentication failed, updates will not be applied",
				logging.Error(err))
		}
	}

	r.transition(logger, current, StateFetchingHistory)
	if err := r.walkHistory(ctx, logger, current); err != nil {
		r.transition(logger, current, StateFailed)
		return current.report, err
	}

	if current.plan != nil {
		if err := current.plan.Save(r.opts.ChangesetPath); err != nil {
			r.transition(logger, current, StateFailed)
			return current.report, fmt.Errorf("save changeset: %w", err)
		}
		logger.Info("changeset recorded",
			logging.String("path", r.opts.ChangesetPath),
			logging.Int("changes", current.plan.TotalChanges))
	}

	r.transition(logger, current, StateDone)
	logger.Info("sync run complete",
		logging.Int("fetched", current.report.Fetched),
		logging.Int("matched", current.report.Matched),
		logging.Int("updated", current.report.Updated),
		logging.Int("suppressed", current.report.Suppressed),
		logging.Int("skipped", current.report.Skipped),
		logging.Int("failed", current.report.Failed))
	return current.report, nil
}

func (r *Runner) transition(logger *slog.Logger, current *run, next State) {
	current.report.FinalState = next
	logger.Debug("state transition", logging.String(logging.FieldState, string(next)))
}

// walkHistory pages through the source newest-first and processes every
// record. Early stop ends pagination once enough consecutive records are
// already applied, on the assumption that older history was covered by a
// previous run.
func (r *Runner) walkHistory(ctx context.Context, logger *slog.Logger, current *run) error {
	earlyStop := r.opts.EarlyStopThreshold
	if r.opts.recordMode() {
		earlyStop = 0
	}

	pageToken := ""
	for {
		var (
			records []history.Record
			next    string
		)
		err := services.Retry(ctx, r.opts.Retry, func() error {
			var fetchErr error
			records, next, fetchErr = r.source.FetchPage(ctx, pageToken)
			return fetchErr
		})
		if err != nil {
			return fmt.Errorf("fetch history page: %w", err)
		}

		// A page can be empty while more history remains: the source drops
		// entries it cannot decode but still returns the next-page token.
		// Only an empty token ends pagination.
		for _, record := range records {
			if err := ctx.Err(); err != nil {
				return err
			}
			r.processRecord(ctx, logger, current, record)
			if earlyStop > 0 && current.dupStreak >= earlyStop {
				logger.Info("stopping early, history tail already applied",
					logging.Int("consecutive", current.dupStreak))
				return nil
			}
		}

		if next == "" {
			return nil
		}
		pageToken = next
	}
}

func (r *Runner) processRecord(ctx context.Context, logger *slog.Logger, current *run, record history.Record) {
	current.report.Fetched++
	recordLogger := logger.With(
		logging.String(logging.FieldSeries, record.SeriesTitle),
		logging.Int(logging.FieldEpisode, record.EpisodeNumber))

	current.report.FinalState = StateMatching
	candidate, similarity, ok := r.resolveCandidate(ctx, recordLogger, current, record)
	if !ok {
		return
	}
	current.report.Matched++

	current.report.FinalState = StateReconciling
	seenBefore, err := r.state.HasSeriesProgress(ctx, record.SeriesTitle)
	if err != nil {
		r.recordFailure(ctx, recordLogger, current, record, candidate, similarity, err)
		return
	}

	result, err := reconcile.Reconcile(record, candidate, seenBefore)
	if err != nil {
		current.dupStreak = 0
		current.report.Skipped++
		r.audit(ctx, recordLogger, current, record, store.AuditRecord{
			Outcome:    "skipped",
			AnimeID:    candidate.ID,
			AnimeTitle: candidate.PrimaryTitle(),
			Similarity: similarity,
			Reason:     err.Error(),
		})
		recordLogger.Debug("record skipped", logging.String(logging.FieldReason, err.Error()))
		return
	}

	allowed, err := r.gate.ShouldApply(ctx, record.SeriesTitle, result.Progress)
	if err != nil {
		r.recordFailure(ctx, recordLogger, current, record, candidate, similarity, err)
		return
	}
	if !allowed {
		current.dupStreak++
		current.report.Suppressed++
		r.audit(ctx, recordLogger, current, record, store.AuditRecord{
			Outcome:    "suppressed",
			AnimeID:    candidate.ID,
			AnimeTitle: candidate.PrimaryTitle(),
			Similarity: similarity,
			Reason:     "already applied in a previous run",
		})
		return
	}
	current.dupStreak = 0

	current.report.FinalState = StateApplying
	r.applyUpdate(ctx, recordLogger, current, record, candidate, similarity, result, seenBefore)
}

// resolveCandidate finds the catalog entry for a record, consulting the
// mapping cache before searching. ok is false when the record was skipped
// (cached or fresh no-match) or failed; counters and audit are then already
// updated.
func (r *Runner) resolveCandidate(ctx context.Context, logger *slog.Logger, current *run, record history.Record) (match.Candidate, float64, bool) {
	mapping, err := r.state.GetMapping(ctx, record.SeriesTitle)
	if err != nil {
		r.recordFailure(ctx, logger, current, record, match.Candidate{}, 0, err)
		return match.Candidate{}, 0, false
	}
	if mapping != nil {
		if mapping.Negative && r.opts.NegativeCache {
			current.dupStreak = 0
			current.report.Skipped++
			r.audit(ctx, logger, current, record, store.AuditRecord{
				Outcome:    "no_match",
				Similarity: mapping.Similarity,
				Reason:     "cached no-match",
			})
			return match.Candidate{}, 0, false
		}
		if !mapping.Negative {
			return mapping.Candidate(), mapping.Similarity, true
		}
	}

	var candidates []match.Candidate
	err = services.Retry(ctx, r.opts.Retry, func() error {
		var searchErr error
		candidates, searchErr = r.catalog.Search(ctx, record.SeriesTitle)
		return searchErr
	})
	if err != nil {
		r.recordFailure(ctx, logger, current, record, match.Candidate{}, 0, err)
		return match.Candidate{}, 0, false
	}

	decision := match.Resolve(record.SeriesTitle, candidates, r.opts.Threshold)
	if !decision.Matched() {
		current.dupStreak = 0
		current.report.Skipped++
		if r.opts.NegativeCache {
			if err := r.state.PutNegativeMapping(ctx, record.SeriesTitle, decision.Similarity); err != nil {
				logger.Warn("failed to cache no-match", logging.Error(err))
			}
		}
		r.audit(ctx, logger, current, record, store.AuditRecord{
			Outcome:    "no_match",
			Similarity: decision.Similarity,
			Reason:     decision.Reason,
		})
		logger.Info("no catalog match", logging.String(logging.FieldReason, decision.Reason))
		return match.Candidate{}, 0, false
	}

	if err := r.state.PutMapping(ctx, record.SeriesTitle, *decision.Selected, decision.Similarity); err != nil {
		logger.Warn("failed to cache mapping", logging.Error(err))
	}
	return *decision.Selected, decision.Similarity, true
}

func (r *Runner) applyUpdate(ctx context.Context, logger *slog.Logger, current *run, record history.Record, candidate match.Candidate, similarity float64, result reconcile.Result, seenBefore bool) {
	updateType := changeset.UpdateTypeNormal
	if !seenBefore {
		updateType = changeset.UpdateTypeNewSeries
	} else if highest, err := r.state.HighestProgress(ctx, record.SeriesTitle); err == nil && result.Progress < highest {
		updateType = changeset.UpdateTypeRewatch
	}

	switch {
	case current.plan != nil:
		current.plan.Append(changeset.Change{
			AnimeID:       candidate.ID,
			AnimeTitle:    candidate.PrimaryTitle(),
			Progress:      result.Progress,
			TotalEpisodes: candidate.TotalEpisodes,
			Status:        string(result.Status),
			Source: changeset.SourceRef{
				Series:  record.SeriesTitle,
				Season:  record.SeasonHint,
				Episode: record.EpisodeNumber,
				IsMovie: record.IsMovie,
			},
			UpdateType: updateType,
		})
		current.report.Updated++
		r.audit(ctx, logger, current, record, store.AuditRecord{
			Outcome:    "recorded",
			AnimeID:    candidate.ID,
			AnimeTitle: candidate.PrimaryTitle(),
			Similarity: similarity,
			Reason:     updateType,
		})
		return

	case r.opts.DryRun:
		current.report.Updated++
		r.audit(ctx, logger, current, record, store.AuditRecord{
			Outcome:    "planned",
			AnimeID:    candidate.ID,
			AnimeTitle: candidate.PrimaryTitle(),
			Similarity: similarity,
			Reason:     updateType,
		})
		logger.Info("would update",
			logging.Int64(logging.FieldAnimeID, candidate.ID),
			logging.Int("progress", result.Progress))
		return
	}

	if current.destAuthErr != nil {
		r.recordFailure(ctx, logger, current, record, candidate, similarity,
			fmt.Errorf("destination not authenticated: %w", current.destAuthErr))
		return
	}

	err := services.Retry(ctx, r.opts.Retry, func() error {
		return r.updater.UpdateProgress(ctx, candidate.ID, result.Progress, result.Status)
	})
	if err != nil {
		r.recordFailure(ctx, logger, current, record, candidate, similarity, err)
		return
	}

	if err := r.gate.RecordApplied(ctx, record.SeriesTitle, result.Progress, candidate.ID); err != nil {
		logger.Warn("update applied but not recorded, next run may repeat it", logging.Error(err))
	}
	current.report.Updated++
	r.audit(ctx, logger, current, record, store.AuditRecord{
		Outcome:    "updated",
		AnimeID:    candidate.ID,
		AnimeTitle: candidate.PrimaryTitle(),
		Similarity: similarity,
		Reason:     updateType,
	})
	logger.Info("progress updated",
		logging.Int64(logging.FieldAnimeID, candidate.ID),
		logging.Int("progress", result.Progress),
		logging.String("update_type", updateType))
}

func (r *Runner) recordFailure(ctx context.Context, logger *slog.Logger, current *run, record history.Record, candidate match.Candidate, similarity float64, err error) {
	current.dupStreak = 0
	current.report.addFailure(record.SeriesTitle, record.EpisodeNumber, err.Error())
	r.audit(ctx, logger, current, record, store.AuditRecord{
		Outcome:    "failed",
		AnimeID:    candidate.ID,
		AnimeTitle: candidate.PrimaryTitle(),
		Similarity: similarity,
		Reason:     err.Error(),
	})
	logger.Warn("record failed", logging.Error(err))
}

func (r *Runner) audit(ctx context.Context, logger *slog.Logger, current *run, record history.Record, entry store.AuditRecord) {
	entry.RunID = current.id
	entry.SeriesTitle = record.SeriesTitle
	entry.EpisodeNumber = record.EpisodeNumber
	if err := r.state.AppendAudit(ctx, entry); err != nil {
		logger.Warn("failed to append audit record", logging.Error(err))
	}
}

// ApplyChangeset replays a recorded changeset against the destination list.
// The duplicate gate still applies, so replaying a file twice is safe.
func (r *Runner) ApplyChangeset(ctx context.Context, cs *changeset.Changeset) (*Report, error) {
	report := &Report{RunID: uuid.NewString(), FinalState: StateApplying}
	logger := r.logger.With(logging.String(logging.FieldRunID, report.RunID))

	if err := r.catalog.Authenticate(ctx); err != nil {
		report.FinalState = StateFailed
		return report, fmt.Errorf("authenticate destination: %w", err)
	}

	for _, change := range cs.Changes {
		if err := ctx.Err(); err != nil {
			report.FinalState = StateFailed
			return report, err
		}

		gateKey := change.Source.Series
		if gateKey == "" {
			gateKey = change.AnimeTitle
		}

		allowed, err := r.gate.ShouldApply(ctx, gateKey, change.Progress)
		if err != nil {
			report.FinalState = StateFailed
			return report, fmt.Errorf("consult gate: %w", err)
		}
		if !allowed {
			report.Suppressed++
			continue
		}

		err = services.Retry(ctx, r.opts.Retry, func() error {
			return r.updater.UpdateProgress(ctx, change.AnimeID, change.Progress, reconcile.Status(change.Status))
		})
		if err != nil {
			report.addFailure(gateKey, change.Progress, err.Error())
			logger.Warn("change failed",
				logging.Int64(logging.FieldAnimeID, change.AnimeID),
				logging.Error(err))
			if services.IsFatal(err) || errors.Is(err, services.ErrAuth) {
				report.FinalState = StateFailed
				return report, fmt.Errorf("apply change for anime %d: %w", change.AnimeID, err)
			}
			continue
		}

		if err := r.gate.RecordApplied(ctx, gateKey, change.Progress, change.AnimeID); err != nil {
			logger.Warn("change applied but not recorded", logging.Error(err))
		}
		report.Updated++
		logger.Info("change applied",
			logging.Int64(logging.FieldAnimeID, change.AnimeID),
			logging.Int("progress", change.Progress))
	}

	report.FinalState = StateDone
	logger.Info("changeset applied",
		logging.String("changeset_id", cs.ID),
		logging.Int("updated", report.Updated),
		logging.Int("suppressed", report.Suppressed),
		logging.Int("failed", report.Failed),
		logging.Duration("age", time.Since(cs.CreatedAt)))
	return report, nil
}
