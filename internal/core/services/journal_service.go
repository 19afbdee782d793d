package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SscSPs/org_books/internal/apperrors"
	"github.com/SscSPs/org_books/internal/core/books"
	"github.com/SscSPs/org_books/internal/core/domain"
	"github.com/SscSPs/org_books/internal/core/ledger"
	portsrepo "github.com/SscSPs/org_books/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/org_books/internal/core/ports/services"
	"github.com/SscSPs/org_books/internal/dto"
	"github.com/SscSPs/org_books/internal/metrics"
	"github.com/SscSPs/org_books/internal/middleware"
	"github.com/SscSPs/org_books/internal/repositories/memory"
)

// journalService generates, serves and audits the journal.
type journalService struct {
	BaseService
	journalRepo portsrepo.JournalRepositoryFacade
	refData     portsrepo.ReferenceDataSource
	accountSvc  portssvc.AccountSvcFacade
	registry    *ledger.Registry
	metrics     *metrics.JournalMetrics
	threshold   int
	urlBase     string

	mu      sync.RWMutex
	lastRun *dto.RegenerationReport
}

// JournalServiceOption is a functional option for configuring the journal service
type JournalServiceOption func(*journalService)

// WithBatchThreshold sets the queue length past which batches are flushed.
func WithBatchThreshold(n int) JournalServiceOption {
	return func(s *journalService) {
		s.threshold = n
	}
}

// WithSourceURLBase prefixes the source URL of every generated entry.
func WithSourceURLBase(base string) JournalServiceOption {
	return func(s *journalService) {
		s.urlBase = base
	}
}

// WithJournalMetrics replaces the process-wide metrics.
func WithJournalMetrics(m *metrics.JournalMetrics) JournalServiceOption {
	return func(s *journalService) {
		s.metrics = m
	}
}

// WithRegistry replaces the registry built from the transaction source.
func WithRegistry(r *ledger.Registry) JournalServiceOption {
	return func(s *journalService) {
		s.registry = r
	}
}

// NewJournalService creates a new JournalService.
func NewJournalService(journalRepo portsrepo.JournalRepositoryFacade, txnSource portsrepo.TransactionSource, accountSvc portssvc.AccountSvcFacade, options ...JournalServiceOption) portssvc.JournalSvcFacade {
	svc := &journalService{
		journalRepo: journalRepo,
		refData:     txnSource,
		accountSvc:  accountSvc,
		threshold:   ledger.DefaultBatchThreshold,
	}
	for _, option := range options {
		option(svc)
	}
	if svc.registry == nil {
		svc.registry = NewTransactionRegistry(txnSource)
	}
	if svc.metrics == nil {
		svc.metrics = metrics.Journal()
	}
	return svc
}

// Ensure journalService implements the portssvc.JournalSvcFacade interface
var _ portssvc.JournalSvcFacade = (*journalService)(nil)

func (s *journalService) GetEntryByID(ctx context.Context, entryID int64) (*domain.JournalEntry, error) {
	je, err := s.journalRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find journal entry", slog.Int64("entry_id", entryID))
		}
		return nil, err
	}
	return je, nil
}

func (s *journalService) ListEntries(ctx context.Context, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	entries, next, err := s.journalRepo.ListEntries(ctx, limit, params.NextToken)
	if err != nil {
		var appErr *apperrors.AppError
		if !errors.As(err, &appErr) {
			s.LogError(ctx, err, "Failed to list journal entries", slog.Int("limit", limit))
		}
		return nil, err
	}
	return &dto.ListEntriesResponse{
		Entries:   dto.ToJournalEntryResponses(entries),
		NextToken: next,
	}, nil
}

// Regenerate rebuilds the journal: lock, delete unfrozen entries, sweep
// every registered kind and flush. A dry run builds everything against a
// scratch store seeded with the real chart of accounts.
func (s *journalService) Regenerate(ctx context.Context, req dto.RegenerateRequest) (*dto.RegenerationReport, error) {
	started := time.Now()
	runID := uuid.NewString()
	logger := s.GetLogger(ctx).With(slog.String("run_id", runID), slog.Bool("dry_run", req.DryRun))
	ctx = middleware.WithLogger(ctx, logger)

	report := &dto.RegenerationReport{
		RunID:       runID,
		DryRun:      req.DryRun,
		StartedAt:   started.UTC(),
		RootsByKind: make(map[string]int),
	}

	var (
		sink  ledger.Sink
		chart *ledger.Chart
	)
	if req.DryRun {
		scratch, err := s.scratchStore(ctx)
		if err != nil {
			s.metrics.RunFinished(metrics.OutcomeFailure, time.Since(started))
			return nil, err
		}
		sink = scratch
		chart = ledger.LoadChart(ctx, scratch, logger)
	} else {
		unlock, err := s.journalRepo.TryLockRegeneration(ctx)
		if err != nil {
			outcome := metrics.OutcomeFailure
			if errors.Is(err, apperrors.ErrConflict) {
				outcome = metrics.OutcomeConflict
			}
			s.metrics.RunFinished(outcome, time.Since(started))
			s.LogError(ctx, err, "Could not take the regeneration lock")
			return nil, err
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				s.LogError(ctx, err, "Failed to release the regeneration lock")
			}
		}()
		sink = s.journalRepo
		chart = s.accountSvc.LoadChart(ctx)
	}
	report.MissingAccounts = chart.Missing()

	if err := s.run(ctx, sink, chart, req.DryRun, report); err != nil {
		s.metrics.RunFinished(metrics.OutcomeFailure, time.Since(started))
		s.LogError(ctx, err, "Journal regeneration failed")
		return nil, err
	}

	report.FinishedAt = time.Now().UTC()
	outcome := metrics.OutcomeSuccess
	if req.DryRun {
		outcome = metrics.OutcomeDryRun
	}
	s.metrics.RunFinished(outcome, time.Since(started))

	s.mu.Lock()
	s.lastRun = report
	s.mu.Unlock()

	s.LogInfo(ctx, "Journal regeneration finished",
		slog.Int("entries", report.EntriesWritten),
		slog.Int("line_items", report.LinesWritten),
		slog.Int("failures", len(report.Failures)),
		slog.Int("unbalanced", len(report.Unbalanced)),
		slog.Duration("elapsed", time.Since(started)))
	return report, nil
}

// run deletes what is about to be regenerated, sweeps and flushes.
func (s *journalService) run(ctx context.Context, sink ledger.Sink, chart *ledger.Chart, dryRun bool, report *dto.RegenerationReport) error {
	if !dryRun {
		deleted, err := s.journalRepo.DeleteUnfrozenEntries(ctx)
		if err != nil {
			return fmt.Errorf("deleting unfrozen entries: %w", err)
		}
		report.DeletedEntries = deleted
		s.LogInfo(ctx, "Deleted unfrozen journal entries", slog.Int64("count", deleted))
	}

	frozen, err := s.journalRepo.FrozenSourceURLs(ctx)
	if err != nil {
		return fmt.Errorf("loading frozen entries: %w", err)
	}

	bc := ledger.NewBatchContext(sink, chart,
		ledger.WithThreshold(s.threshold),
		ledger.WithLogger(s.GetLogger(ctx)),
		ledger.WithRecorder(s.metrics),
		ledger.WithSourceURLBase(s.urlBase),
	)
	err = s.sweep(ctx, bc, frozen, report)
	if err == nil {
		err = bc.Finalize(ctx)
	}
	if cerr := bc.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	stats := bc.Stats()
	report.EntriesWritten = stats.EntriesFlushed
	report.LinesWritten = stats.LinesFlushed
	report.EntryFlushes = stats.EntryFlushes
	report.LineFlushes = stats.LineFlushes
	report.TotalDebits, report.TotalCredits = bc.GrandTotals()
	report.Unbalanced = bc.Unbalanced()
	return nil
}

// sweep journals every root of every registered kind. Roots with a frozen
// entry are skipped; roots whose own data is at fault are reported and
// skipped. Anything else stops the run.
func (s *journalService) sweep(ctx context.Context, bc *ledger.BatchContext, frozen map[string]struct{}, report *dto.RegenerationReport) error {
	for _, reg := range s.registry.Registrations() {
		roots, err := reg.Load(ctx)
		if err != nil {
			return fmt.Errorf("loading %s roots: %w", reg.Kind, err)
		}
		s.LogDebug(ctx, "Journaling transactions", slog.String("kind", reg.Kind), slog.Int("count", len(roots)))

		for _, root := range roots {
			if err := ctx.Err(); err != nil {
				return err
			}
			sourceURL := bc.SourceURL(root)
			if _, ok := frozen[sourceURL]; ok {
				report.SkippedFrozen = append(report.SkippedFrozen, sourceURL)
				continue
			}
			if err := root.CreateJournalEntry(ctx, bc); err != nil {
				if !isRootFailure(err) {
					return fmt.Errorf("%s: %w", sourceURL, err)
				}
				s.metrics.RootFailed(reg.Kind, err)
				s.LogError(ctx, err, "Couldn't journal transaction",
					slog.String("kind", reg.Kind),
					slog.String("source_url", sourceURL))
				report.Failures = append(report.Failures, dto.RootFailure{
					Kind:      reg.Kind,
					SourceURL: sourceURL,
					Error:     err.Error(),
				})
				continue
			}
			s.metrics.RootJournaled(reg.Kind)
			report.RootsByKind[reg.Kind]++
		}
	}
	return nil
}

// isRootFailure reports whether err is the fault of a single root's data.
func isRootFailure(err error) bool {
	return errors.Is(err, apperrors.ErrValidation) ||
		errors.Is(err, apperrors.ErrAccountMissing) ||
		errors.Is(err, apperrors.ErrChecksum)
}

// scratchStore returns an empty journal holding a copy of the chart of accounts.
func (s *journalService) scratchStore(ctx context.Context) (*memory.Store, error) {
	accounts, err := s.accountSvc.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	return memory.NewStore(accounts...), nil
}

func (s *journalService) UnbalancedEntries(ctx context.Context) ([]domain.EntryBalance, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastRun == nil {
		return nil, "", fmt.Errorf("%w: no regeneration has run in this process", apperrors.ErrNotFound)
	}
	return s.lastRun.Unbalanced, s.lastRun.RunID, nil
}

func (s *journalService) FindUnbalancedEntries(ctx context.Context) ([]domain.EntryBalance, error) {
	balances, err := s.journalRepo.FindUnbalancedEntries(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to find unbalanced entries")
		return nil, err
	}
	if balances == nil {
		return []domain.EntryBalance{}, nil
	}
	return balances, nil
}

// dbChecker is implemented by records that can check their own consistency.
type dbChecker interface {
	DBCheck() error
}

// validator is implemented by records with field and account rules.
type validator interface {
	Validate() error
}

// DBCheck checks the balance of every stored entry and the consistency of
// every transaction and its detail records.
func (s *journalService) DBCheck(ctx context.Context) (*dto.DBCheckReport, error) {
	report := &dto.DBCheckReport{Findings: []dto.DBCheckFinding{}}

	entries, err := s.journalRepo.ListEntriesWithLines(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to load journal entries for db check")
		return nil, err
	}
	for i := range entries {
		report.CheckedEntries++
		if err := entries[i].CheckBalance(); err != nil {
			report.Findings = append(report.Findings, dto.DBCheckFinding{
				Kind:      "journalentry",
				Reference: entries[i].SourceURL,
				Problem:   err.Error(),
			})
		}
	}

	for _, reg := range s.registry.Registrations() {
		roots, err := reg.Load(ctx)
		if err != nil {
			s.LogError(ctx, err, "Failed to load transactions for db check", slog.String("kind", reg.Kind))
			return nil, err
		}
		for _, root := range roots {
			report.CheckedRoots++
			report.Findings = append(report.Findings, checkRoot(reg.Kind, root)...)
		}
	}

	if err := s.checkReferenceData(ctx, report); err != nil {
		return nil, err
	}

	if !report.Clean() {
		s.LogInfo(ctx, "Database check found problems", slog.Int("findings", len(report.Findings)))
	}
	return report, nil
}

// checkReferenceData validates the records that are never journaled.
func (s *journalService) checkReferenceData(ctx context.Context, report *dto.DBCheckReport) error {
	if s.refData == nil {
		return nil
	}
	rewards, err := s.refData.ListDonationRewards(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to load donation rewards for db check")
		return err
	}
	for _, r := range rewards {
		report.CheckedRecords++
		report.Findings = appendProblems(report.Findings, books.KindMonetaryDonationReward, r.AbsoluteURL(), r)
	}

	campaigns, err := s.refData.ListCampaigns(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to load campaigns for db check")
		return err
	}
	for _, c := range campaigns {
		report.CheckedRecords++
		report.Findings = appendProblems(report.Findings, books.KindCampaign, c.AbsoluteURL(), c)
	}
	return nil
}

// appendProblems runs Validate and DBCheck on v, whichever it has, and
// appends a finding for each that fails.
func appendProblems(findings []dto.DBCheckFinding, kind, ref string, v any) []dto.DBCheckFinding {
	if c, ok := v.(validator); ok {
		if err := c.Validate(); err != nil {
			findings = append(findings, dto.DBCheckFinding{Kind: kind, Reference: ref, Problem: err.Error()})
		}
	}
	if c, ok := v.(dbChecker); ok {
		if err := c.DBCheck(); err != nil {
			findings = append(findings, dto.DBCheckFinding{Kind: kind, Reference: ref, Problem: err.Error()})
		}
	}
	return findings
}

// checkRoot checks a root and every contributor it owns.
func checkRoot(kind string, root ledger.Journaler) []dto.DBCheckFinding {
	findings := appendProblems(nil, kind, root.AbsoluteURL(), root)
	m, ok := root.(ledger.ContributorManifest)
	if !ok {
		return findings
	}
	for _, coll := range m.Contributors() {
		for i, item := range coll.Items {
			ref := fmt.Sprintf("%s %s[%d]", root.AbsoluteURL(), coll.Name, i)
			findings = appendProblems(findings, kind, ref, item)
		}
	}
	return findings
}
