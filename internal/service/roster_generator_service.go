package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/lavoro-hq/rota-api/internal/dto"
	"github.com/lavoro-hq/rota-api/internal/models"
	appErrors "github.com/lavoro-hq/rota-api/pkg/errors"
)

type scheduleReader interface {
	FindByID(ctx context.Context, id string) (*models.Schedule, error)
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.ScheduleStatus) error
}

type employeeLister interface {
	ListActiveForVenue(ctx context.Context, venueID string) ([]models.Employee, error)
}

type shiftDefinitionLister interface {
	ListActiveByVenue(ctx context.Context, venueID string) ([]models.ShiftDefinition, error)
}

type constraintLister interface {
	ListEmployeeConstraints(ctx context.Context, venueID string) ([]models.EmployeeConstraint, error)
	ListRelationshipConstraints(ctx context.Context, venueID string) ([]models.RelationshipConstraint, error)
}

type leaveLister interface {
	ListApprovedOverlapping(ctx context.Context, venueID string, from, to time.Time) ([]models.LeaveRequest, error)
}

type assignmentStore interface {
	ReplaceForSchedule(ctx context.Context, tx *sqlx.Tx, scheduleID string, assignments []models.ShiftAssignment) error
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.ShiftAssignment, error)
}

type rosterTxProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// RosterGeneratorService loads venue snapshots, runs the generation engine
// and persists accepted proposals.
type RosterGeneratorService struct {
	schedules   scheduleReader
	employees   employeeLister
	definitions shiftDefinitionLister
	constraints constraintLister
	leaves      leaveLister
	assignments assignmentStore
	tx          rosterTxProvider
	cache       *CacheService
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	store       *proposalStore
	cfg         RosterGeneratorConfig
}

// RosterGeneratorConfig governs generator behaviour.
type RosterGeneratorConfig struct {
	ProposalTTL   time.Duration
	MaxPeriodDays int
}

// NewRosterGeneratorService wires generator dependencies.
func NewRosterGeneratorService(
	schedules scheduleReader,
	employees employeeLister,
	definitions shiftDefinitionLister,
	constraints constraintLister,
	leaves leaveLister,
	assignments assignmentStore,
	tx rosterTxProvider,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg RosterGeneratorConfig,
) *RosterGeneratorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ProposalTTL <= 0 {
		cfg.ProposalTTL = 30 * time.Minute
	}
	if cfg.MaxPeriodDays <= 0 {
		cfg.MaxPeriodDays = 62
	}
	return &RosterGeneratorService{
		schedules:   schedules,
		employees:   employees,
		definitions: definitions,
		constraints: constraints,
		leaves:      leaves,
		assignments: assignments,
		tx:          tx,
		cache:       cache,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		store:       newProposalStore(cfg.ProposalTTL),
		cfg:         cfg,
	}
}

// Generate builds a roster proposal for the schedule's venue and period.
func (s *RosterGeneratorService) Generate(ctx context.Context, req dto.GenerateRosterRequest) (*dto.RosterProposalResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid roster generation payload")
	}

	schedule, err := s.loadSchedule(ctx, req.ScheduleID)
	if err != nil {
		return nil, err
	}
	days := len(expandDates(schedule.StartDate, schedule.EndDate))
	if days > s.cfg.MaxPeriodDays {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("schedule period spans %d days, maximum is %d", days, s.cfg.MaxPeriodDays))
	}

	input, err := s.loadSnapshot(ctx, schedule, req)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	result, report := GenerateShifts(input)
	elapsed := time.Since(started)

	if s.metrics != nil {
		s.metrics.ObserveRosterGeneration(elapsed, result.Success, report.OptimizerSwaps, result.Warnings)
	}
	s.logger.Info("roster proposal generated",
		zap.String("schedule_id", schedule.ID),
		zap.String("venue_id", schedule.VenueID),
		zap.Int("assignments", len(result.Assignments)),
		zap.Int("warnings", len(result.Warnings)),
		zap.Int("optimizer_swaps", report.OptimizerSwaps),
		zap.Bool("success", result.Success),
		zap.Duration("elapsed", elapsed),
	)

	proposal := rosterProposal{
		ProposalID:  uuid.NewString(),
		ScheduleID:  schedule.ID,
		Result:      result,
		RequestedAt: time.Now().UTC(),
	}
	s.store.Save(proposal)

	return &dto.RosterProposalResponse{
		ProposalID:  proposal.ProposalID,
		ScheduleID:  schedule.ID,
		Success:     result.Success,
		Assignments: result.Assignments,
		Warnings:    result.Warnings,
		Stats:       result.Stats,
	}, nil
}

// Save persists an accepted proposal, replacing every prior assignment of
// the schedule in one transaction, and publishes the schedule.
func (s *RosterGeneratorService) Save(ctx context.Context, req dto.SaveRosterRequest) (string, error) {
	if err := s.validator.Struct(req); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid save roster payload")
	}
	proposal, ok := s.store.Get(req.ProposalID)
	if !ok {
		return "", appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
	}
	if s.tx == nil {
		return "", appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.assignments.ReplaceForSchedule(ctx, tx, proposal.ScheduleID, proposal.Result.Assignments); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist roster assignments")
		return "", err
	}
	if err = s.schedules.UpdateStatus(ctx, tx, proposal.ScheduleID, models.ScheduleStatusPublished); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish schedule")
		return "", err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit roster transaction")
		return "", err
	}

	if s.cache.Enabled() {
		if cacheErr := s.cache.Invalidate(ctx, rosterCacheKey(proposal.ScheduleID)); cacheErr != nil {
			s.logger.Warn("failed to invalidate roster cache", zap.String("schedule_id", proposal.ScheduleID), zap.Error(cacheErr))
		}
	}

	s.store.Delete(req.ProposalID)
	return proposal.ScheduleID, nil
}

// Validate re-checks a persisted roster for understaffing without
// regenerating anything.
func (s *RosterGeneratorService) Validate(ctx context.Context, scheduleID string) (*dto.ValidateScheduleResponse, error) {
	schedule, err := s.loadSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	definitions, err := s.definitions.ListActiveByVenue(ctx, schedule.VenueID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load shift definitions")
	}
	assignments, err := s.assignments.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster assignments")
	}

	warnings := ValidateRoster(*schedule, definitions, assignments)
	return &dto.ValidateScheduleResponse{
		ScheduleID: scheduleID,
		Valid:      !hasHighSeverity(warnings),
		Warnings:   warnings,
	}, nil
}

// GetRoster serves the persisted roster, through the cache when enabled.
func (s *RosterGeneratorService) GetRoster(ctx context.Context, scheduleID string) (*dto.RosterResponse, error) {
	if scheduleID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "schedule id is required")
	}

	key := rosterCacheKey(scheduleID)
	if s.cache.Enabled() {
		var cached dto.RosterResponse
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	schedule, err := s.loadSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	assignments, err := s.assignments.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster assignments")
	}

	resp := &dto.RosterResponse{
		ScheduleID:  schedule.ID,
		VenueID:     schedule.VenueID,
		Status:      schedule.Status,
		Assignments: assignments,
	}
	if s.cache.Enabled() {
		if cacheErr := s.cache.Set(ctx, key, resp, 0); cacheErr != nil {
			s.logger.Warn("failed to cache roster", zap.String("schedule_id", scheduleID), zap.Error(cacheErr))
		}
	}
	return resp, nil
}

func (s *RosterGeneratorService) loadSchedule(ctx context.Context, id string) (*models.Schedule, error) {
	schedule, err := s.schedules.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	return schedule, nil
}

func (s *RosterGeneratorService) loadSnapshot(ctx context.Context, schedule *models.Schedule, req dto.GenerateRosterRequest) (GenerationInput, error) {
	employees, err := s.employees.ListActiveForVenue(ctx, schedule.VenueID)
	if err != nil {
		return GenerationInput{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employees")
	}
	if len(employees) == 0 {
		return GenerationInput{}, appErrors.Clone(appErrors.ErrPreconditionFailed, "no active employees for this venue")
	}

	definitions, err := s.definitions.ListActiveByVenue(ctx, schedule.VenueID)
	if err != nil {
		return GenerationInput{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load shift definitions")
	}
	if len(definitions) == 0 {
		return GenerationInput{}, appErrors.Clone(appErrors.ErrPreconditionFailed, "no active shift definitions for this venue")
	}

	employeeConstraints, err := s.constraints.ListEmployeeConstraints(ctx, schedule.VenueID)
	if err != nil {
		return GenerationInput{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee constraints")
	}
	relationshipConstraints, err := s.constraints.ListRelationshipConstraints(ctx, schedule.VenueID)
	if err != nil {
		return GenerationInput{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load relationship constraints")
	}

	var leaves []models.LeaveRequest
	if s.leaves != nil {
		leaves, err = s.leaves.ListApprovedOverlapping(ctx, schedule.VenueID, schedule.StartDate, schedule.EndDate)
		if err != nil {
			return GenerationInput{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leave requests")
		}
	}

	return GenerationInput{
		ScheduleID:              schedule.ID,
		Employees:               employees,
		ShiftDefinitions:        definitions,
		EmployeeConstraints:     employeeConstraints,
		RelationshipConstraints: relationshipConstraints,
		LeaveRequests:           leaves,
		Params: models.GenerationParams{
			VenueID:           schedule.VenueID,
			StartDate:         schedule.StartDate,
			EndDate:           schedule.EndDate,
			PreferFixedStaff:  req.PreferFixedStaff,
			BalanceHours:      req.BalanceHours,
			MinimizeCost:      req.MinimizeCost,
			MinStaffOverrides: req.MinStaffOverrides,
		},
	}, nil
}

func rosterCacheKey(scheduleID string) string {
	return "roster:" + scheduleID
}

// --- Proposal cache ---

type rosterProposal struct {
	ProposalID  string
	ScheduleID  string
	Result      models.GenerationResult
	RequestedAt time.Time
}

type proposalStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]rosterProposal
}

func newProposalStore(ttl time.Duration) *proposalStore {
	return &proposalStore{
		ttl:   ttl,
		items: make(map[string]rosterProposal),
	}
}

func (s *proposalStore) Save(proposal rosterProposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[proposal.ProposalID] = proposal
}

func (s *proposalStore) Get(id string) (rosterProposal, bool) {
	s.mu.RLock()
	proposal, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return rosterProposal{}, false
	}
	if time.Since(proposal.RequestedAt) > s.ttl {
		s.Delete(id)
		return rosterProposal{}, false
	}
	return proposal, true
}

func (s *proposalStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}
