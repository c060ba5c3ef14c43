package core

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"pokeroster/pkg/domain"
)

// Service exposes the user-level roster intents as invariant-preserving
// transactional operations over the persistent store. It holds no state of
// its own; every mutation runs as a single atomic unit of work.
type Service struct {
	store   domain.PersistentStore
	logger  Logger
	metrics MetricsRecorder
	tracer  Tracer
}

// Option configures a Service.
type Option func(*Service)

// WithLogger installs a structured logger.
func WithLogger(logger Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics installs a metrics recorder.
func WithMetrics(rec MetricsRecorder) Option {
	return func(s *Service) {
		if rec != nil {
			s.metrics = rec
		}
	}
}

// WithTracer installs a tracer.
func WithTracer(tracer Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// NewService wires a service to its store and applies options.
func NewService(store domain.PersistentStore, opts ...Option) *Service {
	s := &Service{
		store:   store,
		logger:  NopLogger{},
		metrics: nopMetrics{},
		tracer:  nopTracer{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store hands back the persistence layer the service runs on.
func (s *Service) Store() domain.PersistentStore {
	return s.store
}

// instrument opens a trace span and returns the completion callback recording
// metrics and error logs for the operation.
func (s *Service) instrument(ctx context.Context, op string) (context.Context, func(error)) {
	ctx, span := s.tracer.Start(ctx, op)
	start := time.Now()
	return ctx, func(err error) {
		span.End(err)
		s.metrics.Observe(ctx, op, err == nil, time.Since(start))
		if err != nil {
			s.logger.Error("operation failed", "operation", op, "error", err)
		} else {
			s.logger.Debug("operation completed", "operation", op)
		}
	}
}

// TeamSnapshot is an assembled team: the team row joined with the ordered
// catalog detail records of its members.
type TeamSnapshot struct {
	Team    Team
	Members []CreatureRecord
}

// TeamEvaluation bundles the evaluator outputs for one team snapshot.
type TeamEvaluation struct {
	TeamID          int64    `json:"team_id"`
	Name            string   `json:"name"`
	MemberCount     int      `json:"member_count"`
	AverageStrength int      `json:"average_strength"`
	TypeCoverage    int      `json:"type_coverage"`
	Synergy         int      `json:"synergy"`
	Balanced        bool     `json:"balanced"`
	Suggestions     []string `json:"suggestions"`
}

// CreateTeam creates a team and inserts the given creatures at positions
// 0..n-1 in the order given. All-or-nothing: a failed member insert leaves no
// team behind.
func (s *Service) CreateTeam(ctx context.Context, name string, creatureIDs ...int64) (Team, Result, error) {
	ctx, done := s.instrument(ctx, "create_team")
	var created Team
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateTeam(name)
		if err != nil {
			return err
		}
		for i, creatureID := range creatureIDs {
			if creatureID <= 0 {
				return domain.ErrInvalidArgument{Reason: fmt.Sprintf("creature id must be positive, got %d", creatureID)}
			}
			if err := tx.AddTeamMember(TeamMember{TeamID: created.ID, CreatureID: creatureID, Position: i}); err != nil {
				return err
			}
		}
		return nil
	})
	done(err)
	return created, res, err
}

// RenameTeam replaces a team's name. Fails with ErrNotFound when the team is
// absent; state is untouched in that case.
func (s *Service) RenameTeam(ctx context.Context, teamID int64, name string) (Result, error) {
	ctx, done := s.instrument(ctx, "rename_team")
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		return tx.RenameTeam(teamID, name)
	})
	done(err)
	return res, err
}

// DeleteTeam removes a team and all its members. Idempotent.
func (s *Service) DeleteTeam(ctx context.Context, teamID int64) (Result, error) {
	ctx, done := s.instrument(ctx, "delete_team")
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		return tx.DeleteTeam(teamID)
	})
	done(err)
	return res, err
}

// AddMember appends a creature at the end of a team's roster. A full team is
// a normal outcome, not a failure: the call reports added=false and changes
// nothing. The count check and the insert share one transaction, so
// concurrent adds cannot push a team past the cap. Adding a creature that is
// already on the roster is likewise a no-op.
func (s *Service) AddMember(ctx context.Context, teamID, creatureID int64) (bool, Result, error) {
	ctx, done := s.instrument(ctx, "add_member")
	added := false
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, ok := tx.FindTeam(teamID); !ok {
			return domain.ErrNotFound{Entity: EntityTeam, ID: strconv.FormatInt(teamID, 10)}
		}
		members := tx.TeamMembers(teamID)
		if len(members) >= MaxTeamSize {
			s.logger.Debug("team full, add skipped", "team_id", teamID, "creature_id", creatureID)
			return nil
		}
		for _, m := range members {
			if m.CreatureID == creatureID {
				return nil
			}
		}
		if err := tx.AddTeamMember(TeamMember{TeamID: teamID, CreatureID: creatureID, Position: len(members)}); err != nil {
			return err
		}
		added = true
		return nil
	})
	done(err)
	return added, res, err
}

// RemoveMember deletes one membership row. Remaining positions keep their
// values; display order is derived by sorting, and only Reorder restores
// density.
func (s *Service) RemoveMember(ctx context.Context, teamID, creatureID int64) (Result, error) {
	ctx, done := s.instrument(ctx, "remove_member")
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		return tx.RemoveTeamMember(teamID, creatureID)
	})
	done(err)
	return res, err
}

// Reorder rewrites a team's positions to match orderedCreatureIDs. The id set
// must equal the current membership exactly; otherwise ErrInvalidArgument is
// returned and nothing changes. Each member keeps its original AddedAt.
func (s *Service) Reorder(ctx context.Context, teamID int64, orderedCreatureIDs []int64) (Result, error) {
	ctx, done := s.instrument(ctx, "reorder_team")
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, ok := tx.FindTeam(teamID); !ok {
			return domain.ErrNotFound{Entity: EntityTeam, ID: strconv.FormatInt(teamID, 10)}
		}
		current := tx.TeamMembers(teamID)
		if len(current) != len(orderedCreatureIDs) {
			return domain.ErrInvalidArgument{Reason: fmt.Sprintf("reorder expects %d member ids, got %d", len(current), len(orderedCreatureIDs))}
		}
		addedAt := make(map[int64]time.Time, len(current))
		for _, m := range current {
			addedAt[m.CreatureID] = m.AddedAt
		}
		seen := make(map[int64]struct{}, len(orderedCreatureIDs))
		for _, id := range orderedCreatureIDs {
			if _, dup := seen[id]; dup {
				return domain.ErrInvalidArgument{Reason: fmt.Sprintf("duplicate creature id %d in reorder", id)}
			}
			seen[id] = struct{}{}
			if _, ok := addedAt[id]; !ok {
				return domain.ErrInvalidArgument{Reason: fmt.Sprintf("creature %d is not on team %d", id, teamID)}
			}
		}
		if err := tx.ClearTeamMembers(teamID); err != nil {
			return err
		}
		for i, id := range orderedCreatureIDs {
			member := TeamMember{TeamID: teamID, CreatureID: id, Position: i, AddedAt: addedAt[id]}
			if err := tx.AddTeamMember(member); err != nil {
				return err
			}
		}
		return nil
	})
	done(err)
	return res, err
}

// Snapshot joins a team's ordered membership with the catalog detail records.
// Members whose detail record is missing are dropped rather than failing the
// join; each drop is logged because it hides partially-synced data.
func (s *Service) Snapshot(ctx context.Context, teamID int64) (TeamSnapshot, error) {
	ctx, done := s.instrument(ctx, "team_snapshot")
	var snap TeamSnapshot
	err := s.store.View(ctx, func(v domain.TransactionView) error {
		team, ok := v.FindTeam(teamID)
		if !ok {
			return domain.ErrNotFound{Entity: EntityTeam, ID: strconv.FormatInt(teamID, 10)}
		}
		snap.Team = team
		for _, m := range v.TeamMembers(teamID) {
			record, ok := v.FindCreature(m.CreatureID)
			if !ok {
				s.logger.Warn("member detail missing, dropped from snapshot", "team_id", teamID, "creature_id", m.CreatureID)
				continue
			}
			snap.Members = append(snap.Members, record)
		}
		return nil
	})
	done(err)
	if err != nil {
		return TeamSnapshot{}, err
	}
	return snap, nil
}

// Evaluate computes the evaluator outputs for a team's current snapshot.
func (s *Service) Evaluate(ctx context.Context, teamID int64) (TeamEvaluation, error) {
	snap, err := s.Snapshot(ctx, teamID)
	if err != nil {
		return TeamEvaluation{}, err
	}
	return TeamEvaluation{
		TeamID:          snap.Team.ID,
		Name:            snap.Team.Name,
		MemberCount:     len(snap.Members),
		AverageStrength: AverageStrength(snap.Members),
		TypeCoverage:    TypeCoverage(snap.Members),
		Synergy:         Synergy(snap.Members),
		Balanced:        IsBalanced(snap.Members),
		Suggestions:     ImprovementSuggestions(snap.Members),
	}, nil
}

// detailURL derives the opaque catalog reference encoding a creature id.
func detailURL(id int64) string {
	return fmt.Sprintf("https://pokeapi.co/api/v2/pokemon/%d/", id)
}

// SaveCreature upserts both the page listing row and the full detail record
// for a creature. Best-effort: any underlying failure is logged and reported
// as false, never raised.
func (s *Service) SaveCreature(ctx context.Context, record CreatureRecord) bool {
	ctx, done := s.instrument(ctx, "save_creature")
	_, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		saved, err := tx.UpsertCreature(record)
		if err != nil {
			return err
		}
		return tx.UpsertPageEntries([]CatalogPageEntry{{
			Page: 0,
			Name: saved.Name,
			URL:  detailURL(saved.ID),
		}})
	})
	done(err)
	if err != nil {
		s.logger.Error("save creature failed", "creature_id", record.ID, "name", record.Name, "error", err)
		return false
	}
	return true
}

// SetFavorite flips only the favorite bit of a stored creature. Fails with
// ErrNotFound when the id is unknown.
func (s *Service) SetFavorite(ctx context.Context, creatureID int64, favorite bool) (Result, error) {
	ctx, done := s.instrument(ctx, "set_favorite")
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		return tx.SetFavorite(creatureID, favorite)
	})
	done(err)
	return res, err
}

// ImportCatalogPage applies a batch of listing rows with replace-on-conflict
// semantics. The batch commits atomically.
func (s *Service) ImportCatalogPage(ctx context.Context, entries []CatalogPageEntry) (Result, error) {
	ctx, done := s.instrument(ctx, "import_catalog_page")
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		return tx.UpsertPageEntries(entries)
	})
	done(err)
	return res, err
}

// ImportCreatureDetails applies a batch of detail records atomically.
func (s *Service) ImportCreatureDetails(ctx context.Context, records []CreatureRecord) (Result, error) {
	ctx, done := s.instrument(ctx, "import_creature_details")
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		for _, record := range records {
			if _, err := tx.UpsertCreature(record); err != nil {
				return err
			}
		}
		return nil
	})
	done(err)
	return res, err
}
