// Package memory holds the canonical, in-process implementation of the
// store used for tests and ephemeral environments. Durable backends embed it
// and snapshot the committed state after every transaction.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"pokeroster/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// CreatureRecord aliases domain.CreatureRecord for in-memory persistence operations.
	CreatureRecord = domain.CreatureRecord
	// CatalogPageEntry aliases domain.CatalogPageEntry.
	CatalogPageEntry = domain.CatalogPageEntry
	// Team aliases domain.Team.
	Team = domain.Team
	// TeamMember aliases domain.TeamMember.
	TeamMember = domain.TeamMember
	// Change re-exports domain.Change for package-local signatures.
	Change = domain.Change
	// Result re-exports domain.Result.
	Result = domain.Result
	// RulesEngine re-exports domain.RulesEngine.
	RulesEngine = domain.RulesEngine
	// Transaction re-exports domain.Transaction.
	Transaction = domain.Transaction
	// TransactionView re-exports domain.TransactionView.
	TransactionView = domain.TransactionView
)

type state struct {
	creatures  map[int64]CreatureRecord
	pages      map[string]CatalogPageEntry
	teams      map[int64]Team
	members    map[int64]map[int64]TeamMember
	nextTeamID int64
}

func newState() state {
	return state{
		creatures:  make(map[int64]CreatureRecord),
		pages:      make(map[string]CatalogPageEntry),
		teams:      make(map[int64]Team),
		members:    make(map[int64]map[int64]TeamMember),
		nextTeamID: 1,
	}
}

func (s state) clone() state {
	cloned := newState()
	cloned.nextTeamID = s.nextTeamID
	for id, c := range s.creatures {
		cloned.creatures[id] = domain.CloneCreature(c)
	}
	for name, e := range s.pages {
		cloned.pages[name] = e
	}
	for id, t := range s.teams {
		cloned.teams[id] = t
	}
	for teamID, roster := range s.members {
		cp := make(map[int64]TeamMember, len(roster))
		for creatureID, m := range roster {
			cp[creatureID] = m
		}
		cloned.members[teamID] = cp
	}
	return cloned
}

// Snapshot captures a point-in-time clone of the store state. Membership rows
// are flattened to a slice because their key is composite.
type Snapshot struct {
	Creatures  map[int64]CreatureRecord    `json:"creatures"`
	Pages      map[string]CatalogPageEntry `json:"pages"`
	Teams      map[int64]Team              `json:"teams"`
	Members    []TeamMember                `json:"members"`
	NextTeamID int64                       `json:"next_team_id"`
}

// Store is a clone-on-write transactional store. Each transaction runs against
// a private copy of the state; registered rules are evaluated against the
// pending copy and blocking violations abort the commit.
type Store struct {
	mu       sync.RWMutex
	state    state
	engine   *RulesEngine
	nowFn    func() time.Time
	seq      uint64
	watchMu  sync.Mutex
	watchers map[*watcher]struct{}
}

// NewStore builds an empty in-memory store. A nil engine skips rule
// evaluation entirely.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:    newState(),
		engine:   engine,
		nowFn:    func() time.Time { return time.Now().UTC() },
		watchers: make(map[*watcher]struct{}),
	}
}

// RulesEngine returns the engine evaluated at each commit.
func (s *Store) RulesEngine() *RulesEngine { return s.engine }

// NowFunc returns the store clock.
func (s *Store) NowFunc() func() time.Time { return s.nowFn }

// SetNowFunc overrides the store clock. Intended for tests.
func (s *Store) SetNowFunc(fn func() time.Time) {
	if fn != nil {
		s.nowFn = fn
	}
}

// ExportState returns a deep copy of the committed state.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotOf(s.state)
}

// ImportState replaces the committed state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = stateOf(snapshot)
}

func snapshotOf(st state) Snapshot {
	snap := Snapshot{
		Creatures:  make(map[int64]CreatureRecord, len(st.creatures)),
		Pages:      make(map[string]CatalogPageEntry, len(st.pages)),
		Teams:      make(map[int64]Team, len(st.teams)),
		NextTeamID: st.nextTeamID,
	}
	for id, c := range st.creatures {
		snap.Creatures[id] = domain.CloneCreature(c)
	}
	for name, e := range st.pages {
		snap.Pages[name] = e
	}
	for id, t := range st.teams {
		snap.Teams[id] = t
	}
	for _, roster := range st.members {
		for _, m := range roster {
			snap.Members = append(snap.Members, m)
		}
	}
	sort.Slice(snap.Members, func(i, j int) bool {
		if snap.Members[i].TeamID != snap.Members[j].TeamID {
			return snap.Members[i].TeamID < snap.Members[j].TeamID
		}
		return snap.Members[i].CreatureID < snap.Members[j].CreatureID
	})
	return snap
}

func stateOf(snap Snapshot) state {
	st := newState()
	for id, c := range snap.Creatures {
		st.creatures[id] = domain.CloneCreature(c)
	}
	for name, e := range snap.Pages {
		st.pages[name] = e
	}
	var maxTeamID int64
	for id, t := range snap.Teams {
		st.teams[id] = t
		if id > maxTeamID {
			maxTeamID = id
		}
	}
	for _, m := range snap.Members {
		roster := st.members[m.TeamID]
		if roster == nil {
			roster = make(map[int64]TeamMember)
			st.members[m.TeamID] = roster
		}
		roster[m.CreatureID] = m
	}
	st.nextTeamID = snap.NextTeamID
	if st.nextTeamID <= maxTeamID {
		st.nextTeamID = maxTeamID + 1
	}
	if st.nextTeamID < 1 {
		st.nextTeamID = 1
	}
	return st
}

// transaction implements domain.Transaction over a cloned state.
type transaction struct {
	state   state
	changes []Change
	now     time.Time
}

func (tx *transaction) record(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot exposes the pending transactional state read-only.
func (tx *transaction) Snapshot() TransactionView {
	return &view{state: &tx.state}
}

func normalizeTeamName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.DefaultTeamName
	}
	return name
}

// UpsertPageEntries applies a batch of catalog listing rows, replacing on
// conflict by name. The batch is all-or-nothing by construction: it operates
// on the transactional copy, so a later error discards every row with it.
func (tx *transaction) UpsertPageEntries(entries []CatalogPageEntry) error {
	for _, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return domain.ErrInvalidArgument{Reason: "catalog entry name required"}
		}
		if e.Page < 0 {
			return domain.ErrInvalidArgument{Reason: "catalog page must not be negative"}
		}
		e.Name = name
		action := domain.ActionCreate
		if prev, exists := tx.state.pages[name]; exists {
			action = domain.ActionUpdate
			tx.record(Change{Entity: domain.EntityCatalogPage, Action: action, Before: prev, After: e})
		} else {
			tx.record(Change{Entity: domain.EntityCatalogPage, Action: action, After: e})
		}
		tx.state.pages[name] = e
	}
	return nil
}

// UpsertCreature stores a full creature record, replacing any previous record
// with the same id atomically.
func (tx *transaction) UpsertCreature(record CreatureRecord) (CreatureRecord, error) {
	if record.ID <= 0 {
		return CreatureRecord{}, domain.ErrInvalidArgument{Reason: fmt.Sprintf("creature id must be positive, got %d", record.ID)}
	}
	record.Name = strings.TrimSpace(record.Name)
	if record.Name == "" {
		return CreatureRecord{}, domain.ErrInvalidArgument{Reason: "creature name required"}
	}
	record = domain.CloneCreature(record)
	if prev, exists := tx.state.creatures[record.ID]; exists {
		tx.record(Change{Entity: domain.EntityCreature, Action: domain.ActionUpdate, Before: prev, After: domain.CloneCreature(record)})
	} else {
		tx.record(Change{Entity: domain.EntityCreature, Action: domain.ActionCreate, After: domain.CloneCreature(record)})
	}
	tx.state.creatures[record.ID] = record
	return domain.CloneCreature(record), nil
}

// SetFavorite updates only the favorite bit of a stored creature.
func (tx *transaction) SetFavorite(id int64, favorite bool) error {
	current, ok := tx.state.creatures[id]
	if !ok {
		return domain.ErrNotFound{Entity: domain.EntityCreature, ID: strconv.FormatInt(id, 10)}
	}
	before := domain.CloneCreature(current)
	current.IsFavorite = favorite
	tx.state.creatures[id] = current
	tx.record(Change{Entity: domain.EntityCreature, Action: domain.ActionUpdate, Before: before, After: domain.CloneCreature(current)})
	return nil
}

// CreateTeam assigns the next monotonic team id and stamps the creation time.
func (tx *transaction) CreateTeam(name string) (Team, error) {
	team := Team{
		ID:        tx.state.nextTeamID,
		Name:      normalizeTeamName(name),
		CreatedAt: tx.now,
	}
	tx.state.nextTeamID++
	tx.state.teams[team.ID] = team
	tx.state.members[team.ID] = make(map[int64]TeamMember)
	tx.record(Change{Entity: domain.EntityTeam, Action: domain.ActionCreate, After: team})
	return team, nil
}

// RenameTeam replaces the team name after normalization.
func (tx *transaction) RenameTeam(id int64, name string) error {
	current, ok := tx.state.teams[id]
	if !ok {
		return domain.ErrNotFound{Entity: domain.EntityTeam, ID: strconv.FormatInt(id, 10)}
	}
	before := current
	current.Name = normalizeTeamName(name)
	tx.state.teams[id] = current
	tx.record(Change{Entity: domain.EntityTeam, Action: domain.ActionUpdate, Before: before, After: current})
	return nil
}

// DeleteTeam removes a team and cascades deletion of its members. Deleting an
// unknown id is a no-op.
func (tx *transaction) DeleteTeam(id int64) error {
	current, ok := tx.state.teams[id]
	if !ok {
		return nil
	}
	for _, m := range tx.state.members[id] {
		tx.record(Change{Entity: domain.EntityTeamMember, Action: domain.ActionDelete, Before: m})
	}
	delete(tx.state.members, id)
	delete(tx.state.teams, id)
	tx.record(Change{Entity: domain.EntityTeam, Action: domain.ActionDelete, Before: current})
	return nil
}

// AddTeamMember inserts a membership row. The team must exist and the creature
// must not already be on the roster.
func (tx *transaction) AddTeamMember(member TeamMember) error {
	if member.CreatureID <= 0 {
		return domain.ErrInvalidArgument{Reason: fmt.Sprintf("creature id must be positive, got %d", member.CreatureID)}
	}
	if member.Position < 0 {
		return domain.ErrInvalidArgument{Reason: "member position must not be negative"}
	}
	roster, ok := tx.state.members[member.TeamID]
	if !ok {
		return domain.ErrNotFound{Entity: domain.EntityTeam, ID: strconv.FormatInt(member.TeamID, 10)}
	}
	if _, exists := roster[member.CreatureID]; exists {
		return domain.ErrInvalidArgument{Reason: fmt.Sprintf("creature %d already on team %d", member.CreatureID, member.TeamID)}
	}
	if member.AddedAt.IsZero() {
		member.AddedAt = tx.now
	}
	roster[member.CreatureID] = member
	tx.record(Change{Entity: domain.EntityTeamMember, Action: domain.ActionCreate, After: member})
	return nil
}

// RemoveTeamMember deletes a membership row. Remaining positions are not
// renumbered; gaps persist until an explicit reorder.
func (tx *transaction) RemoveTeamMember(teamID, creatureID int64) error {
	roster, ok := tx.state.members[teamID]
	if !ok {
		return domain.ErrNotFound{Entity: domain.EntityTeam, ID: strconv.FormatInt(teamID, 10)}
	}
	member, exists := roster[creatureID]
	if !exists {
		return domain.ErrNotFound{Entity: domain.EntityTeamMember, ID: fmt.Sprintf("%d/%d", teamID, creatureID)}
	}
	delete(roster, creatureID)
	tx.record(Change{Entity: domain.EntityTeamMember, Action: domain.ActionDelete, Before: member})
	return nil
}

// ClearTeamMembers removes every member of a team.
func (tx *transaction) ClearTeamMembers(teamID int64) error {
	roster, ok := tx.state.members[teamID]
	if !ok {
		return domain.ErrNotFound{Entity: domain.EntityTeam, ID: strconv.FormatInt(teamID, 10)}
	}
	for _, m := range roster {
		tx.record(Change{Entity: domain.EntityTeamMember, Action: domain.ActionDelete, Before: m})
	}
	tx.state.members[teamID] = make(map[int64]TeamMember)
	return nil
}

// FindTeam retrieves a team from the pending state.
func (tx *transaction) FindTeam(id int64) (Team, bool) {
	t, ok := tx.state.teams[id]
	return t, ok
}

// FindCreature retrieves a creature from the pending state.
func (tx *transaction) FindCreature(id int64) (CreatureRecord, bool) {
	c, ok := tx.state.creatures[id]
	if !ok {
		return CreatureRecord{}, false
	}
	return domain.CloneCreature(c), true
}

// TeamMembers returns the pending roster ordered by (position, addedAt).
func (tx *transaction) TeamMembers(teamID int64) []TeamMember {
	return sortedMembers(tx.state.members[teamID])
}

func sortedMembers(roster map[int64]TeamMember) []TeamMember {
	out := make([]TeamMember, 0, len(roster))
	for _, m := range roster {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		if !out[i].AddedAt.Equal(out[j].AddedAt) {
			return out[i].AddedAt.Before(out[j].AddedAt)
		}
		return out[i].CreatureID < out[j].CreatureID
	})
	return out
}

// view implements domain.TransactionView over a state pointer.
type view struct {
	state *state
}

func (v *view) ListCreatures() []CreatureRecord {
	out := make([]CreatureRecord, 0, len(v.state.creatures))
	for _, c := range v.state.creatures {
		out = append(out, domain.CloneCreature(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (v *view) ListCatalogEntries() []CatalogPageEntry {
	out := make([]CatalogPageEntry, 0, len(v.state.pages))
	for _, e := range v.state.pages {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Page != out[j].Page {
			return out[i].Page < out[j].Page
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (v *view) ListTeams() []Team {
	out := make([]Team, 0, len(v.state.teams))
	for _, t := range v.state.teams {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (v *view) ListTeamMembers() []TeamMember {
	var out []TeamMember
	teamIDs := make([]int64, 0, len(v.state.members))
	for id := range v.state.members {
		teamIDs = append(teamIDs, id)
	}
	sort.Slice(teamIDs, func(i, j int) bool { return teamIDs[i] < teamIDs[j] })
	for _, id := range teamIDs {
		out = append(out, sortedMembers(v.state.members[id])...)
	}
	return out
}

func (v *view) FindCreature(id int64) (CreatureRecord, bool) {
	c, ok := v.state.creatures[id]
	if !ok {
		return CreatureRecord{}, false
	}
	return domain.CloneCreature(c), true
}

func (v *view) FindCreatureByName(name string) (CreatureRecord, bool) {
	for _, c := range v.state.creatures {
		if strings.EqualFold(c.Name, name) {
			return domain.CloneCreature(c), true
		}
	}
	return CreatureRecord{}, false
}

func (v *view) FindTeam(id int64) (Team, bool) {
	t, ok := v.state.teams[id]
	return t, ok
}

func (v *view) TeamMembers(teamID int64) []TeamMember {
	return sortedMembers(v.state.members[teamID])
}

// RunInTransaction clones the current state, lets fn mutate the clone,
// evaluates the rules and swaps the clone in on success.
// Registered rules are evaluated against the pending state; blocking
// violations return RuleViolationError and discard the copy. Watchers are
// notified after a successful commit.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		res, err := s.engine.Evaluate(ctx, &view{state: &tx.state}, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	if len(tx.changes) > 0 {
		s.seq++
		s.notify(domain.ChangeSet{Seq: s.seq, Entities: touchedEntities(tx.changes)})
	}
	return result, nil
}

// View runs fn over a copy of the committed state, so readers never see
// a transaction in flight.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()
	return fn(&view{state: &snapshot})
}

func touchedEntities(changes []Change) []domain.EntityType {
	seen := make(map[domain.EntityType]struct{}, 4)
	var out []domain.EntityType
	for _, c := range changes {
		if _, ok := seen[c.Entity]; ok {
			continue
		}
		seen[c.Entity] = struct{}{}
		out = append(out, c.Entity)
	}
	return out
}

// watcher delivers coalesced change sets to one subscriber.
type watcher struct {
	store  *Store
	ch     chan domain.ChangeSet
	filter []domain.EntityType
}

func (w *watcher) Events() <-chan domain.ChangeSet { return w.ch }

func (w *watcher) Cancel() {
	w.store.watchMu.Lock()
	defer w.store.watchMu.Unlock()
	if _, ok := w.store.watchers[w]; ok {
		delete(w.store.watchers, w)
		close(w.ch)
	}
}

// Watch registers a subscriber notified after every commit touching one of
// the given entity types (all commits when none are given). The channel
// carries at most the latest change set; older undelivered sets are dropped.
func (s *Store) Watch(entities ...domain.EntityType) domain.Watcher {
	w := &watcher{
		store:  s,
		ch:     make(chan domain.ChangeSet, 1),
		filter: append([]domain.EntityType(nil), entities...),
	}
	s.watchMu.Lock()
	s.watchers[w] = struct{}{}
	s.watchMu.Unlock()
	return w
}

func (s *Store) notify(cs domain.ChangeSet) {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	for w := range s.watchers {
		if len(w.filter) > 0 && !cs.Touches(w.filter...) {
			continue
		}
		select {
		case w.ch <- cs:
		default:
			// Drop the stale pending set so the latest one lands.
			select {
			case <-w.ch:
			default:
			}
			select {
			case w.ch <- cs:
			default:
			}
		}
	}
}

// Read helpers

// GetCreature retrieves a creature by id from committed state.
func (s *Store) GetCreature(id int64) (CreatureRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.state.creatures[id]
	if !ok {
		return CreatureRecord{}, false
	}
	return domain.CloneCreature(c), true
}

// GetCreatureByName retrieves a creature by case-insensitive name match.
func (s *Store) GetCreatureByName(name string) (CreatureRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.state.creatures {
		if strings.EqualFold(c.Name, name) {
			return domain.CloneCreature(c), true
		}
	}
	return CreatureRecord{}, false
}

// GetCreaturesByIDs returns records for the given ids. Unknown ids are
// silently omitted, so the result may be shorter than the input.
func (s *Store) GetCreaturesByIDs(ids []int64) []CreatureRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]CreatureRecord, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.state.creatures[id]; ok {
			out = append(out, domain.CloneCreature(c))
		}
	}
	return out
}

// ListCreatures returns all creature records ordered by id.
func (s *Store) ListCreatures() []CreatureRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return (&view{state: &s.state}).ListCreatures()
}

// FavoriteCreatures returns records with the favorite bit set, ordered by name.
func (s *Store) FavoriteCreatures() []CreatureRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []CreatureRecord
	for _, c := range s.state.creatures {
		if c.IsFavorite {
			out = append(out, domain.CloneCreature(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// SearchCreatures returns records whose name contains the pattern,
// case-insensitively, ordered by id.
func (s *Store) SearchCreatures(namePattern string) []CreatureRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pattern := strings.ToLower(namePattern)
	var out []CreatureRecord
	for _, c := range s.state.creatures {
		if strings.Contains(strings.ToLower(c.Name), pattern) {
			out = append(out, domain.CloneCreature(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CreaturesWithMinimumStats returns records meeting every inclusive lower
// bound, ordered by id.
func (s *Store) CreaturesWithMinimumStats(hp, attack, defense, speed int) []CreatureRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []CreatureRecord
	for _, c := range s.state.creatures {
		if c.Stats.HP >= hp && c.Stats.Attack >= attack && c.Stats.Defense >= defense && c.Stats.Speed >= speed {
			out = append(out, domain.CloneCreature(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// PageEntries returns the catalog listing rows for one page, ordered by name.
func (s *Store) PageEntries(page int) []CatalogPageEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []CatalogPageEntry
	for _, e := range s.state.pages {
		if e.Page == page {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// AllEntriesUpTo returns the catalog listing rows for pages 0..page, ordered
// by (page, name).
func (s *Store) AllEntriesUpTo(page int) []CatalogPageEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []CatalogPageEntry
	for _, e := range s.state.pages {
		if e.Page <= page {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Page != out[j].Page {
			return out[i].Page < out[j].Page
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// ListTeams returns all teams ordered by creation time descending.
func (s *Store) ListTeams() []Team {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return (&view{state: &s.state}).ListTeams()
}

// GetTeam retrieves a team by id from committed state.
func (s *Store) GetTeam(id int64) (Team, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.state.teams[id]
	return t, ok
}

// TeamMembers returns a team's roster ordered by (position, addedAt).
func (s *Store) TeamMembers(teamID int64) []TeamMember {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedMembers(s.state.members[teamID])
}

// CountTeamMembers returns the committed roster size for a team.
func (s *Store) CountTeamMembers(teamID int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.state.members[teamID])
}
