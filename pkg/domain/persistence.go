package domain

import "context"

// Transaction lists the domain operations every persistence implementation
// must support within an atomic scope. Every mutation either commits in full
// or leaves no trace; rule evaluation runs against the pending state before
// commit and blocking violations roll the whole transaction back.
type Transaction interface {
	Snapshot() TransactionView

	// Catalog operations.
	UpsertPageEntries(entries []CatalogPageEntry) error
	UpsertCreature(record CreatureRecord) (CreatureRecord, error)
	SetFavorite(id int64, favorite bool) error

	// Team operations. DeleteTeam cascades member deletion and is idempotent.
	CreateTeam(name string) (Team, error)
	RenameTeam(id int64, name string) error
	DeleteTeam(id int64) error
	AddTeamMember(member TeamMember) error
	RemoveTeamMember(teamID, creatureID int64) error
	ClearTeamMembers(teamID int64) error

	// Reads against the pending transactional state.
	FindTeam(id int64) (Team, bool)
	FindCreature(id int64) (CreatureRecord, bool)
	TeamMembers(teamID int64) []TeamMember
}

// TransactionView provides read-only access to snapshot data for rules and
// derived views. TeamMembers is ordered by (position asc, addedAt asc).
type TransactionView interface {
	RuleView
	FindCreatureByName(name string) (CreatureRecord, bool)
	TeamMembers(teamID int64) []TeamMember
}

// ChangeSet describes a committed transaction for watch subscribers.
type ChangeSet struct {
	Seq      uint64
	Entities []EntityType
}

// Touches reports whether the change set affected any of the given entity types.
func (cs ChangeSet) Touches(types ...EntityType) bool {
	for _, t := range types {
		for _, e := range cs.Entities {
			if e == t {
				return true
			}
		}
	}
	return false
}

// Watcher is a cancellable subscription to committed change sets. Events
// carries at most the latest pending change set; slow consumers observe
// coalesced notifications rather than an unbounded backlog. Cancel detaches
// the subscriber and closes the channel; it has no effect on store state.
type Watcher interface {
	Events() <-chan ChangeSet
	Cancel()
}

// PersistentStore is the narrow surface durable backends implement. It mirrors
// the subset of store capabilities used directly by higher layers. The read
// helpers operate on committed state.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	Watch(entities ...EntityType) Watcher

	GetCreature(id int64) (CreatureRecord, bool)
	GetCreatureByName(name string) (CreatureRecord, bool)
	GetCreaturesByIDs(ids []int64) []CreatureRecord
	ListCreatures() []CreatureRecord
	FavoriteCreatures() []CreatureRecord
	SearchCreatures(namePattern string) []CreatureRecord
	CreaturesWithMinimumStats(hp, attack, defense, speed int) []CreatureRecord
	PageEntries(page int) []CatalogPageEntry
	AllEntriesUpTo(page int) []CatalogPageEntry

	ListTeams() []Team
	GetTeam(id int64) (Team, bool)
	TeamMembers(teamID int64) []TeamMember
	CountTeamMembers(teamID int64) int
}
