// Package domain defines the persistent entities, value types, error taxonomy,
// and rule evaluation primitives used by pokeroster.
package domain

import "time"

// EntityType tags which kind of record a change or snapshot bucket holds.
type EntityType string

// The entity types the stores know how to persist and watch.
const (
	// EntityCreature identifies a catalog detail record for a single creature.
	EntityCreature EntityType = "creature"
	// EntityCatalogPage identifies a paginated catalog listing entry.
	EntityCatalogPage EntityType = "catalog_page"
	// EntityTeam identifies a team record.
	EntityTeam EntityType = "team"
	// EntityTeamMember identifies a team membership row.
	EntityTeamMember EntityType = "team_member"
)

// Limits applied to teams and creature battle stats.
const (
	// MaxTeamSize caps the number of members a team may hold.
	MaxTeamSize = 6
	// StatCap is the upper bound for hp, attack, defense and speed.
	StatCap = 300
	// ExpCap is the upper bound for the experience stat.
	ExpCap = 1000
)

// DefaultTeamName replaces an empty team name during normalization.
const DefaultTeamName = "New Team"

// BattleStats holds the five battle stats of a creature. HP, Attack, Defense
// and Speed range over [0, StatCap]; Exp ranges over [0, ExpCap].
type BattleStats struct {
	HP      int `json:"hp"`
	Attack  int `json:"attack"`
	Defense int `json:"defense"`
	Speed   int `json:"speed"`
	Exp     int `json:"exp"`
}

// CreatureRecord is the catalog detail record for a single creature. The ID is
// assigned by the source catalog and stable across sessions. Types preserve
// insertion order (attack-priority order) and hold one or two entries.
// A save replaces the whole record atomically; only the favorite flag is
// mutated in place.
type CreatureRecord struct {
	ID             int64       `json:"id"`
	Name           string      `json:"name"`
	Height         int         `json:"height"`
	Weight         int         `json:"weight"`
	BaseExperience int         `json:"base_experience"`
	Types          []string    `json:"types"`
	Stats          BattleStats `json:"stats"`
	IsFavorite     bool        `json:"is_favorite"`
}

// CatalogPageEntry records that a creature name appears on a page of the
// paginated source catalog. Name is the primary key; a later import for the
// same name replaces the earlier row.
type CatalogPageEntry struct {
	Page int    `json:"page"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Team is a named, ordered, size-bounded collection of creature references.
// IDs are store-assigned, monotonic, and never reused while the store lives.
type Team struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// TeamMember is a membership row keyed by (TeamID, CreatureID). Position is
// the 0-based display/battle rank; removal leaves gaps which only an explicit
// reorder compacts, so consumers must sort by (Position, AddedAt) rather than
// assume density.
type TeamMember struct {
	TeamID     int64     `json:"team_id"`
	CreatureID int64     `json:"creature_id"`
	Position   int       `json:"position"`
	AddedAt    time.Time `json:"added_at"`
}

// Severity grades how a rule violation affects the commit.
type Severity string

// Severities, from commit-stopping down to purely informational.
const (
	// SeverityBlock makes the transaction roll back.
	SeverityBlock Severity = "block"
	// SeverityWarn lets the commit through with a logged warning.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Action names the kind of mutation recorded in a Change.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Change captures a single entity mutation performed within a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Violation is one finding produced by a rule.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result collects every violation found while evaluating a commit.
type Result struct {
	Violations []Violation
}

// Merge folds another result into this one. Empty results are a no-op
// and allocate nothing.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking reports whether any violation would stop the commit.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError wraps a Result whose blocking violations rolled the
// transaction back.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}

// CloneCreature returns a deep copy of a creature record.
func CloneCreature(c CreatureRecord) CreatureRecord {
	cp := c
	cp.Types = append([]string(nil), c.Types...)
	return cp
}
