package domain

import "context"

// RuleView exposes the transaction's pending state to rules, read-only.
type RuleView interface {
	ListCreatures() []CreatureRecord
	ListCatalogEntries() []CatalogPageEntry
	ListTeams() []Team
	ListTeamMembers() []TeamMember
	FindCreature(id int64) (CreatureRecord, bool)
	FindTeam(id int64) (Team, bool)
}

// Rule inspects a pending change set before the transaction commits.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error)
}

// RulesEngine runs every registered rule against a pending commit and
// folds their findings into one Result.
type RulesEngine struct {
	rules []Rule
}

// NewRulesEngine returns an engine with no rules registered.
func NewRulesEngine() *RulesEngine {
	return &RulesEngine{}
}

// Register adds a rule. Rules run in registration order.
func (e *RulesEngine) Register(rule Rule) {
	e.rules = append(e.rules, rule)
}

// Evaluate applies each rule in turn. A rule returning an error aborts
// evaluation; violations merely accumulate into the combined Result.
func (e *RulesEngine) Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error) {
	var combined Result
	for _, r := range e.rules {
		found, err := r.Evaluate(ctx, view, changes)
		if err != nil {
			return Result{}, err
		}
		combined.Merge(found)
	}
	return combined, nil
}
