package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestErrNotFoundMessage(t *testing.T) {
	err := ErrNotFound{Entity: EntityTeam, ID: "7"}
	if err.Error() != "team 7 not found" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestErrInvalidArgumentMessage(t *testing.T) {
	err := ErrInvalidArgument{Reason: "creature id must be positive"}
	if err.Error() != "invalid argument: creature id must be positive" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestStoreFailureUnwraps(t *testing.T) {
	inner := errors.New("disk full")
	err := StoreFailure{Op: "persist", Err: inner}
	if !errors.Is(err, inner) {
		t.Fatalf("expected wrapped error to surface through errors.Is")
	}
	if err.Error() != "store failure in persist: disk full" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestResultMergeAndHasBlocking(t *testing.T) {
	var combined Result
	combined.Merge(Result{})
	if combined.Violations != nil {
		t.Fatalf("merging an empty result must not allocate")
	}
	combined.Merge(Result{Violations: []Violation{{Rule: "a", Severity: SeverityWarn}}})
	combined.Merge(Result{Violations: []Violation{{Rule: "b", Severity: SeverityLog}}})
	if len(combined.Violations) != 2 || combined.HasBlocking() {
		t.Fatalf("unexpected result %+v", combined)
	}
	combined.Merge(Result{Violations: []Violation{{Rule: "c", Severity: SeverityBlock}}})
	if !combined.HasBlocking() {
		t.Fatalf("blocking violation must be detected")
	}
}

func TestRuleViolationErrorIsError(t *testing.T) {
	var err error = RuleViolationError{Result: Result{Violations: []Violation{{Rule: "cap", Severity: SeverityBlock}}}}
	var violation RuleViolationError
	if !errors.As(err, &violation) || len(violation.Result.Violations) != 1 {
		t.Fatalf("expected violation to round-trip through errors.As")
	}
}

func TestChangeSetTouches(t *testing.T) {
	cs := ChangeSet{Seq: 1, Entities: []EntityType{EntityTeam, EntityTeamMember}}
	if !cs.Touches(EntityTeam) {
		t.Fatalf("expected team touch")
	}
	if !cs.Touches(EntityCreature, EntityTeamMember) {
		t.Fatalf("any listed type must match")
	}
	if cs.Touches(EntityCreature) {
		t.Fatalf("unexpected creature touch")
	}
	if cs.Touches() {
		t.Fatalf("empty query must not match")
	}
}

func TestCloneCreatureIsDeep(t *testing.T) {
	orig := CreatureRecord{
		ID:    6,
		Name:  "charizard",
		Types: []string{"fire", "flying"},
		Stats: BattleStats{HP: 78, Attack: 84, Defense: 78, Speed: 100},
	}
	clone := CloneCreature(orig)
	clone.Types[0] = "dragon"
	if orig.Types[0] != "fire" {
		t.Fatalf("clone must not share the types slice")
	}
}

type fixedRule struct {
	name   string
	result Result
	err    error
}

func (r fixedRule) Name() string { return r.name }
func (r fixedRule) Evaluate(context.Context, RuleView, []Change) (Result, error) {
	return r.result, r.err
}

func TestRulesEngineAggregates(t *testing.T) {
	engine := NewRulesEngine()
	engine.Register(fixedRule{name: "warned", result: Result{Violations: []Violation{{Rule: "warned", Severity: SeverityWarn}}}})
	engine.Register(fixedRule{name: "blocked", result: Result{Violations: []Violation{{Rule: "blocked", Severity: SeverityBlock}}}})

	res, err := engine.Evaluate(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(res.Violations) != 2 || !res.HasBlocking() {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestRulesEngineStopsOnRuleError(t *testing.T) {
	engine := NewRulesEngine()
	engine.Register(fixedRule{name: "broken", err: fmt.Errorf("rule exploded")})
	engine.Register(fixedRule{name: "after", result: Result{Violations: []Violation{{Rule: "after"}}}})

	res, err := engine.Evaluate(context.Background(), nil, nil)
	if err == nil || len(res.Violations) != 0 {
		t.Fatalf("expected evaluation error with empty result, got %+v %v", res, err)
	}
}
