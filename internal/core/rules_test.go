package core

import (
	"context"
	"errors"
	"testing"

	"pokeroster/internal/infra/persistence/memory"
	"pokeroster/pkg/domain"
)

func TestTeamCapacityRuleBlocksSevenMembers(t *testing.T) {
	store := memory.NewStore(NewRulesEngine())
	ctx := context.Background()

	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		team, err := tx.CreateTeam("overfull")
		if err != nil {
			return err
		}
		for i := 0; i < MaxTeamSize+1; i++ {
			if err := tx.AddTeamMember(TeamMember{TeamID: team.ID, CreatureID: int64(i + 1), Position: i}); err != nil {
				return err
			}
		}
		return nil
	})
	var rve domain.RuleViolationError
	if !errors.As(err, &rve) {
		t.Fatalf("expected rule violation, got %v", err)
	}
	if len(store.ListTeams()) != 0 {
		t.Fatalf("blocked transaction must roll back completely")
	}
}

func TestMembershipIntegrityRuleRejectsNegativePosition(t *testing.T) {
	store := memory.NewStore(NewRulesEngine())
	ctx := context.Background()

	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		team, err := tx.CreateTeam("temp")
		if err != nil {
			return err
		}
		return tx.AddTeamMember(TeamMember{TeamID: team.ID, CreatureID: 2, Position: -1})
	})
	var rve domain.RuleViolationError
	if !errors.As(err, &rve) {
		t.Fatalf("expected rule violation, got %v", err)
	}
}

func TestCatalogIntegrityRule(t *testing.T) {
	store := memory.NewStore(NewRulesEngine())
	ctx := context.Background()

	cases := []struct {
		name   string
		record CreatureRecord
	}{
		{"stat above cap", CreatureRecord{ID: 1, Name: "capped", Types: []string{"fire"}, Stats: BattleStats{Attack: StatCap + 1}}},
		{"exp above cap", CreatureRecord{ID: 2, Name: "grown", Types: []string{"fire"}, Stats: BattleStats{Exp: ExpCap + 1}}},
		{"no types", CreatureRecord{ID: 3, Name: "formless"}},
		{"three types", CreatureRecord{ID: 4, Name: "triple", Types: []string{"fire", "water", "grass"}}},
		{"negative weight", CreatureRecord{ID: 5, Name: "airy", Types: []string{"flying"}, Weight: -1}},
	}
	for _, tc := range cases {
		_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			_, err := tx.UpsertCreature(tc.record)
			return err
		})
		var rve domain.RuleViolationError
		if !errors.As(err, &rve) {
			t.Fatalf("%s: expected rule violation, got %v", tc.name, err)
		}
	}
}

func TestCatalogIntegrityRuleRejectsDuplicateNames(t *testing.T) {
	store := memory.NewStore(NewRulesEngine())
	ctx := context.Background()

	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		for _, id := range []int64{1, 2} {
			if _, err := tx.UpsertCreature(CreatureRecord{ID: id, Name: "twin", Types: []string{"psychic"}}); err != nil {
				return err
			}
		}
		return nil
	})
	var rve domain.RuleViolationError
	if !errors.As(err, &rve) {
		t.Fatalf("expected rule violation, got %v", err)
	}
}
