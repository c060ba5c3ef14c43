package core

import (
	"context"
	"fmt"
	"strconv"

	"pokeroster/pkg/domain"
)

// NewMembershipIntegrityRule returns the rule guarding team membership rows:
// every row must reference an existing team, carry a positive creature id and
// a non-negative position. Positions are allowed to repeat within a team
// because removals leave gaps and appends insert at the live count; ordering
// falls back to the added-at timestamp in that case.
func NewMembershipIntegrityRule() domain.Rule {
	return membershipIntegrityRule{}
}

type membershipIntegrityRule struct{}

func (membershipIntegrityRule) Name() string { return "membership_integrity" }

func (membershipIntegrityRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, member := range view.ListTeamMembers() {
		id := fmt.Sprintf("%d/%d", member.TeamID, member.CreatureID)
		if _, ok := view.FindTeam(member.TeamID); !ok {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "membership_integrity",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("member %s references missing team %d", id, member.TeamID),
				Entity:   domain.EntityTeamMember,
				EntityID: id,
			})
		}
		if member.CreatureID <= 0 {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "membership_integrity",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("member %s has non-positive creature id", id),
				Entity:   domain.EntityTeamMember,
				EntityID: id,
			})
		}
		if member.Position < 0 {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "membership_integrity",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("member %s has negative position %d", id, member.Position),
				Entity:   domain.EntityTeamMember,
				EntityID: id,
			})
		}
	}
	return res, nil
}

// NewCatalogIntegrityRule returns the rule guarding catalog detail records:
// names stay unique across ids and battle stats stay within their caps.
func NewCatalogIntegrityRule() domain.Rule {
	return catalogIntegrityRule{}
}

type catalogIntegrityRule struct{}

func (catalogIntegrityRule) Name() string { return "catalog_integrity" }

func (catalogIntegrityRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	byName := make(map[string]int64)
	for _, c := range view.ListCreatures() {
		id := strconv.FormatInt(c.ID, 10)
		if prev, dup := byName[c.Name]; dup {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "catalog_integrity",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("creature name %q shared by ids %d and %d", c.Name, prev, c.ID),
				Entity:   domain.EntityCreature,
				EntityID: id,
			})
		} else {
			byName[c.Name] = c.ID
		}
		if bad := statViolation(c.Stats); bad != "" {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "catalog_integrity",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("creature %s (%d): %s", c.Name, c.ID, bad),
				Entity:   domain.EntityCreature,
				EntityID: id,
			})
		}
		if len(c.Types) < 1 || len(c.Types) > 2 {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "catalog_integrity",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("creature %s (%d): expected 1-2 types, got %d", c.Name, c.ID, len(c.Types)),
				Entity:   domain.EntityCreature,
				EntityID: id,
			})
		}
		if c.Height < 0 || c.Weight < 0 || c.BaseExperience < 0 {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "catalog_integrity",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("creature %s (%d): physical attributes must not be negative", c.Name, c.ID),
				Entity:   domain.EntityCreature,
				EntityID: id,
			})
		}
	}
	return res, nil
}

func statViolation(s BattleStats) string {
	checks := []struct {
		label string
		value int
		cap   int
	}{
		{"hp", s.HP, StatCap},
		{"attack", s.Attack, StatCap},
		{"defense", s.Defense, StatCap},
		{"speed", s.Speed, StatCap},
		{"exp", s.Exp, ExpCap},
	}
	for _, c := range checks {
		if c.value < 0 {
			return fmt.Sprintf("%s must not be negative, got %d", c.label, c.value)
		}
		if c.value > c.cap {
			return fmt.Sprintf("%s exceeds cap %d, got %d", c.label, c.cap, c.value)
		}
	}
	return ""
}
