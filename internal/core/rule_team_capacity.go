package core

import (
	"context"
	"fmt"
	"strconv"

	"pokeroster/pkg/domain"
)

// NewTeamCapacityRule returns the default in-transaction rule enforcing the
// team size cap.
func NewTeamCapacityRule() domain.Rule {
	return teamCapacityRule{}
}

type teamCapacityRule struct{}

func (teamCapacityRule) Name() string { return "team_capacity" }

func (teamCapacityRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	sizes := make(map[int64]int)
	for _, member := range view.ListTeamMembers() {
		sizes[member.TeamID]++
	}

	res := domain.Result{}
	for _, team := range view.ListTeams() {
		count := sizes[team.ID]
		if count > MaxTeamSize {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "team_capacity",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("team %s (%d) over capacity: %d/%d members", team.Name, team.ID, count, MaxTeamSize),
				Entity:   domain.EntityTeam,
				EntityID: strconv.FormatInt(team.ID, 10),
			})
		}
	}
	return res, nil
}
