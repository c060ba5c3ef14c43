package core

import (
	"fmt"
	"sort"
	"strings"
)

// Team-level derivations over an assembled, ordered list of creature records.
// Pure functions; callers obtain the member slice from a team snapshot.

// AverageStrength returns the mean of the members' total stats, truncated
// toward zero (sum first, divide once). Zero for an empty team.
func AverageStrength(members []CreatureRecord) int {
	if len(members) == 0 {
		return 0
	}
	sum := 0
	for _, m := range members {
		sum += TotalStats(m)
	}
	return sum / len(members)
}

// TypeCoverage counts distinct type names across all members.
func TypeCoverage(members []CreatureRecord) int {
	seen := make(map[string]struct{})
	for _, m := range members {
		for _, t := range m.Types {
			seen[t] = struct{}{}
		}
	}
	return len(seen)
}

// Synergy returns the mean pairwise compatibility over all unordered member
// pairs, truncated toward zero. Zero for teams of one or fewer.
func Synergy(members []CreatureRecord) int {
	if len(members) <= 1 {
		return 0
	}
	sum, pairs := 0, 0
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			sum += Compatibility(members[i], members[j])
			pairs++
		}
	}
	return sum / pairs
}

// IsBalanced reports whether the team covers the required archetypes: at
// least one attacker, at least one defender, and at least one speedster or
// tank. Teams smaller than three are never balanced.
func IsBalanced(members []CreatureRecord) bool {
	if len(members) < 3 {
		return false
	}
	counts := archetypeCounts(members)
	return counts[ArchetypeAttacker] > 0 &&
		counts[ArchetypeDefender] > 0 &&
		(counts[ArchetypeSpeedster] > 0 || counts[ArchetypeTank] > 0)
}

func archetypeCounts(members []CreatureRecord) map[Archetype]int {
	counts := make(map[Archetype]int, 4)
	for _, m := range members {
		counts[StrengthArchetype(m)]++
	}
	return counts
}

// ImprovementSuggestions returns ordered advisory strings for a team. An
// empty team yields a single prompt. The vulnerability note intentionally
// flags every attacking type that no member resists, which over-reports
// weaknesses; the behavior is kept as shipped pending a product decision.
func ImprovementSuggestions(members []CreatureRecord) []string {
	if len(members) == 0 {
		return []string{"Your team is empty. Add creatures from the catalog to get started."}
	}

	var suggestions []string
	if len(members) < MaxTeamSize {
		suggestions = append(suggestions, fmt.Sprintf("Team has %d of %d slots filled. Consider adding more members.", len(members), MaxTeamSize))
	}
	if len(members) >= 3 && TypeCoverage(members) < 4 {
		suggestions = append(suggestions, "Limited type coverage. Add creatures with different types to handle more matchups.")
	}

	highStat := StatCap * 7 / 10
	type statCheck struct {
		label string
		get   func(BattleStats) int
	}
	for _, check := range []statCheck{
		{"HP", func(s BattleStats) int { return s.HP }},
		{"attack", func(s BattleStats) int { return s.Attack }},
		{"defense", func(s BattleStats) int { return s.Defense }},
		{"speed", func(s BattleStats) int { return s.Speed }},
	} {
		covered := false
		for _, m := range members {
			if check.get(m.Stats) > highStat {
				covered = true
				break
			}
		}
		if !covered {
			suggestions = append(suggestions, fmt.Sprintf("No member has high %s. Consider adding a creature strong in %s.", check.label, check.label))
		}
	}

	if weaknesses := teamWeaknesses(members); len(weaknesses) > 0 {
		suggestions = append(suggestions, fmt.Sprintf("Team is vulnerable to: %s.", strings.Join(weaknesses, ", ")))
	}

	if len(suggestions) == 0 {
		suggestions = append(suggestions, "Your team looks well-rounded. Nice work!")
	}
	return suggestions
}

// teamWeaknesses lists attacking types for which no member is resistant.
// A member resists a type when one of its own types takes reduced damage from
// it. Note the check is inverted relative to true weakness (taking increased
// damage), so neutral matchups count as vulnerabilities too.
func teamWeaknesses(members []CreatureRecord) []string {
	var out []string
	for _, attacking := range chartTypes() {
		resisted := false
		for _, m := range members {
			for _, dt := range m.Types {
				if TypeMultiplier(attacking, dt) < 1.0 {
					resisted = true
					break
				}
			}
			if resisted {
				break
			}
		}
		if !resisted {
			out = append(out, attacking)
		}
	}
	return out
}

func chartTypes() []string {
	out := make([]string, 0, len(typeChart))
	for t := range typeChart {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
