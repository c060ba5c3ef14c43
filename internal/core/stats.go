package core

// Pure per-creature stat derivations. No I/O; results depend only on the
// record passed in, so repeated evaluation over stored data is reproducible.

// Tier is a coarse strength classification derived from summed battle stats.
type Tier string

const (
	TierS Tier = "S"
	TierA Tier = "A"
	TierB Tier = "B"
	TierC Tier = "C"
	TierD Tier = "D"
)

// Effectiveness is the asymmetric advantage relation between two creatures.
type Effectiveness string

const (
	Advantage    Effectiveness = "advantage"
	Disadvantage Effectiveness = "disadvantage"
	Neutral      Effectiveness = "neutral"
)

// Archetype labels the dominant battle stat of a creature.
type Archetype string

const (
	ArchetypeTank      Archetype = "tank"
	ArchetypeAttacker  Archetype = "attacker"
	ArchetypeDefender  Archetype = "defender"
	ArchetypeSpeedster Archetype = "speedster"
)

const superEffective = 2.0

// typeChart maps attacking type -> defending type -> damage multiplier.
// Pairs absent from the chart are neutral (1.0). The chart covers the subset
// of types present in the source catalog.
var typeChart = map[string]map[string]float64{
	"fire": {
		"grass": 2.0, "ice": 2.0, "bug": 2.0,
		"fire": 0.5, "water": 0.5, "rock": 0.5,
	},
	"water": {
		"fire": 2.0, "ground": 2.0, "rock": 2.0,
		"water": 0.5, "grass": 0.5,
	},
	"grass": {
		"water": 2.0, "ground": 2.0, "rock": 2.0,
		"fire": 0.5, "grass": 0.5, "poison": 0.5, "flying": 0.5, "bug": 0.5,
	},
	"electric": {
		"water": 2.0, "flying": 2.0,
		"electric": 0.5, "grass": 0.5, "ground": 0.0,
	},
	"ground": {
		"fire": 2.0, "electric": 2.0, "poison": 2.0, "rock": 2.0,
		"grass": 0.5, "bug": 0.5, "flying": 0.0,
	},
	"rock": {
		"fire": 2.0, "ice": 2.0, "flying": 2.0, "bug": 2.0,
		"fighting": 0.5, "ground": 0.5,
	},
	"ice": {
		"grass": 2.0, "ground": 2.0, "flying": 2.0,
		"fire": 0.5, "water": 0.5, "ice": 0.5,
	},
	"psychic": {
		"fighting": 2.0, "poison": 2.0,
		"psychic": 0.5,
	},
	"fighting": {
		"normal": 2.0, "ice": 2.0, "rock": 2.0,
		"flying": 0.5, "poison": 0.5, "psychic": 0.5, "bug": 0.5,
	},
	"poison": {
		"grass": 2.0,
		"poison": 0.5, "ground": 0.5, "rock": 0.5,
	},
	"bug": {
		"grass": 2.0, "psychic": 2.0,
		"fire": 0.5, "fighting": 0.5, "flying": 0.5, "poison": 0.5,
	},
	"flying": {
		"grass": 2.0, "fighting": 2.0, "bug": 2.0,
		"electric": 0.5, "rock": 0.5,
	},
}

// TypeMultiplier returns the damage multiplier of an attacking type against a
// defending type. Unlisted pairs are neutral.
func TypeMultiplier(attacking, defending string) float64 {
	if row, ok := typeChart[attacking]; ok {
		if m, ok := row[defending]; ok {
			return m
		}
	}
	return 1.0
}

// TotalStats sums the four battle stats. Experience is excluded.
func TotalStats(c CreatureRecord) int {
	return c.Stats.HP + c.Stats.Attack + c.Stats.Defense + c.Stats.Speed
}

// TierOf classifies a creature by total stats. Band edges are exclusive on
// the lower side: a total of exactly 750 is tier B, not A.
func TierOf(c CreatureRecord) Tier {
	total := TotalStats(c)
	switch {
	case total > 900:
		return TierS
	case total > 750:
		return TierA
	case total > 600:
		return TierB
	case total > 450:
		return TierC
	default:
		return TierD
	}
}

// TypeEffectiveness reports whether a holds a type advantage over b. a has the
// advantage iff some type of a is super-effective against some type of b and
// no type of b is super-effective against any type of a; the mirror case is a
// disadvantage. Any qualifying pair triggers the verdict; multiple matching
// pairs do not stack.
func TypeEffectiveness(a, b CreatureRecord) Effectiveness {
	aHits := hasSuperEffectivePair(a.Types, b.Types)
	bHits := hasSuperEffectivePair(b.Types, a.Types)
	switch {
	case aHits && !bHits:
		return Advantage
	case bHits && !aHits:
		return Disadvantage
	default:
		return Neutral
	}
}

func hasSuperEffectivePair(attacking, defending []string) bool {
	for _, at := range attacking {
		for _, dt := range defending {
			if TypeMultiplier(at, dt) == superEffective {
				return true
			}
		}
	}
	return false
}

// Compatibility scores how well two creatures pair up, in [0, 100]. Base 50,
// plus type diversity, an attack/defense pairing bonus, and a speed spread
// bonus; clamped to 100. The bonuses are non-negative so no lower clamp is
// needed.
func Compatibility(a, b CreatureRecord) int {
	score := 50

	unique := make(map[string]struct{}, len(a.Types)+len(b.Types))
	for _, t := range a.Types {
		unique[t] = struct{}{}
	}
	for _, t := range b.Types {
		unique[t] = struct{}{}
	}
	if n := len(unique); n > 1 {
		score += 10 * (n - 1)
	}

	highStat := StatCap * 7 / 10
	if (a.Stats.Attack > highStat && b.Stats.Defense > highStat) ||
		(b.Stats.Attack > highStat && a.Stats.Defense > highStat) {
		score += 15
	}

	diff := a.Stats.Speed - b.Stats.Speed
	if diff < 0 {
		diff = -diff
	}
	if diff > StatCap*3/10 {
		score += 10
	}

	if score > 100 {
		score = 100
	}
	return score
}

// StrengthArchetype returns the archetype of the weakly-largest battle stat,
// checked in the fixed order hp, attack, defense, speed; ties resolve to the
// earlier stat.
func StrengthArchetype(c CreatureRecord) Archetype {
	max := c.Stats.HP
	arch := ArchetypeTank
	if c.Stats.Attack > max {
		max = c.Stats.Attack
		arch = ArchetypeAttacker
	}
	if c.Stats.Defense > max {
		max = c.Stats.Defense
		arch = ArchetypeDefender
	}
	if c.Stats.Speed > max {
		arch = ArchetypeSpeedster
	}
	return arch
}
