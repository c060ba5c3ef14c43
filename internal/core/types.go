package core

import "pokeroster/pkg/domain"

type (
	EntityType         = domain.EntityType
	Severity           = domain.Severity
	BattleStats        = domain.BattleStats
	CreatureRecord     = domain.CreatureRecord
	CatalogPageEntry   = domain.CatalogPageEntry
	Team               = domain.Team
	TeamMember         = domain.TeamMember
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	RulesEngine        = domain.RulesEngine
	RuleViolationError = domain.RuleViolationError
	Transaction        = domain.Transaction
	TransactionView    = domain.TransactionView
	PersistentStore    = domain.PersistentStore
)

const (
	EntityCreature    = domain.EntityCreature
	EntityCatalogPage = domain.EntityCatalogPage
	EntityTeam        = domain.EntityTeam
	EntityTeamMember  = domain.EntityTeamMember
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)

const (
	MaxTeamSize = domain.MaxTeamSize
	StatCap     = domain.StatCap
	ExpCap      = domain.ExpCap
)

// NewRulesEngine constructs a rules engine pre-loaded with the default roster
// invariants evaluated inside every transaction.
func NewRulesEngine() *RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(NewTeamCapacityRule())
	engine.Register(NewMembershipIntegrityRule())
	engine.Register(NewCatalogIntegrityRule())
	return engine
}
