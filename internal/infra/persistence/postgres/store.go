// Package postgres provides a PostgreSQL-backed persistent store that mirrors
// the in-memory semantics and snapshots the committed state after every
// successful transaction.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"pokeroster/internal/infra/persistence/memory"
	"pokeroster/pkg/domain"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

// The store must keep satisfying the persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/pokeroster?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS catalog_page (
	page BIGINT NOT NULL,
	name TEXT PRIMARY KEY,
	url TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS catalog_detail (
	id BIGINT PRIMARY KEY,
	name TEXT NOT NULL,
	height BIGINT NOT NULL,
	weight BIGINT NOT NULL,
	base_experience BIGINT NOT NULL,
	types JSONB NOT NULL,
	hp BIGINT NOT NULL,
	attack BIGINT NOT NULL,
	defense BIGINT NOT NULL,
	speed BIGINT NOT NULL,
	exp BIGINT NOT NULL,
	is_favorite BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE TABLE IF NOT EXISTS team (
	id BIGINT PRIMARY KEY,
	name TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS team_member (
	team_id BIGINT NOT NULL REFERENCES team(id) ON DELETE CASCADE,
	creature_id BIGINT NOT NULL,
	position BIGINT NOT NULL,
	added_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (team_id, creature_id)
);
CREATE TABLE IF NOT EXISTS meta (
	key TEXT PRIMARY KEY,
	value BIGINT NOT NULL
);
`

// Store persists state to Postgres while reusing the in-memory implementation
// for transaction semantics.
type Store struct {
	*memory.Store
	db *sql.DB
	mu sync.Mutex
}

// NewStore opens a Postgres-backed store using the provided DSN (falls back to
// defaultDSN), applies the schema, and hydrates the in-memory store from any
// existing rows.
func NewStore(dsn string, engine *domain.RulesEngine) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := applySchema(ctx, db); err != nil {
		return nil, err
	}
	snapshot, err := loadSnapshot(ctx, db)
	if err != nil {
		return nil, err
	}
	mem := memory.NewStore(engine)
	mem.ImportState(snapshot)
	return &Store{Store: mem, db: db}, nil
}

// RunInTransaction applies the function in-memory, then snapshots the
// committed state to Postgres.
func (s *Store) RunInTransaction(ctx context.Context, fn func(domain.Transaction) error) (domain.Result, error) {
	res, err := s.Store.RunInTransaction(ctx, fn)
	if err != nil {
		return res, err
	}
	if err := s.persist(ctx); err != nil {
		return res, domain.StoreFailure{Op: "persist", Err: err}
	}
	return res, nil
}

// DB surfaces the wrapped sql.DB so integration tests can reach it.
func (s *Store) DB() *sql.DB { return s.db }

// applySchema executes the DDL one statement at a time; the extended query
// protocol rejects multi-statement strings.
func applySchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range strings.Split(schemaDDL, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

func loadSnapshot(ctx context.Context, db *sql.DB) (memory.Snapshot, error) {
	snapshot := memory.Snapshot{
		Creatures: map[int64]domain.CreatureRecord{},
		Pages:     map[string]domain.CatalogPageEntry{},
		Teams:     map[int64]domain.Team{},
	}

	rows, err := db.QueryContext(ctx, `SELECT page, name, url FROM catalog_page`)
	if err != nil {
		return memory.Snapshot{}, fmt.Errorf("select catalog_page: %w", err)
	}
	for rows.Next() {
		var e domain.CatalogPageEntry
		if err := rows.Scan(&e.Page, &e.Name, &e.URL); err != nil {
			_ = rows.Close()
			return memory.Snapshot{}, fmt.Errorf("scan catalog_page: %w", err)
		}
		snapshot.Pages[e.Name] = e
	}
	if err := finishRows(rows); err != nil {
		return memory.Snapshot{}, err
	}

	rows, err = db.QueryContext(ctx, `SELECT id, name, height, weight, base_experience, types, hp, attack, defense, speed, exp, is_favorite FROM catalog_detail`)
	if err != nil {
		return memory.Snapshot{}, fmt.Errorf("select catalog_detail: %w", err)
	}
	for rows.Next() {
		var c domain.CreatureRecord
		var types []byte
		if err := rows.Scan(&c.ID, &c.Name, &c.Height, &c.Weight, &c.BaseExperience, &types,
			&c.Stats.HP, &c.Stats.Attack, &c.Stats.Defense, &c.Stats.Speed, &c.Stats.Exp, &c.IsFavorite); err != nil {
			_ = rows.Close()
			return memory.Snapshot{}, fmt.Errorf("scan catalog_detail: %w", err)
		}
		if err := json.Unmarshal(types, &c.Types); err != nil {
			_ = rows.Close()
			return memory.Snapshot{}, fmt.Errorf("decode types for creature %d: %w", c.ID, err)
		}
		snapshot.Creatures[c.ID] = c
	}
	if err := finishRows(rows); err != nil {
		return memory.Snapshot{}, err
	}

	rows, err = db.QueryContext(ctx, `SELECT id, name, created_at FROM team`)
	if err != nil {
		return memory.Snapshot{}, fmt.Errorf("select team: %w", err)
	}
	for rows.Next() {
		var t domain.Team
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt); err != nil {
			_ = rows.Close()
			return memory.Snapshot{}, fmt.Errorf("scan team: %w", err)
		}
		snapshot.Teams[t.ID] = t
	}
	if err := finishRows(rows); err != nil {
		return memory.Snapshot{}, err
	}

	rows, err = db.QueryContext(ctx, `SELECT team_id, creature_id, position, added_at FROM team_member`)
	if err != nil {
		return memory.Snapshot{}, fmt.Errorf("select team_member: %w", err)
	}
	for rows.Next() {
		var m domain.TeamMember
		if err := rows.Scan(&m.TeamID, &m.CreatureID, &m.Position, &m.AddedAt); err != nil {
			_ = rows.Close()
			return memory.Snapshot{}, fmt.Errorf("scan team_member: %w", err)
		}
		snapshot.Members = append(snapshot.Members, m)
	}
	if err := finishRows(rows); err != nil {
		return memory.Snapshot{}, err
	}

	var nextTeamID int64
	err = db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'next_team_id'`).Scan(&nextTeamID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return memory.Snapshot{}, fmt.Errorf("select next_team_id: %w", err)
	default:
		snapshot.NextTeamID = nextTeamID
	}
	return snapshot, nil
}

func (s *Store) persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	for _, table := range []string{"team_member", "team", "catalog_detail", "catalog_page", "meta"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	for _, e := range snapshot.Pages {
		if _, err := tx.ExecContext(ctx, `INSERT INTO catalog_page(page, name, url) VALUES($1,$2,$3)`, e.Page, e.Name, e.URL); err != nil {
			return fmt.Errorf("insert catalog_page: %w", err)
		}
	}
	for _, c := range snapshot.Creatures {
		types, err := json.Marshal(c.Types)
		if err != nil {
			return fmt.Errorf("encode types for creature %d: %w", c.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO catalog_detail(id, name, height, weight, base_experience, types, hp, attack, defense, speed, exp, is_favorite)
			VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
			c.ID, c.Name, c.Height, c.Weight, c.BaseExperience, types,
			c.Stats.HP, c.Stats.Attack, c.Stats.Defense, c.Stats.Speed, c.Stats.Exp, c.IsFavorite); err != nil {
			return fmt.Errorf("insert catalog_detail: %w", err)
		}
	}
	for _, t := range snapshot.Teams {
		if _, err := tx.ExecContext(ctx, `INSERT INTO team(id, name, created_at) VALUES($1,$2,$3)`, t.ID, t.Name, t.CreatedAt); err != nil {
			return fmt.Errorf("insert team: %w", err)
		}
	}
	for _, m := range snapshot.Members {
		if _, err := tx.ExecContext(ctx, `INSERT INTO team_member(team_id, creature_id, position, added_at) VALUES($1,$2,$3,$4)`,
			m.TeamID, m.CreatureID, m.Position, m.AddedAt); err != nil {
			return fmt.Errorf("insert team_member: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO meta(key, value) VALUES('next_team_id', $1)`, snapshot.NextTeamID); err != nil {
		return fmt.Errorf("insert next_team_id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

func finishRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("iterate rows: %w", err)
	}
	return rows.Close()
}

// OverrideSQLOpen replaces the database opener, returning a func that
// puts the original back. Test hook.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
