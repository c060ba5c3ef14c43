// Package sqlite provides an embedded SQLite-backed persistent store. It
// reuses the in-memory transactional semantics and writes the committed state
// to a relational schema after every successful transaction.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"pokeroster/internal/infra/persistence/memory"
	"pokeroster/pkg/domain"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// The store must keep satisfying the persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

const defaultPath = "pokeroster.db"

const schemaDDL = `
CREATE TABLE IF NOT EXISTS catalog_page (
	page INTEGER NOT NULL,
	name TEXT PRIMARY KEY,
	url TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS catalog_detail (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	height INTEGER NOT NULL,
	weight INTEGER NOT NULL,
	base_experience INTEGER NOT NULL,
	types TEXT NOT NULL,
	hp INTEGER NOT NULL,
	attack INTEGER NOT NULL,
	defense INTEGER NOT NULL,
	speed INTEGER NOT NULL,
	exp INTEGER NOT NULL,
	is_favorite INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS team (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS team_member (
	team_id INTEGER NOT NULL REFERENCES team(id),
	creature_id INTEGER NOT NULL,
	position INTEGER NOT NULL,
	added_at TEXT NOT NULL,
	PRIMARY KEY (team_id, creature_id)
);
CREATE TABLE IF NOT EXISTS meta (
	key TEXT PRIMARY KEY,
	value INTEGER NOT NULL
);
`

// Store snapshots the in-memory state into SQLite after each commit.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore opens (or creates) the database at path, applies the schema, and
// hydrates the in-memory store from any existing rows.
func NewStore(path string, engine *domain.RulesEngine) (*Store, error) {
	if path == "" {
		path = defaultPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(schemaDDL); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	mem := memory.NewStore(engine)
	s := &Store{Store: mem, db: db, path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	snapshot := memory.Snapshot{
		Creatures: map[int64]domain.CreatureRecord{},
		Pages:     map[string]domain.CatalogPageEntry{},
		Teams:     map[int64]domain.Team{},
	}

	rows, err := s.db.Query(`SELECT page, name, url FROM catalog_page`)
	if err != nil {
		return fmt.Errorf("select catalog_page: %w", err)
	}
	for rows.Next() {
		var e domain.CatalogPageEntry
		if err := rows.Scan(&e.Page, &e.Name, &e.URL); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scan catalog_page: %w", err)
		}
		snapshot.Pages[e.Name] = e
	}
	if err := closeRows(rows); err != nil {
		return err
	}

	rows, err = s.db.Query(`SELECT id, name, height, weight, base_experience, types, hp, attack, defense, speed, exp, is_favorite FROM catalog_detail`)
	if err != nil {
		return fmt.Errorf("select catalog_detail: %w", err)
	}
	for rows.Next() {
		var c domain.CreatureRecord
		var types string
		if err := rows.Scan(&c.ID, &c.Name, &c.Height, &c.Weight, &c.BaseExperience, &types,
			&c.Stats.HP, &c.Stats.Attack, &c.Stats.Defense, &c.Stats.Speed, &c.Stats.Exp, &c.IsFavorite); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scan catalog_detail: %w", err)
		}
		if err := json.Unmarshal([]byte(types), &c.Types); err != nil {
			_ = rows.Close()
			return fmt.Errorf("decode types for creature %d: %w", c.ID, err)
		}
		snapshot.Creatures[c.ID] = c
	}
	if err := closeRows(rows); err != nil {
		return err
	}

	rows, err = s.db.Query(`SELECT id, name, created_at FROM team`)
	if err != nil {
		return fmt.Errorf("select team: %w", err)
	}
	for rows.Next() {
		var t domain.Team
		var createdAt string
		if err := rows.Scan(&t.ID, &t.Name, &createdAt); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scan team: %w", err)
		}
		if t.CreatedAt, err = parseTime(createdAt); err != nil {
			_ = rows.Close()
			return fmt.Errorf("team %d created_at: %w", t.ID, err)
		}
		snapshot.Teams[t.ID] = t
	}
	if err := closeRows(rows); err != nil {
		return err
	}

	rows, err = s.db.Query(`SELECT team_id, creature_id, position, added_at FROM team_member`)
	if err != nil {
		return fmt.Errorf("select team_member: %w", err)
	}
	for rows.Next() {
		var m domain.TeamMember
		var addedAt string
		if err := rows.Scan(&m.TeamID, &m.CreatureID, &m.Position, &addedAt); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scan team_member: %w", err)
		}
		if m.AddedAt, err = parseTime(addedAt); err != nil {
			_ = rows.Close()
			return fmt.Errorf("member %d/%d added_at: %w", m.TeamID, m.CreatureID, err)
		}
		snapshot.Members = append(snapshot.Members, m)
	}
	if err := closeRows(rows); err != nil {
		return err
	}

	var nextTeamID int64
	err = s.db.QueryRow(`SELECT value FROM meta WHERE key = 'next_team_id'`).Scan(&nextTeamID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("select next_team_id: %w", err)
	default:
		snapshot.NextTeamID = nextTeamID
	}

	s.ImportState(snapshot)
	return nil
}

func (s *Store) persist() (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, table := range []string{"team_member", "team", "catalog_detail", "catalog_page", "meta"} {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			retErr = fmt.Errorf("clear %s: %w", table, err)
			return retErr
		}
	}
	for _, e := range snapshot.Pages {
		if _, err := tx.Exec(`INSERT INTO catalog_page(page, name, url) VALUES(?,?,?)`, e.Page, e.Name, e.URL); err != nil {
			retErr = fmt.Errorf("insert catalog_page: %w", err)
			return retErr
		}
	}
	for _, c := range snapshot.Creatures {
		types, err := json.Marshal(c.Types)
		if err != nil {
			retErr = fmt.Errorf("encode types for creature %d: %w", c.ID, err)
			return retErr
		}
		if _, err := tx.Exec(`INSERT INTO catalog_detail(id, name, height, weight, base_experience, types, hp, attack, defense, speed, exp, is_favorite)
			VALUES(?,?,?,?,?,?,?,?,?,?,?,?)`,
			c.ID, c.Name, c.Height, c.Weight, c.BaseExperience, string(types),
			c.Stats.HP, c.Stats.Attack, c.Stats.Defense, c.Stats.Speed, c.Stats.Exp, c.IsFavorite); err != nil {
			retErr = fmt.Errorf("insert catalog_detail: %w", err)
			return retErr
		}
	}
	for _, t := range snapshot.Teams {
		if _, err := tx.Exec(`INSERT INTO team(id, name, created_at) VALUES(?,?,?)`, t.ID, t.Name, formatTime(t.CreatedAt)); err != nil {
			retErr = fmt.Errorf("insert team: %w", err)
			return retErr
		}
	}
	for _, m := range snapshot.Members {
		if _, err := tx.Exec(`INSERT INTO team_member(team_id, creature_id, position, added_at) VALUES(?,?,?,?)`,
			m.TeamID, m.CreatureID, m.Position, formatTime(m.AddedAt)); err != nil {
			retErr = fmt.Errorf("insert team_member: %w", err)
			return retErr
		}
	}
	if _, err := tx.Exec(`INSERT INTO meta(key, value) VALUES('next_team_id', ?)`, snapshot.NextTeamID); err != nil {
		retErr = fmt.Errorf("insert next_team_id: %w", err)
		return retErr
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// RunInTransaction applies the function in-memory, then snapshots the
// committed state to SQLite.
func (s *Store) RunInTransaction(ctx context.Context, fn func(domain.Transaction) error) (domain.Result, error) {
	res, err := s.Store.RunInTransaction(ctx, fn)
	if err != nil {
		return res, err
	}
	if pErr := s.persist(); pErr != nil {
		return res, domain.StoreFailure{Op: "persist", Err: pErr}
	}
	return res, nil
}

// DB surfaces the wrapped sql.DB so integration tests can reach it.
func (s *Store) DB() *sql.DB { return s.db }

// Path reports where the database file lives.
func (s *Store) Path() string { return s.path }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("iterate rows: %w", err)
	}
	return rows.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
