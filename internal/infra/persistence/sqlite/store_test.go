package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"pokeroster/pkg/domain"
)

func TestStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.db")
	ctx := context.Background()

	store, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	var team domain.Team
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, err := tx.UpsertCreature(domain.CreatureRecord{
			ID:    25,
			Name:  "pikachu",
			Types: []string{"electric"},
			Stats: domain.BattleStats{HP: 35, Attack: 55, Defense: 40, Speed: 90},
		}); err != nil {
			return err
		}
		if err := tx.UpsertPageEntries([]domain.CatalogPageEntry{
			{Page: 0, Name: "pikachu", URL: "https://pokeapi.co/api/v2/pokemon/25/"},
		}); err != nil {
			return err
		}
		team, err = tx.CreateTeam("sparks")
		if err != nil {
			return err
		}
		return tx.AddTeamMember(domain.TeamMember{TeamID: team.ID, CreatureID: 25})
	}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	creature, ok := reopened.GetCreature(25)
	if !ok || creature.Name != "pikachu" || len(creature.Types) != 1 || creature.Types[0] != "electric" {
		t.Fatalf("creature did not survive reopen: %+v", creature)
	}
	if got := reopened.PageEntries(0); len(got) != 1 || got[0].Name != "pikachu" {
		t.Fatalf("catalog page did not survive reopen: %+v", got)
	}
	loaded, ok := reopened.GetTeam(team.ID)
	if !ok || loaded.Name != "sparks" {
		t.Fatalf("team did not survive reopen: %+v", loaded)
	}
	if members := reopened.TeamMembers(team.ID); len(members) != 1 || members[0].CreatureID != 25 {
		t.Fatalf("membership did not survive reopen: %+v", members)
	}

	var next domain.Team
	if _, err := reopened.RunInTransaction(ctx, func(tx domain.Transaction) error {
		next, err = tx.CreateTeam("after-reopen")
		return err
	}); err != nil {
		t.Fatalf("create after reopen: %v", err)
	}
	if next.ID <= team.ID {
		t.Fatalf("id sequence must continue after reopen: got %d after %d", next.ID, team.ID)
	}
}

func TestFailedTransactionLeavesFileUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.db")
	ctx := context.Background()

	store, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	boom := errors.New("abort")
	_, err = store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, err := tx.UpsertCreature(domain.CreatureRecord{
			ID:    1,
			Name:  "glitch",
			Types: []string{"bug"},
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if got := reopened.ListCreatures(); len(got) != 0 {
		t.Fatalf("rolled-back write must not be persisted, got %+v", got)
	}
}

func TestNewStoreDefaultsPath(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatalf("restore wd: %v", err)
		}
	})
	store, err := NewStore("", domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()
	if store.Path() != "pokeroster.db" {
		t.Fatalf("unexpected default path %q", store.Path())
	}
}

func TestRunInTransactionReportsPersistFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.db")
	store, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.DB().Close(); err != nil {
		t.Fatalf("close handle: %v", err)
	}

	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateTeam("doomed")
		return err
	})
	if err == nil {
		t.Fatalf("expected persistence error after the handle closed")
	}
	var failure domain.StoreFailure
	if !errors.As(err, &failure) || failure.Op != "persist" {
		t.Fatalf("expected StoreFailure wrapping the persist error, got %v", err)
	}
}
