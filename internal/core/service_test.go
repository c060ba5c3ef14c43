package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"pokeroster/internal/infra/persistence/memory"
	"pokeroster/pkg/domain"
)

type captureLogger struct {
	mu    sync.Mutex
	warns []string
}

func (l *captureLogger) Debug(string, ...any) {}
func (l *captureLogger) Info(string, ...any)  {}
func (l *captureLogger) Error(string, ...any) {}
func (l *captureLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	return NewService(memory.NewStore(NewRulesEngine()), opts...)
}

func seedCreatures(t *testing.T, svc *Service, ids ...int64) {
	t.Helper()
	records := make([]CreatureRecord, 0, len(ids))
	for _, id := range ids {
		records = append(records, CreatureRecord{
			ID:    id,
			Name:  fmt.Sprintf("creature-%d", id),
			Types: []string{"water"},
			Stats: BattleStats{HP: 50, Attack: 60, Defense: 40, Speed: 70},
		})
	}
	if _, err := svc.ImportCreatureDetails(context.Background(), records); err != nil {
		t.Fatalf("seed creatures: %v", err)
	}
}

func TestCreateTeamRoundTrip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	seedCreatures(t, svc, 1, 6)

	team, _, err := svc.CreateTeam(ctx, "X", 1, 6)
	if err != nil {
		t.Fatalf("create team: %v", err)
	}
	if team.ID <= 0 {
		t.Fatalf("expected positive team id, got %d", team.ID)
	}

	snap, err := svc.Snapshot(ctx, team.ID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Team.Name != "X" {
		t.Fatalf("expected name X got %q", snap.Team.Name)
	}
	if len(snap.Members) != 2 || snap.Members[0].ID != 1 || snap.Members[1].ID != 6 {
		t.Fatalf("expected members [1 6] in order, got %+v", snap.Members)
	}
}

func TestCreateTeamBlankNameDefaults(t *testing.T) {
	svc := newTestService(t)
	team, _, err := svc.CreateTeam(context.Background(), "   ")
	if err != nil {
		t.Fatalf("create team: %v", err)
	}
	if team.Name != domain.DefaultTeamName {
		t.Fatalf("expected default name, got %q", team.Name)
	}
}

func TestCreateTeamRejectsInvalidCreatureID(t *testing.T) {
	svc := newTestService(t)
	_, _, err := svc.CreateTeam(context.Background(), "bad", 0)
	var inv domain.ErrInvalidArgument
	if !errors.As(err, &inv) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	if teams := svc.Store().ListTeams(); len(teams) != 0 {
		t.Fatalf("failed create must leave no team behind, got %d", len(teams))
	}
}

func TestAddMemberTeamFullIsSilentNoop(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	seedCreatures(t, svc, 1, 2, 3, 4, 5, 6, 7)

	team, _, err := svc.CreateTeam(ctx, "full", 1, 2, 3, 4, 5, 6)
	if err != nil {
		t.Fatalf("create team: %v", err)
	}
	added, _, err := svc.AddMember(ctx, team.ID, 7)
	if err != nil {
		t.Fatalf("add to full team must not error: %v", err)
	}
	if added {
		t.Fatalf("seventh member must not be added")
	}
	if count := svc.Store().CountTeamMembers(team.ID); count != MaxTeamSize {
		t.Fatalf("expected %d members got %d", MaxTeamSize, count)
	}
}

func TestAddMemberDuplicateIsSilentNoop(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	seedCreatures(t, svc, 1)
	team, _, err := svc.CreateTeam(ctx, "dup", 1)
	if err != nil {
		t.Fatalf("create team: %v", err)
	}
	added, _, err := svc.AddMember(ctx, team.ID, 1)
	if err != nil {
		t.Fatalf("duplicate add must not error: %v", err)
	}
	if added {
		t.Fatalf("duplicate member must not be added")
	}
}

func TestAddMemberMissingTeam(t *testing.T) {
	svc := newTestService(t)
	_, _, err := svc.AddMember(context.Background(), 404, 1)
	var nf domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAddMemberAppendsAtCount(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	seedCreatures(t, svc, 1, 2)
	team, _, err := svc.CreateTeam(ctx, "seq", 1)
	if err != nil {
		t.Fatalf("create team: %v", err)
	}
	if _, _, err := svc.AddMember(ctx, team.ID, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	members := svc.Store().TeamMembers(team.ID)
	if len(members) != 2 || members[1].CreatureID != 2 || members[1].Position != 1 {
		t.Fatalf("expected creature 2 at position 1, got %+v", members)
	}
}

// The count check and the insert share one transaction, so N racing adds on a
// team with five members admit exactly one sixth member.
func TestConcurrentAddMemberCap(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	seedCreatures(t, svc, 1, 2, 3, 4, 5)
	team, _, err := svc.CreateTeam(ctx, "race", 1, 2, 3, 4, 5)
	if err != nil {
		t.Fatalf("create team: %v", err)
	}

	const racers = 16
	var wg sync.WaitGroup
	results := make([]bool, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			added, _, err := svc.AddMember(ctx, team.ID, int64(100+i))
			if err != nil {
				t.Errorf("racer %d: %v", i, err)
				return
			}
			results[i] = added
		}(i)
	}
	wg.Wait()

	var wins int
	for _, added := range results {
		if added {
			wins++
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one racer to land the sixth slot, got %d", wins)
	}
	if count := svc.Store().CountTeamMembers(team.ID); count != MaxTeamSize {
		t.Fatalf("cap exceeded: %d members", count)
	}
}

func TestRemoveMemberLeavesPositionGap(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	seedCreatures(t, svc, 1, 2, 3)
	team, _, err := svc.CreateTeam(ctx, "gaps", 1, 2, 3)
	if err != nil {
		t.Fatalf("create team: %v", err)
	}
	if _, err := svc.RemoveMember(ctx, team.ID, 2); err != nil {
		t.Fatalf("remove: %v", err)
	}
	members := svc.Store().TeamMembers(team.ID)
	if len(members) != 2 {
		t.Fatalf("expected 2 members got %d", len(members))
	}
	if members[0].Position != 0 || members[1].Position != 2 {
		t.Fatalf("positions must keep their values after removal, got %d and %d", members[0].Position, members[1].Position)
	}
}

func TestRemoveMemberNotFound(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	team, _, err := svc.CreateTeam(ctx, "empty")
	if err != nil {
		t.Fatalf("create team: %v", err)
	}
	_, err = svc.RemoveMember(ctx, team.ID, 9)
	var nf domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestReorder(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	seedCreatures(t, svc, 1, 2, 3)
	team, _, err := svc.CreateTeam(ctx, "order", 1, 2, 3)
	if err != nil {
		t.Fatalf("create team: %v", err)
	}
	addedAt := map[int64]time.Time{}
	for _, m := range svc.Store().TeamMembers(team.ID) {
		addedAt[m.CreatureID] = m.AddedAt
	}

	want := []int64{3, 1, 2}
	if _, err := svc.Reorder(ctx, team.ID, want); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	// idempotent
	if _, err := svc.Reorder(ctx, team.ID, want); err != nil {
		t.Fatalf("repeat reorder: %v", err)
	}

	for i, m := range svc.Store().TeamMembers(team.ID) {
		if m.CreatureID != want[i] {
			t.Fatalf("position %d: expected creature %d got %d", i, want[i], m.CreatureID)
		}
		if m.Position != i {
			t.Fatalf("expected dense position %d got %d", i, m.Position)
		}
		if !m.AddedAt.Equal(addedAt[m.CreatureID]) {
			t.Fatalf("reorder must preserve AddedAt for creature %d", m.CreatureID)
		}
	}
}

func TestReorderRejectsWrongSet(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	seedCreatures(t, svc, 1, 2, 3)
	team, _, err := svc.CreateTeam(ctx, "strict", 1, 2, 3)
	if err != nil {
		t.Fatalf("create team: %v", err)
	}
	var inv domain.ErrInvalidArgument
	for _, bad := range [][]int64{
		{1, 2},       // missing a member
		{1, 2, 3, 4}, // extra member
		{1, 2, 9},    // substituted member
		{1, 1, 2},    // duplicate id
	} {
		if _, err := svc.Reorder(ctx, team.ID, bad); !errors.As(err, &inv) {
			t.Fatalf("ids %v: expected invalid argument, got %v", bad, err)
		}
	}
	for i, m := range svc.Store().TeamMembers(team.ID) {
		if m.CreatureID != int64(i+1) || m.Position != i {
			t.Fatalf("failed reorder must leave state unchanged, member %d is %+v", i, m)
		}
	}
}

func TestTeamSnapshotDropsUnknownMembers(t *testing.T) {
	logger := &captureLogger{}
	svc := newTestService(t, WithLogger(logger))
	ctx := context.Background()
	seedCreatures(t, svc, 1, 3)
	team, _, err := svc.CreateTeam(ctx, "partial", 1, 2, 3)
	if err != nil {
		t.Fatalf("create team: %v", err)
	}
	snap, err := svc.Snapshot(ctx, team.ID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap.Members) != 2 || snap.Members[0].ID != 1 || snap.Members[1].ID != 3 {
		t.Fatalf("member without detail record must be dropped, got %+v", snap.Members)
	}
	logger.mu.Lock()
	defer logger.mu.Unlock()
	if len(logger.warns) == 0 {
		t.Fatalf("expected a warning for the dropped member")
	}
}

func TestSnapshotMissingTeam(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Snapshot(context.Background(), 404)
	var nf domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSaveCreatureSynthesizesPageEntry(t *testing.T) {
	svc := newTestService(t)
	ok := svc.SaveCreature(context.Background(), CreatureRecord{
		ID:    25,
		Name:  "pika",
		Types: []string{"electric"},
		Stats: BattleStats{HP: 35, Attack: 55, Defense: 40, Speed: 90},
	})
	if !ok {
		t.Fatalf("save creature should succeed")
	}
	entries := svc.Store().PageEntries(0)
	if len(entries) != 1 || entries[0].Name != "pika" {
		t.Fatalf("expected synthesized page entry, got %+v", entries)
	}
	if entries[0].URL != "https://pokeapi.co/api/v2/pokemon/25/" {
		t.Fatalf("unexpected entry url %q", entries[0].URL)
	}
}

func TestSaveCreatureReportsFailure(t *testing.T) {
	svc := newTestService(t)
	if svc.SaveCreature(context.Background(), CreatureRecord{ID: 0, Name: ""}) {
		t.Fatalf("invalid record must report false")
	}
}

func TestSaveCreatureFalseOnRuleViolation(t *testing.T) {
	svc := newTestService(t)
	ok := svc.SaveCreature(context.Background(), CreatureRecord{
		ID:    9,
		Name:  "broken",
		Types: []string{"water"},
		Stats: BattleStats{HP: StatCap + 1},
	})
	if ok {
		t.Fatalf("stat above cap must be rejected by rules")
	}
	if _, found := svc.Store().GetCreature(9); found {
		t.Fatalf("rejected record must not be stored")
	}
}

func TestRenameTeam(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	team, _, err := svc.CreateTeam(ctx, "old")
	if err != nil {
		t.Fatalf("create team: %v", err)
	}
	if _, err := svc.RenameTeam(ctx, team.ID, "new"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	got, found := svc.Store().GetTeam(team.ID)
	if !found || got.Name != "new" {
		t.Fatalf("expected renamed team, got %+v found=%v", got, found)
	}

	var nf domain.ErrNotFound
	if _, err := svc.RenameTeam(ctx, 404, "nope"); !errors.As(err, &nf) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteTeamIdempotentCascade(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	seedCreatures(t, svc, 1, 2)
	team, _, err := svc.CreateTeam(ctx, "doomed", 1, 2)
	if err != nil {
		t.Fatalf("create team: %v", err)
	}
	if _, err := svc.DeleteTeam(ctx, team.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.DeleteTeam(ctx, team.ID); err != nil {
		t.Fatalf("repeat delete must be a no-op: %v", err)
	}
	if members := svc.Store().TeamMembers(team.ID); len(members) != 0 {
		t.Fatalf("members must cascade on delete, got %+v", members)
	}
}

func TestSetFavorite(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	seedCreatures(t, svc, 7)
	if _, err := svc.SetFavorite(ctx, 7, true); err != nil {
		t.Fatalf("set favorite: %v", err)
	}
	favs := svc.Store().FavoriteCreatures()
	if len(favs) != 1 || favs[0].ID != 7 {
		t.Fatalf("expected creature 7 favorited, got %+v", favs)
	}

	var nf domain.ErrNotFound
	if _, err := svc.SetFavorite(ctx, 404, true); !errors.As(err, &nf) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestEvaluateTeam(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	seedCreatures(t, svc, 1, 2)
	team, _, err := svc.CreateTeam(ctx, "evaluated", 1, 2)
	if err != nil {
		t.Fatalf("create team: %v", err)
	}
	eval, err := svc.Evaluate(ctx, team.ID)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if eval.Name != "evaluated" || eval.MemberCount != 2 {
		t.Fatalf("unexpected evaluation header %+v", eval)
	}
	if eval.AverageStrength != 220 {
		t.Fatalf("expected average 220 got %d", eval.AverageStrength)
	}
	if eval.Balanced {
		t.Fatalf("two-member team must not be balanced")
	}
	if len(eval.Suggestions) == 0 {
		t.Fatalf("expected suggestions for a small team")
	}
}

func TestImportCreatureDetailsAtomic(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.ImportCreatureDetails(context.Background(), []CreatureRecord{
		{ID: 1, Name: "fine", Types: []string{"grass"}, Stats: BattleStats{HP: 10}},
		{ID: 2, Name: "", Types: []string{"grass"}},
	})
	if err == nil {
		t.Fatalf("expected batch failure")
	}
	if _, found := svc.Store().GetCreature(1); found {
		t.Fatalf("failed batch must not store any record")
	}
}
