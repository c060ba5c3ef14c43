// Command rosterctl manages the local creature catalog and battle teams:
// importing catalog data, inspecting teams, evaluating rosters, and exporting
// team artifacts to blob storage.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"pokeroster/internal/blob"
	"pokeroster/internal/core"
	"pokeroster/internal/export"
)

var exitFunc = os.Exit

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "rosterctl:", err)
		exitFunc(1)
	}
}

func usage() string {
	return strings.TrimSpace(`
usage: rosterctl <command> [arguments]

commands:
  import <file.json>        import catalog pages and creature details
  teams                     list teams
  create <name> [id...]     create a team with optional starting members
  add <team-id> <id>        add a creature to a team
  evaluate <team-id>        print the team evaluation
  export <team-id>          export a team snapshot to blob storage
`)
}

func run(args []string) error {
	if len(args) == 0 {
		fmt.Println(usage())
		return nil
	}
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg.LogLevel)

	store, err := core.OpenPersistentStore(core.NewRulesEngine())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	svc := core.NewService(store, core.WithLogger(core.NewSlogLogger(logger)))
	ctx := context.Background()

	switch args[0] {
	case "import":
		return runImport(ctx, svc, args[1:])
	case "teams":
		return runTeams(ctx, svc)
	case "create":
		return runCreate(ctx, svc, args[1:])
	case "add":
		return runAdd(ctx, svc, args[1:])
	case "evaluate":
		return runEvaluate(ctx, svc, args[1:])
	case "export":
		return runExport(ctx, svc, cfg, args[1:])
	case "help", "-h", "--help":
		fmt.Println(usage())
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage())
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// importFile is the JSON shape accepted by the import command.
type importFile struct {
	Pages     []core.CatalogPageEntry `json:"pages"`
	Creatures []core.CreatureRecord   `json:"creatures"`
}

func runImport(ctx context.Context, svc *core.Service, args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("import expects one file argument")
	}
	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	var in importFile
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("decode %s: %w", fs.Arg(0), err)
	}
	if len(in.Pages) > 0 {
		if _, err := svc.ImportCatalogPage(ctx, in.Pages); err != nil {
			return fmt.Errorf("import pages: %w", err)
		}
	}
	if len(in.Creatures) > 0 {
		if _, err := svc.ImportCreatureDetails(ctx, in.Creatures); err != nil {
			return fmt.Errorf("import creatures: %w", err)
		}
	}
	fmt.Printf("imported %d pages entries, %d creatures\n", len(in.Pages), len(in.Creatures))
	return nil
}

func runTeams(_ context.Context, svc *core.Service) error {
	for _, t := range svc.Store().ListTeams() {
		count := svc.Store().CountTeamMembers(t.ID)
		fmt.Printf("%d\t%s\t%d/%d members\t%s\n", t.ID, t.Name, count, core.MaxTeamSize, t.CreatedAt.Format(time.RFC3339))
	}
	return nil
}

func runCreate(ctx context.Context, svc *core.Service, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("create expects a team name")
	}
	ids, err := parseIDs(args[1:])
	if err != nil {
		return err
	}
	team, _, err := svc.CreateTeam(ctx, args[0], ids...)
	if err != nil {
		return err
	}
	fmt.Printf("created team %d %q\n", team.ID, team.Name)
	return nil
}

func runAdd(ctx context.Context, svc *core.Service, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("add expects <team-id> <creature-id>")
	}
	teamID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid team id %q", args[0])
	}
	creatureID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid creature id %q", args[1])
	}
	added, _, err := svc.AddMember(ctx, teamID, creatureID)
	if err != nil {
		return err
	}
	if !added {
		fmt.Println("not added (team full or creature already on team)")
		return nil
	}
	fmt.Println("added")
	return nil
}

func runEvaluate(ctx context.Context, svc *core.Service, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("evaluate expects <team-id>")
	}
	teamID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid team id %q", args[0])
	}
	eval, err := svc.Evaluate(ctx, teamID)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(eval, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runExport(ctx context.Context, svc *core.Service, cfg *Config, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("export expects <team-id>")
	}
	teamID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid team id %q", args[0])
	}
	store, err := blob.Open(ctx)
	if err != nil {
		return fmt.Errorf("open blob store: %w", err)
	}
	worker := export.NewWorker(svc, store, export.NewMemoryAuditLog())
	worker.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = worker.Stop(stopCtx)
	}()

	record, err := worker.Enqueue(ctx, export.Input{TeamID: teamID, RequestedBy: "rosterctl"})
	if err != nil {
		return err
	}
	deadline := time.Now().Add(time.Duration(cfg.ExportTimeout) * time.Second)
	for {
		current, ok := worker.Get(record.ID)
		if !ok {
			return fmt.Errorf("export %s disappeared", record.ID)
		}
		switch current.Status {
		case export.StatusSucceeded:
			for _, a := range current.Artifacts {
				fmt.Printf("%s\t%s\t%d bytes\n", a.Format, a.Key, a.SizeBytes)
			}
			return nil
		case export.StatusFailed:
			return fmt.Errorf("export failed: %s", current.Error)
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("export timed out after %ds", cfg.ExportTimeout)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid creature id %q", a)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
