package core

import (
	"fmt"
	"os"

	"pokeroster/internal/infra/persistence/memory"
	"pokeroster/internal/infra/persistence/postgres"
	"pokeroster/internal/infra/persistence/sqlite"
	"pokeroster/pkg/domain"
)

// StorageDriver selects which persistence backend backs the service.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // ephemeral, for tests
	StorageSQLite   StorageDriver = "sqlite"   // embedded file database
	StoragePostgres StorageDriver = "postgres" // external PostgreSQL
)

// OpenPersistentStore picks a backend from the environment, defaulting
// to the embedded sqlite store.
//
//	POKEROSTER_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	POKEROSTER_SQLITE_PATH: path to sqlite file (default ./pokeroster.db)
//	POKEROSTER_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenPersistentStore(engine *domain.RulesEngine) (PersistentStore, error) {
	driver := os.Getenv("POKEROSTER_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageSQLite)
	}
	switch StorageDriver(driver) {
	case StorageMemory:
		return memory.NewStore(engine), nil
	case StorageSQLite:
		path := os.Getenv("POKEROSTER_SQLITE_PATH")
		return sqlite.NewStore(path, engine)
	case StoragePostgres:
		dsn := os.Getenv("POKEROSTER_POSTGRES_DSN")
		return postgres.NewStore(dsn, engine)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
