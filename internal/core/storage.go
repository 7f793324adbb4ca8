package core

import (
	"context"
	"fmt"
	"os"

	"lighthousecore/internal/blob"
	"lighthousecore/internal/infra/persistence/blobstore"
	"lighthousecore/internal/infra/persistence/memory"
	"lighthousecore/internal/infra/persistence/postgres"
	"lighthousecore/internal/infra/persistence/sqlite"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
	StorageBlob     StorageDriver = "blob"     // snapshot object in a blob store
)

// OpenPersistentStore selects a backend using environment variables.
// Defaults to sqlite when unset.
//
//	LIGHTHOUSECORE_STORAGE_DRIVER: memory|sqlite|postgres|blob (default sqlite)
//	LIGHTHOUSECORE_SQLITE_PATH: path to sqlite file (default ./lighthousecore.db)
//	LIGHTHOUSECORE_POSTGRES_DSN: postgres DSN when driver=postgres
//	LIGHTHOUSECORE_BLOB_SNAPSHOT_KEY: object key when driver=blob
//	(blob driver selection documented in internal/blob)
func OpenPersistentStore(engine *RulesEngine) (PersistentStore, error) {
	driver := os.Getenv("LIGHTHOUSECORE_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageSQLite)
	}
	switch StorageDriver(driver) {
	case StorageMemory:
		return memory.NewStore(engine), nil
	case StorageSQLite:
		path := os.Getenv("LIGHTHOUSECORE_SQLITE_PATH")
		return sqlite.NewStore(path, engine)
	case StoragePostgres:
		dsn := os.Getenv("LIGHTHOUSECORE_POSTGRES_DSN")
		return postgres.NewStore(dsn, engine)
	case StorageBlob:
		ctx := context.Background()
		blobs, err := blob.Open(ctx)
		if err != nil {
			return nil, err
		}
		key := os.Getenv("LIGHTHOUSECORE_BLOB_SNAPSHOT_KEY")
		return blobstore.NewStore(ctx, blobs, key, engine)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}

// NewInMemoryService creates a service over a fresh in-memory store with the
// default rule set.
func NewInMemoryService(opts ...Option) *Service {
	return NewService(memory.NewStore(NewDefaultRulesEngine()), opts...)
}
