// Package metadb opens the key-value database selected by configuration.
package metadb

import (
	"cmp"
	"fmt"
	"os"
	"testing"

	"github.com/vocdoni/arbo/memdb"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/pebbledb"
)

// TypeMemory is a volatile database, meant for tests and simulations.
const TypeMemory = "memory"

// Types returns the supported database types.
func Types() []string {
	return []string{db.TypePebble, TypeMemory}
}

// New opens a database of type typ. The dir is ignored by the memory type.
func New(typ, dir string) (db.Database, error) {
	switch typ {
	case db.TypePebble:
		database, err := pebbledb.New(db.Options{Path: dir})
		if err != nil {
			return nil, err
		}
		return database, nil
	case TypeMemory:
		return memdb.New(), nil
	default:
		return nil, fmt.Errorf("invalid dbType: %q. Available types: %q", typ, Types())
	}
}

// ForTest returns the database type used by tests, selected with $DB_TYPE.
func ForTest() (typ string) {
	return cmp.Or(os.Getenv("DB_TYPE"), db.TypePebble)
}

// NewTest opens a database in a temporary directory that is closed when the
// test finishes.
func NewTest(tb testing.TB) db.Database {
	database, err := New(ForTest(), tb.TempDir())
	if err != nil {
		tb.Fatal(err)
	}
	tb.Cleanup(func() { database.Close() })
	return database
}
