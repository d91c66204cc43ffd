package db

import "testing"

// NewTestDB opens a private in-memory SQLite database with the schema and
// seed categories in place. It is closed when the test ends.
func NewTestDB(tb testing.TB) *DB {
	tb.Helper()

	d, err := Open(DriverSQLite, ":memory:")
	if err != nil {
		tb.Fatalf("opening test database: %v", err)
	}
	tb.Cleanup(func() { d.Close() })

	if err := EnsureSchema(d); err != nil {
		tb.Fatalf("applying schema to test database: %v", err)
	}
	return d
}
