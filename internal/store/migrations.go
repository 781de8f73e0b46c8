package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create access windows",
		SQL: `
			CREATE TABLE access_windows (
				username      TEXT PRIMARY KEY,
				last_payment  TEXT,
				due_date      TEXT,
				updated_at    TEXT NOT NULL DEFAULT (datetime('now'))
			);
		`,
	},
	{
		Version: 2,
		Name:    "index access windows by due date",
		SQL: `
			CREATE INDEX idx_access_windows_due ON access_windows (due_date);
		`,
	},
}
