package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Transitions table - journal of every effective scene state change
		`CREATE TABLE IF NOT EXISTS transitions (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL CHECK(source IN ('manual', 'gesture')),
			from_state TEXT NOT NULL CHECK(from_state IN ('TREE', 'EXPLODE')),
			to_state TEXT NOT NULL CHECK(to_state IN ('TREE', 'EXPLODE')),
			rotation REAL NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Bindings table - plugin actions to run when the scene enters a state
		`CREATE TABLE IF NOT EXISTS bindings (
			id TEXT PRIMARY KEY,
			trigger_event TEXT NOT NULL UNIQUE CHECK(trigger_event IN ('enter_tree', 'enter_explode')),
			plugin_name TEXT NOT NULL,
			action_name TEXT NOT NULL,
			config TEXT NOT NULL DEFAULT '{}',
			enabled INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Settings table - stores application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_transitions_created_at ON transitions(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
