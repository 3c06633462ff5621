package store

import "database/sql"

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS config (
			id              INTEGER PRIMARY KEY CHECK (id = 1),
			username        TEXT,
			password        TEXT,
			default_quality INTEGER NOT NULL DEFAULT 0,
			user_token      TEXT,
			app_id          TEXT,
			active_secret   TEXT,
			volume          REAL NOT NULL DEFAULT 1.0
		);

		CREATE TABLE IF NOT EXISTS player_state (
			id             INTEGER PRIMARY KEY CHECK (id = 1),
			tracklist_json TEXT NOT NULL
		);
	`)
	return err
}
