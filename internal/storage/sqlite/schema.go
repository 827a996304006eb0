package sqlite

const schema = `
CREATE TABLE IF NOT EXISTS players (
	id           TEXT PRIMARY KEY,
	display_name TEXT NOT NULL,
	is_guest     INTEGER NOT NULL,
	created_at   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS registered_players (
	player_id     TEXT PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    INTEGER NOT NULL,
	updated_at    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
	id               TEXT PRIMARY KEY,
	player_id        TEXT NOT NULL,
	state            TEXT NOT NULL,
	difficulty       TEXT NOT NULL,
	human_mark       TEXT NOT NULL,
	first_mover      TEXT NOT NULL,
	board            TEXT NOT NULL,
	points           INTEGER NOT NULL,
	consecutive_wins INTEGER NOT NULL,
	wins             INTEGER NOT NULL,
	losses           INTEGER NOT NULL,
	draws            INTEGER NOT NULL,
	rounds           INTEGER NOT NULL,
	created_at       INTEGER NOT NULL,
	updated_at       INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_player_id ON sessions (player_id);

CREATE TABLE IF NOT EXISTS revoked_tokens (
	token_id   TEXT PRIMARY KEY,
	expires_at INTEGER NOT NULL
);
`
