package database

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL,
	password_hash TEXT,
	date_of_birth DATE,
	auth_provider TEXT NOT NULL DEFAULT 'local',
	google_id TEXT,
	is_verified BOOLEAN NOT NULL DEFAULT FALSE,
	otp_code TEXT,
	otp_expires_at TIMESTAMPTZ,
	otp_attempts INTEGER,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS users_email_idx ON users (LOWER(email));
CREATE UNIQUE INDEX IF NOT EXISTS users_google_id_idx ON users (google_id) WHERE google_id IS NOT NULL;

CREATE TABLE IF NOT EXISTS notes (
	id UUID PRIMARY KEY,
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS notes_user_created_idx ON notes (user_id, created_at DESC);
`
