/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

// schemaStatements run in order on every open; each is idempotent
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS calls (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		sender TEXT NOT NULL,
		amount TEXT NOT NULL DEFAULT '0',
		status TEXT NOT NULL,
		digest TEXT NOT NULL DEFAULT '',
		tier_label TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		confirmed_at TIMESTAMP,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_calls_created_at ON calls(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_calls_sender ON calls(sender, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_calls_digest ON calls(digest)`,
}

const (
	// Call queries
	queryUpsertCall = `
		INSERT INTO calls (id, kind, sender, amount, status, digest, tier_label, error, created_at, confirmed_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			digest = excluded.digest,
			tier_label = excluded.tier_label,
			error = excluded.error,
			confirmed_at = excluded.confirmed_at,
			updated_at = excluded.updated_at
		WHERE calls.status NOT IN ('confirmed', 'failed')`

	queryGetCall = `
		SELECT id, kind, sender, amount, status, digest, tier_label, error, created_at, confirmed_at, updated_at
		FROM calls
		WHERE id = ?`

	queryRecentCalls = `
		SELECT id, kind, sender, amount, status, digest, tier_label, error, created_at, confirmed_at, updated_at
		FROM calls
		WHERE (? = '' OR kind = ?) AND (? = '' OR sender = ?)
		ORDER BY created_at DESC
		LIMIT ?`
)
