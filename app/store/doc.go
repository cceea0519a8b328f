// Package store provides queue backends, durable FIFO message stores keyed by queue name.
// Implementations: SQL (SQLite and PostgreSQL via sqlx), Redis lists and in-memory.
// Read removes and returns the oldest message atomically, so a message is handed to a single reader.
package store
