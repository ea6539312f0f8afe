// Package repositories implements SQLite persistence for the audit log.
//
// [EventRepository] appends [models.Event] records and reads them back newest first.
// The schema is created by the embedded migrations in the shared package.
package repositories
