// Package postgres stores accounts in Postgres through gorm.
//
// Statuses and multifactor kinds live in small enum tables referenced by
// id. [SyncEnums] inserts any supported value missing from those tables at
// startup and returns [Lookups], an immutable value/id table that is handed
// to [NewUserRepository]. Nothing here keeps process-wide state.
package postgres
