package store

// MigrationHistory records a schema version that has been applied.
type MigrationHistory struct {
	Version   string
	CreatedTs int64
}
