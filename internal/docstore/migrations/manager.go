package migrations

import (
	"context"
	"fmt"

	"newsmarker/internal/core"
)

// Manager applies the docstore schema migrations
type Manager struct {
	migrationService *core.MigrationService
	logger           *core.Logger
}

// NewManager creates a new docstore migration manager
func NewManager(db *core.Database, logger *core.Logger) *Manager {
	return &Manager{
		migrationService: core.NewMigrationService(db, logger),
		logger:           logger,
	}
}

// Migrations returns all docstore migrations in order
func (m *Manager) Migrations() []core.Migration {
	return []core.Migration{
		Migration001CreateDocumentsTable,
	}
}

// Migrate applies all pending migrations
func (m *Manager) Migrate(ctx context.Context) error {
	if err := m.migrationService.InitMigrations(ctx); err != nil {
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}

	migrations := m.Migrations()
	m.logger.Info("Starting docstore migrations", "count", len(migrations))

	for _, migration := range migrations {
		if err := m.migrationService.ApplyMigration(ctx, migration); err != nil {
			return fmt.Errorf("failed to apply migration %d (%s): %w", migration.Version, migration.Name, err)
		}
	}

	m.logger.Info("Docstore migrations completed successfully")
	return nil
}

// Rollback rolls back the most recently applied docstore migration
func (m *Manager) Rollback(ctx context.Context) error {
	if err := m.migrationService.InitMigrations(ctx); err != nil {
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}

	applied, err := m.migrationService.GetAppliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	known := make(map[int]core.Migration)
	for _, migration := range m.Migrations() {
		known[migration.Version] = migration
	}

	var lastApplied *core.Migration
	for _, migration := range applied {
		if candidate, ok := known[migration.Version]; ok {
			lastApplied = &candidate
		}
	}

	if lastApplied == nil {
		return fmt.Errorf("no docstore migrations have been applied")
	}

	if err := m.migrationService.RollbackMigration(ctx, *lastApplied); err != nil {
		return fmt.Errorf("failed to rollback migration %d (%s): %w", lastApplied.Version, lastApplied.Name, err)
	}

	m.logger.Info("Rolled back docstore migration", "version", lastApplied.Version, "name", lastApplied.Name)
	return nil
}

// Status returns the current migration status
func (m *Manager) Status(ctx context.Context) (*core.MigrationStatus, error) {
	return m.migrationService.GetMigrationStatus(ctx)
}

// GetPendingMigrations returns migrations that haven't been applied yet
func (m *Manager) GetPendingMigrations(ctx context.Context) ([]core.Migration, error) {
	if err := m.migrationService.InitMigrations(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize migrations: %w", err)
	}

	applied, err := m.migrationService.GetAppliedMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}

	appliedVersions := make(map[int]bool)
	for _, migration := range applied {
		appliedVersions[migration.Version] = true
	}

	var pending []core.Migration
	for _, migration := range m.Migrations() {
		if !appliedVersions[migration.Version] {
			pending = append(pending, migration)
		}
	}

	return pending, nil
}
