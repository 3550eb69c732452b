package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.Models()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

// postgresIndexes are partial indexes gorm tags cannot express.
var postgresIndexes = []struct {
	name string
	sql  string
}{
	{
		name: "idx_shift_member_active",
		sql: `CREATE UNIQUE INDEX IF NOT EXISTS idx_shift_member_active
			ON shift_member (shift_id, user_id)
			WHERE removed_at IS NULL;`,
	},
	{
		name: "idx_team_member_active",
		sql: `CREATE UNIQUE INDEX IF NOT EXISTS idx_team_member_active
			ON team_member (team_id, user_id)
			WHERE removed_at IS NULL;`,
	},
	{
		name: "idx_pop_single_draft",
		sql: `CREATE UNIQUE INDEX IF NOT EXISTS idx_pop_single_draft
			ON pop (tenant_id, previous_version_id)
			WHERE status = 'DRAFT' AND previous_version_id IS NOT NULL AND deleted_at IS NULL;`,
	},
	{
		name: "idx_notification_unread",
		sql: `CREATE INDEX IF NOT EXISTS idx_notification_unread
			ON notification (tenant_id, user_id, created_at DESC)
			WHERE read_at IS NULL;`,
	},
	{
		name: "idx_financial_transaction_overdue",
		sql: `CREATE INDEX IF NOT EXISTS idx_financial_transaction_overdue
			ON financial_transaction (tenant_id, due_date)
			WHERE status = 'PENDING' AND deleted_at IS NULL;`,
	},
	{
		name: "idx_resident_name_lower",
		sql: `CREATE INDEX IF NOT EXISTS idx_resident_name_lower
			ON resident (tenant_id, lower(full_name));`,
	},
}

// EnsureIndexes creates the Postgres-only indexes. Other dialects are skipped.
func EnsureIndexes(db *gorm.DB) error {
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	for _, idx := range postgresIndexes {
		if err := db.Exec(idx.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", idx.name, err)
		}
	}
	return nil
}
