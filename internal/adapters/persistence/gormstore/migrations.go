package gormstore

import (
	"fmt"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// Migrate brings the schema up to date. Applied migration ids are kept in
// the gormigrate migrations table.
func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "20240101_create_catalog",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&outletRecord{}, &workflowRecord{}, &quoteTypeRecord{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&quoteTypeRecord{}, &workflowRecord{}, &outletRecord{})
			},
		},
		{
			ID: "20240101_create_quotes",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&quoteRecord{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&quoteRecord{})
			},
		},
		{
			ID: "20240108_create_quote_transitions",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&transitionRecord{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&transitionRecord{})
			},
		},
		{
			ID: "20240115_create_accounts",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&accountRecord{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&accountRecord{})
			},
		},
	})

	if err := m.Migrate(); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}

	return nil
}
