package models

import (
	"fmt"

	"github.com/helitech/journal_backend/config"
)

// MigrateTable creates or updates the store schema. A failure here is fatal
// for the run (SchemaMismatch class).
func MigrateTable() error {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Company{}, &AccountBook{}, &AccountSubject{},
		&Voucher{}, &VoucherDetail{}, &AuxiliaryItem{},
		&Project{}, &SupplierCustomer{},
		&BalanceAdjustment{},
	)
	if err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// DropAllTables removes the whole store schema. Used by the load command's
// reset flag; the only supported way to re-load a source already present.
// Drop order respects foreign keys.
func DropAllTables() error {
	db := config.GetDB()

	tables := []interface{}{
		&BalanceAdjustment{},
		&AuxiliaryItem{},
		&VoucherDetail{},
		&Voucher{},
		&Project{},
		&SupplierCustomer{},
		&AccountSubject{},
		&AccountBook{},
		&Company{},
	}
	for _, t := range tables {
		if err := db.Migrator().DropTable(t); err != nil {
			return fmt.Errorf("drop table %T: %w", t, err)
		}
	}
	return nil
}
