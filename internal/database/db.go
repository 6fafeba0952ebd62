package database

import (
	"log"

	"carpetcare/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	// TranslateError surfaces unique-index violations as gorm.ErrDuplicatedKey,
	// which the services rely on to retry number allocation.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Order{},
		&model.OrderStatusHistory{},
		&model.Carpet{},
		&model.CarpetType{},
		&model.AddonService{},
		&model.CarpetAddonService{},
		&model.TaxSetting{},
		&model.Invoice{},
		&model.InvoiceItem{},
		&model.InvoiceSequence{},
		&model.Payment{},
		&model.Agent{},
		&model.CommissionType{},
		&model.AgentCommissionType{},
		&model.Commission{},
		&model.AuditLog{},
	)
	if err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}
