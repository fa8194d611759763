// internal/database/connection.go
package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/javajoker/jewelry-backend/internal/config"
	"github.com/javajoker/jewelry-backend/internal/models"
)

var DB *gorm.DB

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var err error
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
	}

	switch cfg.Driver {
	case "sqlite":
		DB, err = gorm.Open(sqlite.Open(cfg.SQLitePath), gormConfig)
	default:
		DB, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.WithField("driver", cfg.Driver).Info("Database connection established")
	return DB, nil
}

// OpenInMemory opens a private shared-cache sqlite database. name keeps
// parallel callers apart.
func OpenInMemory(name string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// One connection serializes writers; sqlite shared cache rejects
	// concurrent writes with SQLITE_LOCKED instead of waiting.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Error("Error getting underlying sql.DB")
		return
	}

	if err := sqlDB.Close(); err != nil {
		logrus.WithError(err).Error("Error closing database connection")
	} else {
		logrus.Info("Database connection closed")
	}
}

// Migrate creates or updates every table. It is portable across postgres
// and sqlite.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Metal{},
		&models.Gemstone{},
		&models.Product{},
		&models.PriceHistory{},
		&models.RecalculationRun{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func RunMigrations(db *gorm.DB) error {
	logrus.Info("Running database migrations...")

	if err := Migrate(db); err != nil {
		return err
	}

	if db.Dialector.Name() == "postgres" {
		createIndexes(db)
	}

	logrus.Info("Database migrations completed")
	return nil
}

func createIndexes(db *gorm.DB) {
	indexes := []string{
		// Product indexes
		"CREATE INDEX IF NOT EXISTS idx_products_category_status ON products(category, status)",
		"CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_products_metal_composition ON products USING GIN(metal_composition jsonb_path_ops)",
		"CREATE INDEX IF NOT EXISTS idx_products_gemstone_composition ON products USING GIN(gemstone_composition jsonb_path_ops)",
		"CREATE INDEX IF NOT EXISTS idx_products_search ON products USING GIN(to_tsvector('english', name || ' ' || description))",

		// Pricing history
		"CREATE INDEX IF NOT EXISTS idx_price_histories_product_created ON price_histories(product_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_recalculation_runs_created ON recalculation_runs(created_at DESC)",

		// Admin indexes
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_user_action ON audit_logs(user_id, action)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_resource ON audit_logs(resource_type, resource_id)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_created ON audit_logs(created_at DESC)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			// Continue with other indexes instead of failing completely
			logrus.WithError(err).WithField("statement", index).Warn("Failed to create index")
		}
	}
}

// SeedInitialData creates the default admin account and a starter material
// catalog when the tables are empty.
func SeedInitialData(db *gorm.DB) error {
	logrus.Info("Seeding initial data...")

	var adminCount int64
	db.Model(&models.User{}).Where("role = ?", models.UserRoleAdmin).Count(&adminCount)

	if adminCount == 0 {
		admin := &models.User{
			Username: "admin",
			Email:    "admin@jewelry.local",
			Role:     models.UserRoleAdmin,
			Status:   models.UserStatusActive,
		}

		if err := admin.SetPassword("admin123!@#"); err != nil {
			return fmt.Errorf("failed to set admin password: %w", err)
		}

		if err := db.Create(admin).Error; err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}

		logrus.Info("Default admin user created")
	}

	var metalCount int64
	db.Model(&models.Metal{}).Count(&metalCount)
	if metalCount == 0 {
		for _, metal := range defaultMetals() {
			metal := metal
			if err := db.Create(&metal).Error; err != nil {
				logrus.WithError(err).WithField("metal", metal.Name).Warn("Failed to seed metal")
			}
		}
	}

	var gemstoneCount int64
	db.Model(&models.Gemstone{}).Count(&gemstoneCount)
	if gemstoneCount == 0 {
		for _, gemstone := range defaultGemstones() {
			gemstone := gemstone
			if err := db.Create(&gemstone).Error; err != nil {
				logrus.WithError(err).WithField("gemstone", gemstone.Name).Warn("Failed to seed gemstone")
			}
		}
	}

	logrus.Info("Initial data seeding completed")
	return nil
}

func defaultMetals() []models.Metal {
	return []models.Metal{
		{
			Name:        "Gold",
			Description: "Hallmarked gold",
			Variants: []models.MetalVariant{
				{ID: uuid.New(), Name: "24K", PricePerGram: 7520, IsActive: true},
				{ID: uuid.New(), Name: "22K", PricePerGram: 6900, IsActive: true},
				{ID: uuid.New(), Name: "18K", PricePerGram: 5640, IsActive: true},
			},
			DefaultWastagePercentage: 3,
			DefaultMakingCharges:     12,
			DefaultMakingChargeType:  models.MakingChargePercentage,
			IsActive:                 true,
		},
		{
			Name:        "Silver",
			Description: "Sterling and fine silver",
			Variants: []models.MetalVariant{
				{ID: uuid.New(), Name: "999 Fine", PricePerGram: 92, IsActive: true},
				{ID: uuid.New(), Name: "925 Sterling", PricePerGram: 85, IsActive: true},
			},
			DefaultWastagePercentage: 2,
			DefaultMakingCharges:     250,
			DefaultMakingChargeType:  models.MakingChargeFlat,
			IsActive:                 true,
		},
		{
			Name:        "Platinum",
			Description: "Pt 950",
			Variants: []models.MetalVariant{
				{ID: uuid.New(), Name: "PT950", PricePerGram: 3150, IsActive: true},
			},
			DefaultWastagePercentage: 4,
			DefaultMakingCharges:     15,
			DefaultMakingChargeType:  models.MakingChargePercentage,
			IsActive:                 true,
		},
	}
}

func defaultGemstones() []models.Gemstone {
	return []models.Gemstone{
		{
			Name: "Diamond",
			Type: models.GemstoneTypeDiamond,
			Variants: []models.GemstoneVariant{
				{ID: uuid.New(), Name: "VVS1 / EF", PricePerCarat: 85000, IsActive: true},
				{ID: uuid.New(), Name: "VS1 / GH", PricePerCarat: 50000, IsActive: true},
				{ID: uuid.New(), Name: "SI1 / IJ", PricePerCarat: 32000, IsActive: true},
			},
			IsActive: true,
		},
		{
			Name: "Ruby",
			Type: models.GemstoneTypePrecious,
			Variants: []models.GemstoneVariant{
				{ID: uuid.New(), Name: "Burmese", PricePerCarat: 45000, IsActive: true},
				{ID: uuid.New(), Name: "Mozambique", PricePerCarat: 18000, IsActive: true},
			},
			IsActive: true,
		},
		{
			Name: "Pearl",
			Type: models.GemstoneTypeOrganic,
			Variants: []models.GemstoneVariant{
				{ID: uuid.New(), Name: "South Sea", PricePerCarat: 1200, IsActive: true},
			},
			IsActive: true,
		},
	}
}

// Transaction helper
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
