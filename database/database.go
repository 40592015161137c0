package database

import (
	"errors"
	"fmt"
	"time"

	config "github.com/anjiri1684/field_booking/configs"
	"github.com/anjiri1684/field_booking/models"
	"github.com/anjiri1684/field_booking/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DefaultPaymentMethods = []string{"credit_card", "bank_transfer", "cash", "e_wallet"}

// Connect opens the process-wide connection pool. The caller owns it and
// must release it with Close on shutdown.
func Connect(cfg config.Config) (*gorm.DB, error) {
	if path, ok := isSQLiteURL(cfg.DatabaseURL); ok {
		return OpenSQLite(path)
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		PrepareStmt:            false,
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 logger.Default.LogMode(logger.Warn),
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpen)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdle)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Close drains and closes the pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Field{},
		&models.FieldImage{},
		&models.Booking{},
		&models.PaymentMethod{},
		&models.Payment{},
		&models.LoyaltyPoint{},
		&models.LoyaltyProgram{},
		&models.Redemption{},
		&models.Notification{},
	)
}

func SeedPaymentMethods(db *gorm.DB) error {
	for _, name := range DefaultPaymentMethods {
		method := models.PaymentMethod{MethodName: name, IsActive: true}
		if err := db.Where(models.PaymentMethod{MethodName: name}).FirstOrCreate(&method).Error; err != nil {
			return fmt.Errorf("seed payment method %s: %w", name, err)
		}
	}
	return nil
}

func SeedSuperAdmin(db *gorm.DB, cfg config.Config, log *logrus.Logger) error {
	if cfg.SuperAdminEmail == "" || cfg.SuperAdminPassword == "" {
		log.Warn("⚠️ SUPER_ADMIN_EMAIL/SUPER_ADMIN_PASSWORD not set, skipping super admin seed")
		return nil
	}

	var existing models.User
	err := db.Where("email = ?", cfg.SuperAdminEmail).First(&existing).Error
	if err == nil {
		log.Info("Super admin already exists.")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("check for super admin: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(cfg.SuperAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash super admin password: %w", err)
	}

	admin := models.User{
		ID:          utils.NewID(utils.KindUser),
		Username:    "superadmin",
		Email:       cfg.SuperAdminEmail,
		Password:    string(hashedPassword),
		FullName:    cfg.SuperAdminName,
		PhoneNumber: "-",
		UserType:    models.RoleSuperAdmin,
		IsActive:    true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("create super admin: %w", err)
	}

	log.Info("✅ Super admin seeded successfully")
	return nil
}
