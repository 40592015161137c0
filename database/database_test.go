package database

import (
	"testing"

	config "github.com/anjiri1684/field_booking/configs"
	"github.com/anjiri1684/field_booking/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectSQLiteMigrateAndSeed(t *testing.T) {
	db, err := Connect(config.Config{DatabaseURL: "sqlite://:memory:"})
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, Migrate(db))
	require.NoError(t, SeedPaymentMethods(db))
	require.NoError(t, SeedPaymentMethods(db))

	var methods []models.PaymentMethod
	require.NoError(t, db.Order("id asc").Find(&methods).Error)
	require.Len(t, methods, len(DefaultPaymentMethods))
	assert.Equal(t, "credit_card", methods[0].MethodName)

	log := logrus.New()
	cfg := config.Config{SuperAdminEmail: "root@example.com", SuperAdminPassword: "secret123", SuperAdminName: "Root"}
	require.NoError(t, SeedSuperAdmin(db, cfg, log))
	require.NoError(t, SeedSuperAdmin(db, cfg, log))

	var admins int64
	db.Model(&models.User{}).Where("user_type = ?", models.RoleSuperAdmin).Count(&admins)
	assert.Equal(t, int64(1), admins)
}

func TestIsSQLiteURL(t *testing.T) {
	path, ok := isSQLiteURL("sqlite://dev.db")
	assert.True(t, ok)
	assert.Equal(t, "dev.db", path)

	_, ok = isSQLiteURL("postgres://localhost/fields")
	assert.False(t, ok)
}
