package database

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dealbridge/dealroom/internal/catalog"
	"github.com/dealbridge/dealroom/internal/models"
)

func TestAutoMigrateAndSeed(t *testing.T) {
	db, err := Open(Config{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)

	require.NoError(t, AutoMigrateAndSeed(db))

	var count int64
	require.NoError(t, db.Model(&models.Requirement{}).Count(&count).Error)
	require.Equal(t, int64(len(catalog.All())), count)

	var annual models.Requirement
	require.NoError(t, db.First(&annual, "id = ?", "finans-arsredovisning").Error)
	require.True(t, annual.Mandatory)
	require.True(t, annual.RequiresSignature)
	require.NotNil(t, annual.MinYears)
	require.Equal(t, 3, *annual.MinYears)
	require.Equal(t, catalog.Version, annual.CatalogVersion)
}

func TestSeedIsIdempotent(t *testing.T) {
	db, err := Open(Config{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	require.NoError(t, SeedRequirementCatalog(db))
	require.NoError(t, SeedRequirementCatalog(db))

	var count int64
	require.NoError(t, db.Model(&models.Requirement{}).Count(&count).Error)
	require.Equal(t, int64(len(catalog.All())), count)
}
