package database

import (
	"testing"

	modelspkg "conduit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistentModels_UsersFirst(t *testing.T) {
	all := PersistentModels()
	require.NotEmpty(t, all)
	_, ok := all[0].(*modelspkg.User)
	assert.True(t, ok, "users must migrate before the tables referencing them")
}

func TestRegisteredMigrations(t *testing.T) {
	ms := GetMigrations()
	require.NotEmpty(t, ms)
	assert.Equal(t, 1, ms[0].Version)
	assert.Equal(t, "000001_init", ms[0].String())
	assert.Contains(t, ms[0].Up, "chk_follows_not_self")
	assert.Contains(t, ms[0].Down, "DROP TABLE IF EXISTS users")

	for i := 1; i < len(ms); i++ {
		assert.Less(t, ms[i-1].Version, ms[i].Version)
	}
	assert.NotNil(t, GetMigrationByVersion(1))
	assert.Nil(t, GetMigrationByVersion(999999))
	assert.Len(t, ms[0].Checksum(), 64)
}
