package database_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/tasktag-api/internal/config"
	"github.com/yukikurage/tasktag-api/internal/database"
	"github.com/yukikurage/tasktag-api/internal/models"
	"github.com/yukikurage/tasktag-api/internal/testutil"
)

func TestMigrateDatabase_Idempotent(t *testing.T) {
	db := testutil.NewDB(t)

	require.NoError(t, database.MigrateDatabase(db))
	require.NoError(t, database.MigrateDatabase(db))

	assert.True(t, db.Migrator().HasIndex("tasks", "idx_tasks_user_created_at"))
	assert.True(t, db.Migrator().HasIndex("task_tags", "idx_task_tags_task_position"))
	assert.True(t, db.Migrator().HasTable(&models.TaskTag{}))
}

func TestDialector(t *testing.T) {
	for _, driver := range []string{"mysql", "postgres", "sqlite"} {
		dialector, err := database.Dialector(&config.Config{DBDriver: driver, SQLitePath: "test.db"})
		require.NoError(t, err, driver)
		assert.Equal(t, driver, dialector.Name())
	}

	_, err := database.Dialector(&config.Config{DBDriver: "oracle"})
	assert.Error(t, err)
}
