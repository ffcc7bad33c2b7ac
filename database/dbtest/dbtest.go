// Package dbtest opens throwaway sqlite databases with the production schema
// for tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/CUknot/tasksphere_backend/database"
	"github.com/CUknot/tasksphere_backend/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open returns a migrated database backed by a file in t.TempDir().
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "tasksphere.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// sqlite allows one writer; a single connection queues transactions
	// instead of failing them with SQLITE_BUSY.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// CreateUser inserts a user with the given display name.
func CreateUser(t testing.TB, db *gorm.DB, name string) models.User {
	t.Helper()

	user := models.User{
		ExternalID: "ext_" + name,
		Name:       name,
		Email:      name + "@example.com",
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return user
}

// CreateGroup inserts a group with the given members.
func CreateGroup(t testing.TB, db *gorm.DB, name string, members ...models.User) models.Group {
	t.Helper()

	group := models.Group{Name: name, Description: "Group for project: " + name}
	if err := db.Omit("Members").Create(&group).Error; err != nil {
		t.Fatalf("create group %s: %v", name, err)
	}
	for _, m := range members {
		if err := db.Create(&models.GroupMember{GroupID: group.ID, UserID: m.ID}).Error; err != nil {
			t.Fatalf("add member %s: %v", m.Name, err)
		}
	}
	return group
}
