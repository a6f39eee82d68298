// Database access for the playground server.
package db

import (
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open opens (creating if needed) the sqlite database at path.
// Use ":memory:" for tests.
func Open(path string) (*gorm.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, errors.Wrapf(err, "create database dir for %s", path)
		}
	}

	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open database %s", path)
	}
	return gdb, nil
}

// AutoMigrate creates or updates all playground tables.
func AutoMigrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&Thread{},
		&Message{},
		&Report{},
		&Section{},
		&Entity{},
		&EntityMention{},
	)
}
