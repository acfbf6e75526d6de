package db

import (
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// OpenMemory opens a named in-memory sqlite database and migrates the given
// models into it. Connections sharing a name share the same database.
func OpenMemory(name string, models ...any) (*Client, error) {
	name = strings.NewReplacer("/", "_", " ", "_").Replace(name)
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), gormConfig(silentLogger()))
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	if len(models) > 0 {
		if err := conn.AutoMigrate(models...); err != nil {
			return nil, fmt.Errorf("migrating sqlite: %w", err)
		}
	}
	return &Client{conn: conn}, nil
}
