package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DefaultDBFile is the settings database created next to the binary when no
// explicit path is configured.
const DefaultDBFile = "trackstitch.sqlite3"

// Well-known setting keys.
const (
	KeyFFmpegPath      = "ffmpeg_path"
	KeyLastUpdateCheck = "last_update_check_ts"
)

// Setting is one persisted key/value pair.
type Setting struct {
	Key       string `gorm:"primaryKey;type:varchar(64)"`
	Value     string
	UpdatedAt time.Time
}

// Store is the persisted settings collaborator: a small sqlite-backed
// key/value table whose contents survive restarts.
type Store struct {
	DB *gorm.DB
	db *sql.DB
}

// Open opens (creating if needed) the settings database at dbPath.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil && !os.IsExist(err) {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}
	db, err := gorm.Open(sqlite.Open(dbPath), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&Setting{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &Store{DB: db, db: sqlDB}, nil
}

// Get returns the value for key and whether it was present.
func (s *Store) Get(key string) (string, bool, error) {
	if s == nil || s.DB == nil {
		return "", false, errors.New("settings store is nil")
	}
	var row Setting
	err := s.DB.First(&row, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading setting %s: %w", key, err)
	}
	return row.Value, true, nil
}

// Set writes (or overwrites) the value for key.
func (s *Store) Set(key, value string) error {
	if s == nil || s.DB == nil {
		return errors.New("settings store is nil")
	}
	row := Setting{Key: key, Value: value, UpdatedAt: time.Now()}
	if err := s.DB.Save(&row).Error; err != nil {
		return fmt.Errorf("writing setting %s: %w", key, err)
	}
	return nil
}

// GetInt64 reads key as an integer, returning 0 when absent or malformed.
func (s *Store) GetInt64(key string) (int64, error) {
	val, ok, err := s.Get(key)
	if err != nil || !ok {
		return 0, err
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// SetInt64 writes key as a decimal integer.
func (s *Store) SetInt64(key string, value int64) error {
	return s.Set(key, strconv.FormatInt(value, 10))
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
