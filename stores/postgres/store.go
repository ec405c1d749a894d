package postgres

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/neti77/anotequest-v1-sub000/core"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Collection is one persisted board collection.
type Collection struct {
	BoardID   string         `gorm:"primaryKey;size:128" json:"board_id"`
	Key       string         `gorm:"primaryKey;size:64" json:"key"`
	Data      datatypes.JSON `gorm:"type:jsonb;not null" json:"data"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (Collection) TableName() string { return "board_collections" }

// Config holds the connection settings of the postgres store.
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	TimeZone string
}

// DSN renders the libpq connection string.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode, c.TimeZone,
	)
}

type pgStore struct {
	db *gorm.DB
}

// NewStore connects to postgres and migrates the collections table.
func NewStore(cfg Config) *pgStore {
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{Logger: gormLogger})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to get underlying sql.DB: %v", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := db.AutoMigrate(&Collection{}); err != nil {
		log.Fatalf("failed to migrate collections table: %v", err)
	}
	return &pgStore{db: db}
}

func (s *pgStore) LoadCollection(ctx context.Context, boardID, key string) ([]byte, error) {
	log := logrus.WithFields(logrus.Fields{"board_id": boardID, "key": key})
	var c Collection
	err := s.db.WithContext(ctx).
		Where("board_id = ? AND key = ?", boardID, key).
		Take(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Debug("Collection not found")
			return nil, fmt.Errorf("collection %s of board %s: %w", key, boardID, core.ErrNotFound)
		}
		log.WithError(err).Error("Failed to retrieve collection")
		return nil, err
	}
	return []byte(c.Data), nil
}

func (s *pgStore) SaveCollection(ctx context.Context, boardID, key string, data []byte) error {
	if boardID == "" || key == "" {
		return fmt.Errorf("board id and key cannot be empty")
	}
	c := Collection{BoardID: boardID, Key: key, Data: datatypes.JSON(data)}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "board_id"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&c).Error
	if err != nil {
		logrus.WithFields(logrus.Fields{"board_id": boardID, "key": key}).WithError(err).Error("Failed to save collection")
		return err
	}
	return nil
}

func (s *pgStore) ListCollections(ctx context.Context, boardID string) ([]string, error) {
	var keys []string
	err := s.db.WithContext(ctx).Model(&Collection{}).
		Where("board_id = ?", boardID).
		Pluck("key", &keys).Error
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	if keys == nil {
		keys = []string{}
	}
	return keys, nil
}
