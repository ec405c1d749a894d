package stores

import (
	"context"

	"github.com/neti77/anotequest-v1-sub000/config"
	"github.com/neti77/anotequest-v1-sub000/core"
	"github.com/neti77/anotequest-v1-sub000/stores/aws"
	"github.com/neti77/anotequest-v1-sub000/stores/filesystem"
	"github.com/neti77/anotequest-v1-sub000/stores/memory"
	"github.com/neti77/anotequest-v1-sub000/stores/postgres"
	redisstore "github.com/neti77/anotequest-v1-sub000/stores/redis"
	"github.com/neti77/anotequest-v1-sub000/stores/sqlite"
	"github.com/sirupsen/logrus"
)

// ErrNotFound is wrapped by every store when a collection is absent.
var ErrNotFound = core.ErrNotFound

// Store persists the collections of many boards.
type Store interface {
	LoadCollection(ctx context.Context, boardID, key string) ([]byte, error)
	SaveCollection(ctx context.Context, boardID, key string, data []byte) error
	ListCollections(ctx context.Context, boardID string) ([]string, error)
}

func GetStore(cfg config.StorageConfig) Store {
	var store Store

	storageField := logrus.Fields{
		"storageType": cfg.Type,
	}

	switch cfg.Type {
	case "filesystem":
		storageField["basePath"] = cfg.LocalPath
		store = filesystem.NewStore(cfg.LocalPath)
	case "sqlite":
		storageField["dataSourceName"] = cfg.DataSourceName
		store = sqlite.NewStore(cfg.DataSourceName)
	case "s3":
		if cfg.S3Bucket == "" {
			logrus.Fatal("S3_BUCKET_NAME environment variable must be set for s3 storage type")
		}
		storageField["bucketName"] = cfg.S3Bucket
		store = aws.NewStore(cfg.S3Bucket)
	case "postgres":
		pg := cfg.Postgres
		storageField["host"] = pg.Host
		storageField["dbName"] = pg.DBName
		store = postgres.NewStore(postgres.Config{
			Host:     pg.Host,
			Port:     pg.Port,
			User:     pg.User,
			Password: pg.Password,
			DBName:   pg.DBName,
			SSLMode:  pg.SSLMode,
			TimeZone: pg.TimeZone,
		})
	case "redis":
		storageField["addr"] = cfg.Redis.Addr
		store = redisstore.NewStore(cfg.Redis.Addr, cfg.Redis.Password)
	default:
		store = memory.NewStore()
		storageField["storageType"] = "in-memory"
	}
	logrus.WithFields(storageField).Info("Use storage")
	return store
}

// BoardStore narrows a Store to the collections of one board.
type BoardStore struct {
	store   Store
	boardID string
}

func ForBoard(s Store, boardID string) *BoardStore {
	return &BoardStore{store: s, boardID: boardID}
}

func (b *BoardStore) BoardID() string { return b.boardID }

func (b *BoardStore) Load(ctx context.Context, key string) ([]byte, error) {
	return b.store.LoadCollection(ctx, b.boardID, key)
}

func (b *BoardStore) Save(ctx context.Context, key string, data []byte) error {
	return b.store.SaveCollection(ctx, b.boardID, key, data)
}

func (b *BoardStore) Keys(ctx context.Context) ([]string, error) {
	return b.store.ListCollections(ctx, b.boardID)
}
