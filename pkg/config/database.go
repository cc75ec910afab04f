package config

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/anonto42/vidspace/backend/internal/blobstore"
	"github.com/anonto42/vidspace/backend/internal/docstore"
	"github.com/anonto42/vidspace/backend/internal/session"
	"github.com/anonto42/vidspace/backend/pkg/firebase"
	"github.com/anonto42/vidspace/backend/pkg/logging"
)

// OpenStore connects the configured document store backend
func OpenStore(ctx context.Context, cfg *Config) (docstore.Store, error) {
	switch cfg.StoreBackend {
	case "memory":
		logging.Warn().Msg("using in-memory document store, data is lost on exit")
		return docstore.NewMemoryStore(), nil
	case "file":
		store, err := docstore.OpenFileStore(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open file store: %w", err)
		}
		logging.Info().Str("dir", cfg.DataDir).Msg("file document store opened")
		return store, nil
	case "mongo":
		client, err := initMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		return docstore.NewMongoStore(client.Database(cfg.MongoDatabase)), nil
	case "postgres":
		db, err := initPostgres(cfg.PostgresUrl)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		store, err := docstore.NewPostgresStore(db)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// OpenMedia builds the configured blob store
func OpenMedia(ctx context.Context, cfg *Config) (blobstore.Store, error) {
	switch cfg.MediaBackend {
	case "inline":
		return blobstore.NewInlineStore(), nil
	case "minio":
		store, err := blobstore.NewMinioStore(ctx, blobstore.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			PublicURL: cfg.MinioPublicURL,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	case "firebase":
		app, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath, cfg.FirebaseBucket)
		if err != nil {
			return nil, err
		}
		return blobstore.NewFirebaseStore(app.Bucket, app.BucketName), nil
	default:
		return nil, fmt.Errorf("unknown media backend %q", cfg.MediaBackend)
	}
}

// OpenSessions builds the configured session store
func OpenSessions(ctx context.Context, cfg *Config) (session.Store, error) {
	switch cfg.SessionBackend {
	case "memory":
		return session.NewMemoryStore(), nil
	case "redis":
		store, err := session.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		logging.Info().Str("addr", cfg.RedisAddr).Msg("redis session store connected")
		return store, nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
	}
}

// initPostgres initializes the PostgreSQL database connection using GORM
func initPostgres(connStr string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(connStr), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	// Ping the database to verify connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err = sqlDB.Ping(); err != nil {
		return nil, err
	}

	logging.Info().Msg("Successfully connected to PostgreSQL!")
	return db, nil
}

// initMongo initializes the MongoDB connection
func initMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(uri)
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	// Ping the primary to verify connection
	if err = client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	logging.Info().Msg("Successfully connected to MongoDB!")
	return client, nil
}
