package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"taxnavo/internal/cache"
	"taxnavo/internal/catalog"
	"taxnavo/internal/config"
	"taxnavo/internal/repository"
)

// App holds the storage clients and the repositories and caches built on them
type App struct {
	Mongo *mongo.Client
	Redis *redis.Client
	DB    *mongo.Database

	QuestionnaireRepo repository.QuestionnaireRepo
	UserRepo          repository.UserRepo
	DocumentRepo      repository.DocumentRepo
	QuestionSetRepo   repository.QuestionSetRepo

	AnswerCache cache.AnswerCache
	CursorCache cache.CursorCache

	logger *zap.Logger
}

// New connects to MongoDB and Redis, pings both and ensures indexes
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		mongoClient.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	logger.Info("connected to mongodb", zap.String("db", cfg.MongoDB))

	redisOpts, err := cfg.RedisOptions()
	if err != nil {
		mongoClient.Disconnect(ctx)
		return nil, err
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		mongoClient.Disconnect(ctx)
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	logger.Info("connected to redis", zap.String("addr", redisOpts.Addr), zap.Int("db", redisOpts.DB))

	db := mongoClient.Database(cfg.MongoDB)
	if err := repository.EnsureIndexes(ctx, db); err != nil {
		mongoClient.Disconnect(ctx)
		rdb.Close()
		return nil, err
	}

	return &App{
		Mongo:             mongoClient,
		Redis:             rdb,
		DB:                db,
		QuestionnaireRepo: repository.NewQuestionnaireRepo(db),
		UserRepo:          repository.NewUserRepo(db),
		DocumentRepo:      repository.NewDocumentRepo(db),
		QuestionSetRepo:   repository.NewQuestionSetRepo(db),
		AnswerCache:       cache.NewAnswerCache(rdb),
		CursorCache:       cache.NewCursorCache(rdb),
		logger:            logger,
	}, nil
}

// LoadCatalog builds the question set registry. Embedded sets come first,
// then files from dir, then sets stored in MongoDB; later sources replace
// earlier ones year by year.
func (a *App) LoadCatalog(ctx context.Context, dir string) (*catalog.Registry, error) {
	reg, err := catalog.LoadEmbedded()
	if err != nil {
		return nil, fmt.Errorf("embedded catalog: %w", err)
	}
	if dir != "" {
		if err := reg.LoadDir(dir); err != nil {
			return nil, fmt.Errorf("catalog dir: %w", err)
		}
	}

	stored, err := a.QuestionSetRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("stored question sets: %w", err)
	}
	for _, set := range stored {
		if err := reg.Register(set); err != nil {
			a.logger.Warn("skipping stored question set", zap.Int("year", set.Year), zap.Error(err))
		}
	}

	a.logger.Info("catalog loaded", zap.Ints("years", reg.Years()))
	return reg, nil
}

// Close disconnects from MongoDB and Redis
func (a *App) Close(ctx context.Context) {
	if err := a.Mongo.Disconnect(ctx); err != nil {
		a.logger.Warn("mongodb disconnect", zap.Error(err))
	}
	if err := a.Redis.Close(); err != nil {
		a.logger.Warn("redis close", zap.Error(err))
	}
}
