package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"taxnavo/internal/catalog"
	"taxnavo/internal/config"
	"taxnavo/internal/logging"
	"taxnavo/internal/repository"
	"taxnavo/internal/service"
)

var (
	catalogDir   string
	demoEmail    string
	demoPassword string
)

var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed question sets and a demo user into MongoDB",
	Long: `Seed writes the question sets and a demo account into the database
configured by MONGO_URI and MONGO_DB.

Examples:
  # Seed everything
  seed

  # Only the question sets, read from a directory of YAML files
  seed questions --catalog-dir ./catalog
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
			if err := seedQuestions(ctx, db, logger); err != nil {
				return err
			}
			return seedUser(ctx, db, logger)
		})
	},
}

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Upsert the question set of every catalog year",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), seedQuestions)
	},
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Create the demo account",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), seedUser)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&catalogDir, "catalog-dir", "", "directory of *.yaml question sets to seed instead of the embedded ones")
	rootCmd.PersistentFlags().StringVar(&demoEmail, "email", "client@example.com", "demo account email")
	rootCmd.PersistentFlags().StringVar(&demoPassword, "password", "password123", "demo account password")
	rootCmd.AddCommand(questionsCmd, userCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func withDB(ctx context.Context, fn func(context.Context, *mongo.Database, *zap.Logger) error) error {
	cfg := config.Load()
	logger, err := logging.New(cfg.LogLevel, "console")
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return fmt.Errorf("connect mongodb: %w", err)
	}
	defer client.Disconnect(context.Background())

	db := client.Database(cfg.MongoDB)
	if err := repository.EnsureIndexes(ctx, db); err != nil {
		return err
	}
	return fn(ctx, db, logger)
}

func seedQuestions(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	reg, err := catalog.LoadEmbedded()
	if err != nil {
		return err
	}
	if catalogDir != "" {
		if err := reg.LoadDir(catalogDir); err != nil {
			return err
		}
	}

	repo := repository.NewQuestionSetRepo(db)
	for _, year := range reg.Years() {
		set, err := reg.Get(year)
		if err != nil {
			return err
		}
		if err := repo.Upsert(ctx, set); err != nil {
			return fmt.Errorf("upsert %d: %w", year, err)
		}
		logger.Info("question set seeded", zap.Int("year", year), zap.Int("questions", len(set.Questions)))
	}
	return nil
}

func seedUser(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	cfg := config.Load()
	store := service.NewAnswerStore(repository.NewQuestionnaireRepo(db), nil, logger)
	auth := service.NewAuthService(repository.NewUserRepo(db), store, service.AuthConfig{
		JWTSecret:  cfg.JWTSecret,
		TokenTTL:   cfg.TokenTTL,
		SignupYear: cfg.SignupYear,
	}, logger)

	resp, err := auth.Signup(ctx, demoEmail, demoPassword, "Demo Client")
	if errors.Is(err, service.ErrEmailTaken) {
		logger.Info("demo user already exists", zap.String("email", demoEmail))
		return nil
	}
	if err != nil {
		return err
	}
	logger.Info("demo user created", zap.String("email", resp.Email), zap.String("user_id", resp.UserID))
	return nil
}
