package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"taxnavo/internal/catalog"
	"taxnavo/internal/logging"
	"taxnavo/internal/service"
)

var (
	year       int
	answerFile string
	catalogDir string
	restart    bool
)

var rootCmd = &cobra.Command{
	Use:   "intake",
	Short: "Answer a tax year's questionnaire in the terminal",
	Long: `Intake runs one year's questionnaire interactively. Answers are saved
to a local JSON file after every answer, so an interrupted run resumes where
it stopped.

Examples:
  # Continue the newest year
  intake

  # Start 2023 over from the first question
  intake --year 2023 --restart
`,
	RunE: runIntake,
}

var yearsCmd = &cobra.Command{
	Use:   "years",
	Short: "List the tax years that have a questionnaire",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadCatalog()
		if err != nil {
			return err
		}
		for _, y := range reg.Years() {
			set, _ := reg.Get(y)
			fmt.Fprintf(cmd.OutOrStdout(), "%d  %s (%d questions)\n", y, set.Title, len(set.Questions))
		}
		return nil
	},
}

func init() {
	home, _ := os.UserHomeDir()
	rootCmd.Flags().IntVar(&year, "year", 0, "tax year (default newest)")
	rootCmd.Flags().BoolVar(&restart, "restart", false, "start from the first question, keeping saved answers")
	rootCmd.PersistentFlags().StringVar(&answerFile, "file", filepath.Join(home, ".taxnavo", "answers.json"), "answer file")
	rootCmd.PersistentFlags().StringVar(&catalogDir, "catalog-dir", "", "directory of *.yaml question sets overriding the built-in ones")
	rootCmd.AddCommand(yearsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadCatalog() (*catalog.Registry, error) {
	reg, err := catalog.LoadEmbedded()
	if err != nil {
		return nil, err
	}
	if catalogDir != "" {
		if err := reg.LoadDir(catalogDir); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func runIntake(cmd *cobra.Command, args []string) error {
	logger, err := logging.New("warn", "console")
	if err != nil {
		return err
	}
	defer logger.Sync()

	reg, err := loadCatalog()
	if err != nil {
		return err
	}
	if year == 0 {
		year = reg.Years()[0]
	}

	store := newFileStore(answerFile)
	saver := service.NewSaver(store, 1, 5*time.Second, logger)
	svc := service.NewQuestionnaireService(reg, store, nil, saver, time.Hour, logger)
	defer func() {
		svc.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		saver.Close(ctx)
	}()

	set, err := reg.Get(year)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n\n", set.Title)

	r := &runner{svc: svc, prompt: huhPrompter{}, out: cmd.OutOrStdout()}
	return r.run(cmd.Context(), year, restart)
}
