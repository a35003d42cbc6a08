package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/adapter/repo"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/adapter/repo/sqlite"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/domain"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/infra"
)

type slotFlags []string

func (s *slotFlags) String() string { return strings.Join(*s, ",") }

func (s *slotFlags) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func main() {
	_ = godotenv.Load()

	var (
		driverFlag string
		dsnFlag    string
		titleFlag  string
		promptFlag string
		inactive   bool
		slotsFlag  slotFlags
	)
	flag.StringVar(&driverFlag, "driver", os.Getenv("DATABASE_DRIVER"), "database driver (postgres or sqlite3)")
	flag.StringVar(&dsnFlag, "dsn", os.Getenv("DATABASE_URL"), "database url or sqlite file")
	flag.StringVar(&titleFlag, "title", "", "title of a prompt to create after migrating")
	flag.StringVar(&promptFlag, "prompt", "", "text of a prompt to create after migrating")
	flag.BoolVar(&inactive, "inactive", false, "create the prompt disabled")
	flag.Var(&slotsFlag, "slot", "slot text appended to the prompt (repeatable, kept in order)")
	flag.Parse()

	driver := strings.ToLower(strings.TrimSpace(driverFlag))
	if driver == "" {
		driver = infra.DriverPostgres
	}
	dsn := strings.TrimSpace(dsnFlag)
	if dsn == "" {
		exitWithError(errors.New("DATABASE_URL or -dsn is required"))
	}

	logger := infra.NewLogger("cli").With().Str("cmd", "migrate").Str("driver", driver).Logger()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := infra.OpenSQLX(ctx, driver, dsn)
	if err != nil {
		exitWithError(err)
	}
	defer db.Close()

	if err := infra.Migrate(ctx, db, driver, logger); err != nil {
		exitWithError(err)
	}

	text := strings.TrimSpace(promptFlag)
	if text == "" {
		return
	}
	prompt := &domain.Prompt{
		Title:  strings.TrimSpace(titleFlag),
		Text:   text,
		Active: !inactive,
	}
	for i, slot := range slotsFlag {
		prompt.Slots = append(prompt.Slots, domain.PromptSlot{
			Name:     fmt.Sprintf("slot-%d", i+1),
			Text:     strings.TrimSpace(slot),
			Position: i + 1,
		})
	}

	var prompts domain.PromptRepository
	switch driver {
	case infra.DriverSQLite:
		prompts = sqlite.NewPromptRepository(db, logger)
	default:
		pool, err := infra.NewDBPool(ctx, &infra.Config{DatabaseURL: dsn})
		if err != nil {
			exitWithError(err)
		}
		defer pool.Close()
		prompts = repo.NewPromptRepository(infra.NewSQLRunner(pool, logger))
	}
	if err := prompts.Create(ctx, prompt); err != nil {
		exitWithError(fmt.Errorf("create prompt: %w", err))
	}
	fmt.Printf("prompt %d created with %d slot(s)\n", prompt.ID, len(prompt.Slots))
}

func exitWithError(err error) {
	fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
	os.Exit(1)
}
