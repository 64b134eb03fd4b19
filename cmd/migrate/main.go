package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"ms-reservations/internal/config"
	"ms-reservations/internal/database/migrations"
	"ms-reservations/internal/logger"

	"github.com/joho/godotenv"
)

const usage = `usage: migrate [-dir ./migrations] <command>

commands:
  up         apply all pending migrations
  down       roll back every migration
  to <N>     migrate up or down to version N
  version    print the applied version`

func main() {
	dir := flag.String("dir", "", "migrations directory (defaults to MIGRATIONS_DIR)")
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg := config.Load()
	opts := migrations.OptionsFromConfig(cfg.Migrations)
	if *dir != "" {
		opts.MigrationsDir = *dir
	}

	appLogger, err := logger.New(cfg.LogDir, "migrate", os.Stdout)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer appLogger.Close()

	runner := migrations.NewRunner(cfg.Database.DSN, opts, appLogger)
	defer runner.Close()

	switch flag.Arg(0) {
	case "up":
		err = runner.RunMigrations()
	case "down":
		err = runner.MigrateDown()
	case "to":
		if flag.NArg() != 2 {
			flag.Usage()
			os.Exit(2)
		}
		var version uint64
		version, err = strconv.ParseUint(flag.Arg(1), 10, 32)
		if err == nil {
			err = runner.MigrateTo(uint(version))
		}
	case "version":
		var version uint
		var dirty bool
		version, dirty, err = runner.Version()
		if err == nil {
			fmt.Printf("version %d (dirty: %v)\n", version, dirty)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		appLogger.Error("MIGRATIONS", err.Error())
		runner.Close()
		appLogger.Close()
		os.Exit(1)
	}
	appLogger.Info("MIGRATIONS", fmt.Sprintf("%s completed", flag.Arg(0)))
}
