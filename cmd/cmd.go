// submodule cmd contains command definitions
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/tunetrivia/curator/internal/curation"
	"github.com/tunetrivia/curator/internal/models"
	"github.com/tunetrivia/curator/internal/repositories"
	"github.com/tunetrivia/curator/internal/scheduler"
	"github.com/tunetrivia/curator/internal/shared"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// setupCommand initializes the database schema
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize database and run migrations",
		Flags: []cli.Flag{configFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := r.reloadConfig(cmd.String("config")); err != nil {
				return err
			}

			db, err := r.openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := shared.RunMigrations(db); err != nil {
				return err
			}

			r.logger.Info("database ready", "path", r.config.Database.Path)
			return nil
		},
	}
}

// curateCommand runs a one-off curation for a date
func curateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "curate",
		Usage: "Run track curation for a challenge date",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "date",
				Usage: "Challenge date (YYYY-MM-DD, default today)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := r.reloadConfig(cmd.String("config")); err != nil {
				return err
			}

			date := cmd.String("date")
			if date == "" {
				date = time.Now().Format(models.DateFormat)
			}

			p, err := r.buildPipeline()
			if err != nil {
				return err
			}
			defer p.db.Close()

			result, err := p.orchestrator.Curate(ctx, date)
			if err != nil {
				return err
			}

			if result.AlreadyCurated {
				r.writePlainln("challenge for %s already exists (%d tracks)", result.Date, result.Persisted)
				return nil
			}

			r.writePlainln("curated %d/%d tracks for %s (%d reused, %d candidates)",
				result.Persisted, result.Desired, result.Date, result.Reused, result.CandidatesSeen)
			return nil
		},
	}
}

// importCommand seeds the catalog from a chart CSV
func importCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import a year-end chart CSV (year,rank,title,artist) into the catalog",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Path to chart CSV file",
				Required: true,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := r.reloadConfig(cmd.String("config")); err != nil {
				return err
			}

			file, err := os.Open(cmd.String("file"))
			if err != nil {
				return err
			}
			defer file.Close()

			p, err := r.buildPipeline()
			if err != nil {
				return err
			}
			defer p.db.Close()

			importer := curation.NewChartImporter(p.metadata, p.matcher, p.catalog, r.logger)
			result, err := importer.ImportCSV(ctx, file)
			if err != nil {
				return err
			}

			r.writePlainln("imported %d/%d chart rows (%d skipped)", result.Matched, result.Rows, result.Skipped)
			return nil
		},
	}
}

// serveCommand runs the scheduler daemon
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the curation scheduler daemon",
		Flags: []cli.Flag{configFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := r.reloadConfig(cmd.String("config")); err != nil {
				return err
			}

			p, err := r.buildPipeline()
			if err != nil {
				return err
			}
			defer p.db.Close()

			if err := shared.RunMigrations(p.db); err != nil {
				return err
			}

			sched := scheduler.New(p.orchestrator, r.config.Schedule, r.logger)

			runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			r.logger.Info("scheduler started", "daily_at", r.config.Schedule.Time)
			if err := sched.Run(runCtx); err != nil && runCtx.Err() == nil {
				return err
			}

			r.logger.Info("scheduler stopped")
			return nil
		},
	}
}

// statusCommand reports catalog and challenge state
func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show catalog statistics and today's challenge",
		Flags: []cli.Flag{configFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := r.reloadConfig(cmd.String("config")); err != nil {
				return err
			}

			db, err := r.openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()

			catalog := repositories.NewCatalogRepository(db)
			stats, err := catalog.Stats()
			if err != nil {
				return err
			}

			today := time.Now().Format(models.DateFormat)
			challenges := repositories.NewChallengeRepository(db)
			count, err := challenges.ExistingCountForDate(today)
			if err != nil {
				return err
			}

			r.writePlainln("catalog: %d tracks (%d active, %d with video, %d used)",
				stats.Total, stats.Active, stats.Resolved, stats.Used)
			r.writePlainln("challenge %s: %d tracks", today, count)
			return nil
		},
	}
}
