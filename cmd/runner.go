package main

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/tunetrivia/curator/internal/curation"
	"github.com/tunetrivia/curator/internal/match"
	"github.com/tunetrivia/curator/internal/repositories"
	"github.com/tunetrivia/curator/internal/services"
	"github.com/tunetrivia/curator/internal/shared"
	"github.com/tunetrivia/curator/internal/video"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config *shared.Config
	logger *log.Logger
	output io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *shared.Config
	Logger *log.Logger
	Output io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config: opts.Config,
		logger: opts.Logger,
		output: opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, curateCommand, importCommand, serveCommand, statusCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// reloadConfig swaps in the config file named by the --config flag when it
// differs from the default already loaded.
func (r *Runner) reloadConfig(path string) error {
	if path == "" || path == "config.toml" {
		return nil
	}
	config, err := shared.LoadConfig(path)
	if err != nil {
		return err
	}
	r.config = config
	return nil
}

// openDatabase opens and configures the SQLite database from config.
func (r *Runner) openDatabase() (*sql.DB, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, err
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
	return db, nil
}

// pipeline bundles the constructed curation dependencies for one command.
type pipeline struct {
	db           *sql.DB
	catalog      *repositories.CatalogRepository
	challenges   *repositories.ChallengeRepository
	metadata     services.MetadataSource
	matcher      *match.Matcher
	orchestrator *curation.Orchestrator
}

// buildPipeline wires sources, matcher, resolver, strategies and
// repositories from config. The caller closes pipeline.db.
func (r *Runner) buildPipeline() (*pipeline, error) {
	if err := r.config.Validate(); err != nil {
		return nil, err
	}

	db, err := r.openDatabase()
	if err != nil {
		return nil, err
	}

	timeout := time.Duration(r.config.Curation.RequestTimeoutSecs) * time.Second

	spotify, err := services.NewSpotifyService(services.SpotifyOpts{
		Config:  r.config.Credentials.Spotify,
		Timeout: timeout,
		Logger:  r.logger,
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	musicbrainz, err := services.NewMusicBrainzService(services.MusicBrainzOpts{
		Config:  r.config.Credentials.MusicBrainz,
		Timeout: timeout,
		Logger:  r.logger,
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	youtube, err := services.NewYouTubeService(services.YouTubeOpts{
		Config:  r.config.Credentials.YouTube,
		Timeout: timeout,
		Logger:  r.logger,
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	catalog := repositories.NewCatalogRepository(db)
	challenges := repositories.NewChallengeRepository(db)
	matcher := match.NewMatcher(r.config.Curation.MatchThreshold)

	resolver := video.NewResolver(video.Opts{
		Source:       youtube,
		Logger:       r.logger,
		ToleranceMs:  r.config.Curation.DurationToleranceMs,
		TolerancePct: r.config.Curation.DurationTolerancePct,
	})

	strategies := []curation.Strategy{
		curation.NewCatalogReuseStrategy(catalog),
		curation.NewCatalogBacklogStrategy(catalog),
		curation.NewGenreStrategy(curation.GenreStrategyOpts{
			Genres:   musicbrainz,
			Metadata: spotify,
			Matcher:  matcher,
			Tags:     r.config.Curation.GenreTags,
			Logger:   r.logger,
		}),
		curation.NewPlaylistStrategy(spotify, r.logger),
		curation.NewNewReleasesStrategy(spotify, r.logger),
	}

	orchestrator := curation.NewOrchestrator(curation.OrchestratorOpts{
		Strategies: strategies,
		Resolver:   resolver,
		Catalog:    catalog,
		Challenges: challenges,
		Config:     r.config.Curation,
		Logger:     r.logger,
	})

	return &pipeline{
		db:           db,
		catalog:      catalog,
		challenges:   challenges,
		metadata:     spotify,
		matcher:      matcher,
		orchestrator: orchestrator,
	}, nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	return r.writePlain(format+"\n", args...)
}
