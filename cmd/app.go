package cmd

import (
	"context"
	"fmt"
	"os"

	"sqlagent/cli/internal/agent"
	"sqlagent/cli/internal/config"
	"sqlagent/cli/internal/dsn"
	"sqlagent/cli/internal/keychain"
	"sqlagent/cli/internal/logging"
	"sqlagent/cli/internal/schema"
	"sqlagent/cli/internal/sqlexec"

	"github.com/pterm/pterm"
)

// runFlags are the persistent flags shared by every command.
type runFlags struct {
	verbose    bool
	session    string
	logFile    string
	schemaMode string
	schemaFile string
}

// apply overrides cfg with the flags that were set.
func (f runFlags) apply(cfg *config.Config) {
	if f.verbose {
		cfg.Verbose = true
	}
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.Session, f.session)
	set(&cfg.QueryLog, f.logFile)
	set(&cfg.SchemaMode, f.schemaMode)
	set(&cfg.SchemaFile, f.schemaFile)
}

// app holds everything one agent session needs.
type app struct {
	cfg    config.Config
	desc   dsn.ConnectionDescriptor
	db     *sqlexec.DB
	schema schema.Description
	agent  *agent.Agent
	logger *pterm.Logger

	closers []func()
}

// Close releases database connections.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// loadConfig reads settings, applies flags and fills API keys from the keychain.
func loadConfig(f runFlags) (config.Config, error) {
	cfg, err := config.Load(os.Getenv)
	if err != nil {
		return cfg, err
	}
	f.apply(&cfg)
	if logging.VerboseFromEnv(os.Getenv) {
		cfg.Verbose = true
	}

	if _, _, _, key := cfg.LLM(); key == "" {
		if km, err := keychain.GetManager(); err == nil {
			cfg.FillFromKeychain(km.LoadAPIKey)
		}
	}
	return cfg, nil
}

// openDatabase resolves the DB_* variables and connects.
func openDatabase(ctx context.Context) (dsn.ConnectionDescriptor, *sqlexec.DB, error) {
	desc, err := dsn.Resolve(os.Getenv)
	if err != nil {
		return desc, nil, err
	}
	if err := dsn.Validate(desc); err != nil {
		return desc, nil, err
	}
	db, err := sqlexec.Open(ctx, desc)
	if err != nil {
		return desc, nil, err
	}
	return desc, db, nil
}

// describeSchema picks the curated description for the database or introspects it.
func describeSchema(ctx context.Context, cfg config.Config, desc dsn.ConnectionDescriptor, db *sqlexec.DB, logger *pterm.Logger) (schema.Description, func(), error) {
	noop := func() {}

	mode, err := schema.ParseMode(cfg.SchemaMode)
	if err != nil {
		return schema.Description{}, noop, err
	}

	provider := schema.NewProvider(schema.BuiltinCatalogs()...)
	if cfg.SchemaFile != "" {
		catalogs, err := schema.LoadCatalogs(cfg.SchemaFile)
		if err != nil {
			return schema.Description{}, noop, err
		}
		provider.Register(catalogs...)
	}

	in := &sqlexec.Introspector{
		DB: db,
		OnConstraintError: func(err error) {
			logger.Warn("could not read table constraints", logger.Args("error", logging.Mask(err.Error())))
		},
	}
	closeInspector := noop
	if mode != schema.ModeCurated {
		inspector, closeFn, err := sqlexec.OpenConstraintInspector(ctx, desc)
		if err != nil {
			logger.Warn("constraint inspection disabled", logger.Args("error", logging.Mask(err.Error())))
		} else {
			in.Constraints = inspector
			closeInspector = closeFn
		}
	}

	d, err := provider.Describe(ctx, desc.Database, mode, in)
	if err != nil {
		closeInspector()
		return schema.Description{}, noop, err
	}
	logger.Debug("schema description ready", logger.Args("source", d.Source.String(), "database", desc.Database))
	return d, closeInspector, nil
}

// bootstrap loads configuration, connects to the database, describes its schema
// and builds the agent.
func bootstrap(ctx context.Context, f runFlags) (*app, error) {
	cfg, err := loadConfig(f)
	if err != nil {
		return nil, err
	}
	logger := logging.NewLogger(cfg.Verbose)

	a := &app{cfg: cfg, logger: logger}

	var openErr error
	runWithSpinner("Connecting to the database", cfg.Verbose, func() {
		a.desc, a.db, openErr = openDatabase(ctx)
	})
	if openErr != nil {
		return nil, openErr
	}
	a.closers = append(a.closers, func() { _ = a.db.Close() })

	d, closeInspector, err := describeSchema(ctx, cfg, a.desc, a.db, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, closeInspector)
	a.schema = d

	provider, model, baseURL, key := cfg.LLM()
	a.agent, err = agent.New(agent.Config{
		Provider:      provider.Name,
		APIKeyEnv:     provider.KeyEnv,
		APIKey:        key,
		Model:         model,
		BaseURL:       baseURL,
		MaxIterations: cfg.MaxIterations,
		TopK:          cfg.TopK,
		Logger:        logger,
		Verbose:       cfg.Verbose,
	}, a.db, d.Render())
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("build agent: %w", err)
	}
	logger.Debug("agent ready", logger.Args("provider", provider.Name, "model", model, "dialect", a.db.Dialect()))
	return a, nil
}
