package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/storemigrate/catalog-resolver/engine"
	"github.com/storemigrate/catalog-resolver/search"
	"github.com/storemigrate/catalog-resolver/store"
)

// appConfig is the full runtime configuration: server address, collaborator
// endpoints, and the engine's tuning knobs.
type appConfig struct {
	Addr        string         `mapstructure:"addr"`
	DatabaseURL string         `mapstructure:"database_url"`
	MeiliURL    string         `mapstructure:"meili_url"`
	MeiliAPIKey string         `mapstructure:"meili_api_key"`
	Engine      engine.Config  `mapstructure:"engine"`
	Aliases     engine.Aliases `mapstructure:"aliases"`
}

func loadConfig() (appConfig, error) {
	v := viper.New()
	v.SetConfigName("resolver")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/catalog-resolver")
	v.SetEnvPrefix("RESOLVER")
	v.AutomaticEnv()

	v.SetDefault("addr", ":50051")
	v.SetDefault("database_url", os.Getenv("DATABASE_URL"))
	v.SetDefault("meili_url", os.Getenv("MEILI_URL"))
	v.SetDefault("meili_api_key", os.Getenv("MEILI_API_KEY"))

	var cfg appConfig
	if err := v.ReadInConfig(); err != nil {
		// Config file is optional; env and defaults still apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	builtin := defaultAliases()
	if cfg.Aliases.Vendors == nil {
		cfg.Aliases.Vendors = builtin.Vendors
	}
	if cfg.Aliases.Categories == nil {
		cfg.Aliases.Categories = builtin.Categories
	}
	return cfg, nil
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatal("configuration error", zap.Error(err))
	}

	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "resolve":
			runResolve(cfg, logger, os.Args[2:])
			return
		case "rows":
			runRows(cfg, logger, os.Args[2:])
			return
		case "index":
			runIndex(cfg, logger, os.Args[2:])
			return
		case "audit":
			runAudit(cfg, logger)
			return
		case "help":
			fmt.Println("Usage: catalog-resolver [command]")
			fmt.Println("")
			fmt.Println("Commands:")
			fmt.Println("  (no args)              Start the ConnectRPC server")
			fmt.Println("  resolve [file.jsonl]   Consolidate records from a JSON-lines file (or the database) and print the result")
			fmt.Println("  rows <model> [file]    Consolidate and print projected rows (parent-child or handle-options)")
			fmt.Println("  index [file.jsonl]     Consolidate and rebuild the Meilisearch review index")
			fmt.Println("  audit                  Print source-catalog quality stats from the database")
			fmt.Println("  help                   Show this help message")
			return
		}
	}
	runServe(cfg, logger)
}

// readRecords loads JSON-lines records from a file, or stdin for "-".
// Vendor and category spellings are canonicalized on the way in.
func readRecords(path string, aliases engine.Aliases) ([]engine.ProductRecord, error) {
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open records file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var records []engine.ProductRecord
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Bytes()
		if len(text) == 0 {
			continue
		}
		var rec engine.ProductRecord
		if err := json.Unmarshal(text, &rec); err != nil {
			return nil, fmt.Errorf("bad record on line %d: %w", line, err)
		}
		records = append(records, aliases.ApplyTo(rec))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed reading records: %w", err)
	}
	return records, nil
}

// gatherInput loads records and lookup tables: records from the file argument
// when given, otherwise from the database; lookup tables from the database
// whenever one is configured.
func gatherInput(ctx context.Context, cfg appConfig, logger *zap.Logger, args []string) ([]engine.ProductRecord, engine.LookupTables, error) {
	var db *store.Store
	if cfg.DatabaseURL != "" {
		var err error
		db, err = store.Open(ctx, cfg.DatabaseURL, cfg.Aliases, logger)
		if err != nil {
			return nil, engine.LookupTables{}, err
		}
		defer db.Close()
	}

	var records []engine.ProductRecord
	var err error
	switch {
	case len(args) >= 1:
		records, err = readRecords(args[0], cfg.Aliases)
	case db != nil:
		records, err = db.LoadRecords(ctx)
	default:
		err = fmt.Errorf("no records file given and no database configured")
	}
	if err != nil {
		return nil, engine.LookupTables{}, err
	}

	tables := engine.LookupTables{}
	if db != nil {
		tables, err = db.LoadLookupTables(ctx)
		if err != nil {
			return nil, engine.LookupTables{}, err
		}
	}
	return records, tables, nil
}

func consolidate(cfg appConfig, logger *zap.Logger, args []string) *engine.Result {
	ctx := context.Background()
	records, tables, err := gatherInput(ctx, cfg, logger, args)
	if err != nil {
		logger.Fatal("input error", zap.Error(err))
	}

	res, err := engine.New(cfg.Engine, logger).Run(records, tables)
	if err != nil {
		logger.Fatal("consolidation failed", zap.Error(err))
	}
	if err := res.CheckProjections(); err != nil {
		logger.Fatal("projection check failed", zap.Error(err))
	}
	return res
}

func runResolve(cfg appConfig, logger *zap.Logger, args []string) {
	res := consolidate(cfg, logger, args)
	out := map[string]interface{}{
		"runId":       res.RunID,
		"stats":       res.Stats,
		"families":    res.Families,
		"resolutions": res.Resolutions,
		"decisions":   res.Log.Entries(),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		logger.Fatal("failed to write result", zap.Error(err))
	}
}

func runRows(cfg appConfig, logger *zap.Logger, args []string) {
	if len(args) < 1 {
		logger.Fatal("rows requires a target model: parent-child or handle-options")
	}
	model := engine.TargetModel(args[0])
	res := consolidate(cfg, logger, args[1:])
	rows, err := res.Rows(model)
	if err != nil {
		logger.Fatal("projection failed", zap.Error(err))
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		logger.Fatal("failed to write rows", zap.Error(err))
	}
}

func runIndex(cfg appConfig, logger *zap.Logger, args []string) {
	res := consolidate(cfg, logger, args)
	indexer := search.NewIndexer(cfg.MeiliURL, cfg.MeiliAPIKey, logger)
	indexed, err := indexer.Rebuild(res)
	if err != nil {
		logger.Fatal("index rebuild failed", zap.Error(err))
	}
	logger.Info("index rebuild complete",
		zap.String("run_id", res.RunID), zap.Int("documents", indexed))
}

func runAudit(cfg appConfig, logger *zap.Logger) {
	ctx := context.Background()
	db, err := store.Open(ctx, cfg.DatabaseURL, cfg.Aliases, logger)
	if err != nil {
		logger.Fatal("database error", zap.Error(err))
	}
	defer db.Close()

	stats, err := db.AnalyzeSnapshot(ctx)
	if err != nil {
		logger.Fatal("audit failed", zap.Error(err))
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(stats); err != nil {
		logger.Fatal("failed to write stats", zap.Error(err))
	}
}

func runServe(cfg appConfig, logger *zap.Logger) {
	ctx := context.Background()

	var db *store.Store
	if cfg.DatabaseURL != "" {
		var err error
		db, err = store.Open(ctx, cfg.DatabaseURL, cfg.Aliases, logger)
		if err != nil {
			logger.Warn("continuing without database", zap.Error(err))
			db = nil
		} else {
			defer db.Close()
		}
	}

	srv := &apiServer{
		engine:  engine.New(cfg.Engine, logger),
		db:      db,
		aliases: cfg.Aliases,
		indexer: search.NewIndexer(cfg.MeiliURL, cfg.MeiliAPIKey, logger),
		logger:  logger,
	}
	if err := runConnectServer(srv, cfg.Addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
