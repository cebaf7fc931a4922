// Package store loads catalog snapshots and attribute lookup books from
// Postgres. It is read-only: consolidation results go to the search index and
// stdout, never back into the source tables.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/storemigrate/catalog-resolver/engine"
)

// Store wraps the source-catalog database connection.
type Store struct {
	db      *sql.DB
	aliases engine.Aliases
	logger  *zap.Logger
}

// Open connects to the catalog database. The DSN comes from the argument or,
// when empty, the DATABASE_URL environment variable. Loaded records pass
// through the injected alias tables.
func Open(ctx context.Context, dsn string, aliases engine.Aliases, logger *zap.Logger) (*Store, error) {
	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		return nil, fmt.Errorf("no database DSN: pass one or set DATABASE_URL")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{db: db, aliases: aliases, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// LoadRecords fetches the full catalog snapshot to consolidate. Rows that
// fail to scan are skipped and logged rather than aborting the load.
func (s *Store) LoadRecords(ctx context.Context) ([]engine.ProductRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title,
		       COALESCE(vendor, ''), COALESCE(sku, ''),
		       COALESCE(price, 0), COALESCE(weight, 0), COALESCE("weightUnit", ''),
		       COALESCE(inventory, 0),
		       COALESCE("imageRef", ''), COALESCE("categoryHint", ''),
		       COALESCE(handle, '')
		FROM "CatalogRecord"
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog records: %w", err)
	}
	defer rows.Close()

	var records []engine.ProductRecord
	for rows.Next() {
		var rec engine.ProductRecord
		if err := rows.Scan(
			&rec.SourceID, &rec.RawTitle,
			&rec.Vendor, &rec.SKU,
			&rec.Price, &rec.Weight, &rec.WeightUnit,
			&rec.Inventory,
			&rec.ImageRef, &rec.CategoryHint,
			&rec.PlatformHandle,
		); err != nil {
			s.logger.Warn("skipping unscannable catalog row", zap.Error(err))
			continue
		}
		records = append(records, s.aliases.ApplyTo(rec))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading catalog records: %w", err)
	}
	s.logger.Info("loaded catalog snapshot", zap.Int("records", len(records)))
	return records, nil
}

// LoadLookupTables fetches the attribute books backing the resolution
// cascade. Name keys are normalized here so cascade probes can compare
// without re-normalizing on every lookup.
func (s *Store) LoadLookupTables(ctx context.Context) (engine.LookupTables, error) {
	tables := engine.LookupTables{
		PriceBySKU:   make(map[string]float64),
		PriceByName:  make(map[string]float64),
		WeightBySKU:  make(map[string]float64),
		WeightByName: make(map[string]float64),
		BrandByName:  make(map[string]string),
		ImageByName:  make(map[string]string),
		Placeholders: make(map[string]string),
	}

	if err := s.loadAttributeBook(ctx, &tables); err != nil {
		return tables, err
	}
	if err := s.loadImages(ctx, &tables); err != nil {
		return tables, err
	}
	if err := s.loadPlaceholders(ctx, &tables); err != nil {
		return tables, err
	}

	s.logger.Info("loaded lookup tables",
		zap.Int("price_by_sku", len(tables.PriceBySKU)),
		zap.Int("price_by_name", len(tables.PriceByName)),
		zap.Int("weight_by_sku", len(tables.WeightBySKU)),
		zap.Int("brand_by_name", len(tables.BrandByName)),
		zap.Int("image_files", len(tables.ImageFiles)),
		zap.Int("placeholders", len(tables.Placeholders)))
	return tables, nil
}

func (s *Store) loadAttributeBook(ctx context.Context, tables *engine.LookupTables) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(sku, ''), COALESCE(name, ''),
		       COALESCE(price, 0), COALESCE(weight, 0), COALESCE(brand, '')
		FROM "AttributeBook"
	`)
	if err != nil {
		return fmt.Errorf("failed to fetch attribute book: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sku, name, brand string
		var price, weight float64
		if err := rows.Scan(&sku, &name, &price, &weight, &brand); err != nil {
			s.logger.Warn("skipping unscannable attribute book row", zap.Error(err))
			continue
		}
		key := engine.Normalize(name)
		if sku != "" {
			if price > 0 {
				tables.PriceBySKU[sku] = price
			}
			if weight > 0 {
				tables.WeightBySKU[sku] = weight
			}
		}
		if key != "" {
			if price > 0 {
				tables.PriceByName[key] = price
			}
			if weight > 0 {
				tables.WeightByName[key] = weight
			}
			if brand != "" {
				tables.BrandByName[key] = brand
			}
		}
	}
	return rows.Err()
}

func (s *Store) loadImages(ctx context.Context, tables *engine.LookupTables) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE("productName", ''), path
		FROM "ImageAsset"
		ORDER BY path
	`)
	if err != nil {
		return fmt.Errorf("failed to fetch image assets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, path string
		if err := rows.Scan(&name, &path); err != nil {
			s.logger.Warn("skipping unscannable image asset row", zap.Error(err))
			continue
		}
		if key := engine.Normalize(name); key != "" {
			tables.ImageByName[key] = path
		}
		tables.ImageFiles = append(tables.ImageFiles, path)
	}
	return rows.Err()
}

func (s *Store) loadPlaceholders(ctx context.Context, tables *engine.LookupTables) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, path
		FROM "CategoryPlaceholder"
	`)
	if err != nil {
		return fmt.Errorf("failed to fetch category placeholders: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var category, path string
		if err := rows.Scan(&category, &path); err != nil {
			s.logger.Warn("skipping unscannable placeholder row", zap.Error(err))
			continue
		}
		if key := engine.Normalize(category); key != "" {
			tables.Placeholders[key] = path
		}
	}
	return rows.Err()
}
