package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// SnapshotStats describes the quality of the source catalog before a
// consolidation run: how much attribute resolution work the cascade is in
// for, and how fragmented vendor naming is.
type SnapshotStats struct {
	TotalRecords     int     `json:"totalRecords"`
	UniqueVendors    int     `json:"uniqueVendors"`
	MissingPrice     int     `json:"missingPrice"`
	MissingSKU       int     `json:"missingSku"`
	MissingWeight    int     `json:"missingWeight"`
	MissingImage     int     `json:"missingImage"`
	EmptyTitles      int     `json:"emptyTitles"`
	DuplicateHandles int     `json:"duplicateHandles"`
	AvgPerVendor     float64 `json:"avgPerVendor"`
}

// AnalyzeSnapshot computes source-catalog quality stats straight from the
// database, without loading the full snapshot.
func (s *Store) AnalyzeSnapshot(ctx context.Context) (SnapshotStats, error) {
	var stats SnapshotStats

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) AS total_records,
			COUNT(DISTINCT LOWER(vendor)) AS unique_vendors,
			COUNT(CASE WHEN price IS NULL OR price <= 0 THEN 1 END) AS missing_price,
			COUNT(CASE WHEN sku IS NULL OR sku = '' THEN 1 END) AS missing_sku,
			COUNT(CASE WHEN weight IS NULL OR weight <= 0 THEN 1 END) AS missing_weight,
			COUNT(CASE WHEN "imageRef" IS NULL OR "imageRef" = '' THEN 1 END) AS missing_image,
			COUNT(CASE WHEN title IS NULL OR TRIM(title) = '' THEN 1 END) AS empty_titles
		FROM "CatalogRecord"
	`).Scan(
		&stats.TotalRecords,
		&stats.UniqueVendors,
		&stats.MissingPrice,
		&stats.MissingSKU,
		&stats.MissingWeight,
		&stats.MissingImage,
		&stats.EmptyTitles,
	)
	if err != nil {
		return stats, fmt.Errorf("failed to get snapshot stats: %w", err)
	}

	// Handles the source platform already reuses across records are the rows
	// most likely to collapse into one family.
	err = s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(n), 0) FROM (
			SELECT COUNT(*) AS n
			FROM "CatalogRecord"
			WHERE handle IS NOT NULL AND handle != ''
			GROUP BY handle
			HAVING COUNT(*) > 1
		) dupes
	`).Scan(&stats.DuplicateHandles)
	if err != nil {
		return stats, fmt.Errorf("failed to get duplicate handle stats: %w", err)
	}

	if stats.UniqueVendors > 0 {
		stats.AvgPerVendor = float64(stats.TotalRecords) / float64(stats.UniqueVendors)
	}

	s.logger.Info("snapshot analyzed",
		zap.Int("records", stats.TotalRecords),
		zap.Int("vendors", stats.UniqueVendors),
		zap.Int("missing_price", stats.MissingPrice),
		zap.Int("missing_image", stats.MissingImage),
		zap.Int("duplicate_handles", stats.DuplicateHandles))
	return stats, nil
}
