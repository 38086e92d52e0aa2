package database

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"foodgram/models"

	"gorm.io/gorm"
)

// LoadResult counts what a CSV import did.
type LoadResult struct {
	Read    int
	Created int
}

// LoadIngredients imports "name,measurement_unit" rows. Existing pairs are
// left untouched.
func LoadIngredients(ctx context.Context, db *gorm.DB, r io.Reader) (LoadResult, error) {
	return loadCSV(ctx, db, r, 2, func(tx *gorm.DB, row []string) (bool, error) {
		return getOrCreate(tx, &models.Ingredient{}, models.Ingredient{Name: row[0], MeasurementUnit: row[1]},
			&models.Ingredient{Name: row[0], MeasurementUnit: row[1]})
	})
}

// LoadTags imports "name,color,slug" rows. A slug that already exists is
// left untouched.
func LoadTags(ctx context.Context, db *gorm.DB, r io.Reader) (LoadResult, error) {
	return loadCSV(ctx, db, r, 3, func(tx *gorm.DB, row []string) (bool, error) {
		return getOrCreate(tx, &models.Tag{}, models.Tag{Slug: row[2]},
			&models.Tag{Name: row[0], Color: row[1], Slug: row[2]})
	})
}

// getOrCreate inserts row unless a record matching conds exists.
func getOrCreate(tx *gorm.DB, model any, conds any, row any) (bool, error) {
	var count int64
	if err := tx.Model(model).Where(conds).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	return true, tx.Create(row).Error
}

func loadCSV(ctx context.Context, db *gorm.DB, r io.Reader, columns int, save func(*gorm.DB, []string) (bool, error)) (LoadResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = columns
	reader.TrimLeadingSpace = true

	var result LoadResult
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for line := 1; ; line++ {
			row, err := reader.Read()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("line %d: %w", line, err)
			}
			for i := range row {
				row[i] = strings.TrimSpace(row[i])
				if row[i] == "" {
					return fmt.Errorf("line %d: column %d is empty", line, i+1)
				}
			}

			result.Read++
			created, err := save(tx, row)
			if err != nil {
				return fmt.Errorf("line %d: %w", line, err)
			}
			if created {
				result.Created++
			}
		}
	})
	if err != nil {
		return LoadResult{}, err
	}
	return result, nil
}
