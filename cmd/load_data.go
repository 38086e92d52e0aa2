package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"foodgram/database"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ingredientsFile string
	tagsFile        string
)

var loadDataCmd = &cobra.Command{
	Use:   "load-data",
	Short: "Import ingredients and tags from CSV files",
	Long: `Import reference data. Ingredient rows are "name,measurement_unit",
tag rows are "name,color,slug". Rows that already exist are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if ingredientsFile == "" && tagsFile == "" {
			return errors.New("nothing to load: pass --ingredients and/or --tags")
		}
		ctx := cmd.Context()
		a, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		steps := []struct {
			name string
			path string
			load func(context.Context, *gorm.DB, io.Reader) (database.LoadResult, error)
		}{
			{"ingredients", ingredientsFile, database.LoadIngredients},
			{"tags", tagsFile, database.LoadTags},
		}
		for _, step := range steps {
			if step.path == "" {
				continue
			}
			res, err := loadFile(ctx, a.db, step.path, step.load)
			if err != nil {
				return fmt.Errorf("load %s: %w", step.name, err)
			}
			a.log.Info("Loaded reference data", zap.String("kind", step.name), zap.String("file", step.path),
				zap.Int("read", res.Read), zap.Int("created", res.Created))
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d read, %d created\n", step.name, res.Read, res.Created)
		}
		return nil
	},
}

func init() {
	loadDataCmd.Flags().StringVar(&ingredientsFile, "ingredients", "", "CSV file with ingredients")
	loadDataCmd.Flags().StringVar(&tagsFile, "tags", "", "CSV file with tags")
	rootCmd.AddCommand(loadDataCmd)
}

func loadFile(ctx context.Context, db *gorm.DB, path string,
	load func(context.Context, *gorm.DB, io.Reader) (database.LoadResult, error)) (database.LoadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return database.LoadResult{}, err
	}
	defer f.Close()
	return load(ctx, db, f)
}
