package database

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"sentiment-dashboard/dataset"
	"sentiment-dashboard/models"
)

const importBatchSize = 500

// Open connects to the sqlite file at path and migrates the comments and
// dataset_columns tables.
// Use ":memory:" for a throwaway database.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&models.CommentRow{}, &models.ColumnRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// Import replaces the comments table with the rows of ds and records its
// column order.
func Import(ctx context.Context, db *gorm.DB, ds *dataset.Dataset) (int, error) {
	columns := ds.Columns()
	colRows := make([]models.ColumnRow, len(columns))
	for i, name := range columns {
		colRows[i] = models.ColumnRow{Position: i, Name: name}
	}

	rows := make([]models.CommentRow, 0, ds.Len())
	for i := 0; i < ds.Len(); i++ {
		c := ds.At(i)
		extra := ""
		if len(c.Extra) > 0 {
			b, err := json.Marshal(c.Extra)
			if err != nil {
				return 0, fmt.Errorf("encode extra columns of row %d: %w", i, err)
			}
			extra = string(b)
		}
		rows = append(rows, models.CommentRow{
			PostCreatedTime: c.PostCreatedTime,
			Side:            c.Side,
			Sentiment:       c.Sentiment,
			CleanText:       c.CleanText,
			ExtraJSON:       extra,
		})
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		global := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := global.Delete(&models.CommentRow{}).Error; err != nil {
			return err
		}
		if err := global.Delete(&models.ColumnRow{}).Error; err != nil {
			return err
		}
		if len(colRows) > 0 {
			if err := tx.Create(&colRows).Error; err != nil {
				return err
			}
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, importBatchSize).Error
	})
	if err != nil {
		return 0, fmt.Errorf("import comments: %w", err)
	}
	return len(rows), nil
}

// Source serves a dataset previously imported into sqlite.
type Source struct {
	DB   *gorm.DB
	Path string
}

func (s Source) ID() string { return "sqlite:" + s.Path }

func (s Source) Load(ctx context.Context) (*dataset.Dataset, error) {
	var rows []models.CommentRow
	if err := s.DB.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, &dataset.LoadError{Source: s.ID(), Op: "query comments", Err: err}
	}
	var colRows []models.ColumnRow
	if err := s.DB.WithContext(ctx).Order("position ASC").Find(&colRows).Error; err != nil {
		return nil, &dataset.LoadError{Source: s.ID(), Op: "query columns", Err: err}
	}

	seen := map[string]bool{}
	var extras []string
	records := make([]models.Comment, 0, len(rows))
	for _, r := range rows {
		c := models.Comment{
			PostCreatedTime: r.PostCreatedTime,
			Side:            dataset.NormalizeSide(r.Side),
			Sentiment:       r.Sentiment,
			CleanText:       r.CleanText,
		}
		if r.ExtraJSON != "" {
			if err := json.Unmarshal([]byte(r.ExtraJSON), &c.Extra); err != nil {
				return nil, &dataset.LoadError{Source: s.ID(), Op: fmt.Sprintf("decode row %d", r.ID), Err: err}
			}
			for k := range c.Extra {
				if !seen[k] {
					seen[k] = true
					extras = append(extras, k)
				}
			}
		}
		records = append(records, c)
	}
	if len(colRows) > 0 {
		columns := make([]string, len(colRows))
		for i, r := range colRows {
			columns[i] = r.Name
		}
		return dataset.New(s.ID(), columns, records), nil
	}

	// Databases imported without a recorded header get a stable fallback.
	sort.Strings(extras)
	return dataset.New(s.ID(), append(models.RequiredColumns(), extras...), records), nil
}
