package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"socialnest/internal/models"
	"socialnest/internal/registry"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const importBatchSize = 200

// ErrTargetNotEmpty is returned when the SQL database already has users.
var ErrTargetNotEmpty = errors.New("target database already contains users")

// ImportStats counts the rows written by ImportDocuments.
type ImportStats struct {
	Users         int
	Posts         int
	Likes         int
	Comments      int
	Follows       int
	Messages      int
	Notifications int
}

// ImportDocuments copies a document dataset into db in one transaction,
// keeping every id. The target must have no users.
func ImportDocuments(ctx context.Context, db *gorm.DB, data registry.Dataset) (ImportStats, error) {
	var stats ImportStats

	posts := make([]models.Post, 0, len(data.Posts))
	var likes []models.Like
	var comments []models.Comment
	for _, p := range data.Posts {
		likes = append(likes, p.Likes...)
		comments = append(comments, p.Comments...)
		p.Likes, p.Comments = nil, nil
		posts = append(posts, p)
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.User{}).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrTargetNotEmpty
		}

		steps := []struct {
			table string
			rows  any
			n     int
			count *int
		}{
			{"users", &data.Users, len(data.Users), &stats.Users},
			{"posts", &posts, len(posts), &stats.Posts},
			{"likes", &likes, len(likes), &stats.Likes},
			{"comments", &comments, len(comments), &stats.Comments},
			{"follows", &data.Follows, len(data.Follows), &stats.Follows},
			{"messages", &data.Messages, len(data.Messages), &stats.Messages},
			{"notifications", &data.Notifications, len(data.Notifications), &stats.Notifications},
		}
		for _, step := range steps {
			if step.n == 0 {
				continue
			}
			if err := tx.Omit(clause.Associations).CreateInBatches(step.rows, importBatchSize).Error; err != nil {
				return fmt.Errorf("import %s: %w", step.table, err)
			}
			*step.count = step.n
		}

		return resetSequences(tx, "users", "posts", "likes", "comments", "follows", "messages", "notifications")
	})
	if err != nil {
		return ImportStats{}, err
	}
	return stats, nil
}

// resetSequences moves serial sequences past explicitly inserted ids.
// This is PostgreSQL-specific.
func resetSequences(tx *gorm.DB, tables ...string) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	for _, table := range tables {
		q := fmt.Sprintf(`
			SELECT setval(
				pg_get_serial_sequence('%[1]s', 'id'),
				GREATEST((SELECT COALESCE(MAX(id), 1) FROM %[1]s), 1),
				true
			)`, table)
		if err := tx.Exec(q).Error; err != nil {
			return fmt.Errorf("failed to reset %s sequence: %w", table, err)
		}
	}
	return nil
}
