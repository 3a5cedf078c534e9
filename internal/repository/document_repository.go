package repository

import (
	"fmt"

	"gorm.io/gorm"

	"dataroom-chatbot/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// ReplaceAll swaps the whole document catalog for the given records in one
// transaction, mirroring the full-rebuild semantics of the index itself.
func (r *DocumentRepository) ReplaceAll(documents []model.Document) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&model.Document{}).Error; err != nil {
			return fmt.Errorf("clear document catalog failed: %w", err)
		}
		if len(documents) == 0 {
			return nil
		}
		if err := tx.Create(&documents).Error; err != nil {
			return fmt.Errorf("insert document catalog failed: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace document catalog failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) ListAll() ([]model.Document, error) {
	var documents []model.Document
	if err := r.db.Order("name ASC").Find(&documents).Error; err != nil {
		return nil, fmt.Errorf("list documents failed: %w", err)
	}
	return documents, nil
}

func (r *DocumentRepository) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&model.Document{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count documents failed: %w", err)
	}
	return count, nil
}
