package store

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/skinlens/backend/internal/domain"
)

// KnowledgeFile is a knowledge base exported to YAML. It satisfies
// domain.KnowledgeRepository so it can seed the database or serve directly.
type KnowledgeFile struct {
	Ingredients []domain.RawIngredient `yaml:"ingredients"`
	Conflicts   []domain.RawConflict   `yaml:"conflicts"`
	Products    []domain.RawProduct    `yaml:"products"`
}

// LoadKnowledgeFile reads a YAML knowledge export from disk
func LoadKnowledgeFile(path string) (*KnowledgeFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read knowledge file: %w", err)
	}
	return ParseKnowledge(raw)
}

// ParseKnowledge decodes a YAML knowledge export
func ParseKnowledge(raw []byte) (*KnowledgeFile, error) {
	var kf KnowledgeFile
	if err := yaml.Unmarshal(raw, &kf); err != nil {
		return nil, fmt.Errorf("parse knowledge file: %w", err)
	}
	return &kf, nil
}

func (k *KnowledgeFile) LoadIngredients(ctx context.Context) ([]domain.RawIngredient, error) {
	return k.Ingredients, nil
}

func (k *KnowledgeFile) LoadConflicts(ctx context.Context) ([]domain.RawConflict, error) {
	return k.Conflicts, nil
}

func (k *KnowledgeFile) LoadCatalog(ctx context.Context) ([]domain.RawProduct, error) {
	return k.Products, nil
}

// Seed imports the file into the knowledge tables. When onlyIfEmpty is set an
// already populated database is left alone.
func Seed(ctx context.Context, repo *KnowledgeRepo, path string, onlyIfEmpty bool) (bool, error) {
	if onlyIfEmpty {
		empty, err := repo.Empty(ctx)
		if err != nil {
			return false, err
		}
		if !empty {
			return false, nil
		}
	}
	kf, err := LoadKnowledgeFile(path)
	if err != nil {
		return false, err
	}
	if err := repo.Replace(ctx, kf); err != nil {
		return false, err
	}
	return true, nil
}
