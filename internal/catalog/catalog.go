package catalog

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/angelmondragon/costumerental-backend/internal/costumes"
	"github.com/angelmondragon/costumerental-backend/pkg/db/models"
	"github.com/angelmondragon/costumerental-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// File is the seed catalog document.
type File struct {
	Costumes []Entry `yaml:"costumes"`
}

// Entry is one costume design. It lists either a single size with its stock
// or several sizes sharing name, category and price.
type Entry struct {
	Name          string      `yaml:"name"`
	Category      string      `yaml:"category"`
	Description   string      `yaml:"description"`
	SellPrice     string      `yaml:"sell_price"`
	Size          string      `yaml:"size"`
	StockQuantity int         `yaml:"stock_quantity"`
	Sizes         []SizeStock `yaml:"sizes"`
}

// SizeStock is the stock held for one size of a design.
type SizeStock struct {
	Size          string `yaml:"size"`
	StockQuantity int    `yaml:"stock_quantity"`
}

// LoadFile reads and parses a catalog file.
func LoadFile(path string) ([]costumes.CreateInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses a catalog document into one create input per (name, size).
func Load(r io.Reader) ([]costumes.CreateInput, error) {
	var doc File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	var inputs []costumes.CreateInput
	for i, entry := range doc.Costumes {
		expanded, err := entry.expand()
		if err != nil {
			return nil, fmt.Errorf("costume %d (%s): %w", i, entry.Name, err)
		}
		inputs = append(inputs, expanded...)
	}
	return inputs, nil
}

func (e Entry) expand() ([]costumes.CreateInput, error) {
	if strings.TrimSpace(e.Name) == "" {
		return nil, fmt.Errorf("name is required")
	}
	price, err := decimal.NewFromString(strings.TrimSpace(e.SellPrice))
	if err != nil {
		return nil, fmt.Errorf("sell_price %q: %w", e.SellPrice, err)
	}

	sizes := e.Sizes
	if len(sizes) == 0 {
		sizes = []SizeStock{{Size: e.Size, StockQuantity: e.StockQuantity}}
	}

	var description *string
	if d := strings.TrimSpace(e.Description); d != "" {
		description = &d
	}

	out := make([]costumes.CreateInput, 0, len(sizes))
	for _, size := range sizes {
		if strings.TrimSpace(size.Size) == "" {
			return nil, fmt.Errorf("size is required")
		}
		out = append(out, costumes.CreateInput{
			Name:          e.Name,
			Category:      e.Category,
			Size:          size.Size,
			Description:   description,
			SellPrice:     price,
			StockQuantity: size.StockQuantity,
		})
	}
	return out, nil
}

type upserter interface {
	Upsert(ctx context.Context, input costumes.CreateInput) (*models.Costume, bool, error)
}

// Result counts what a seed run changed.
type Result struct {
	Created int
	Updated int
}

// Seed upserts every entry by (name, size). It stops at the first failure.
func Seed(ctx context.Context, svc upserter, logg *logger.Logger, inputs []costumes.CreateInput) (Result, error) {
	var result Result
	for _, input := range inputs {
		costume, created, err := svc.Upsert(ctx, input)
		if err != nil {
			return result, fmt.Errorf("upsert %s/%s: %w", input.Name, input.Size, err)
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
		if logg != nil {
			logg.Debug(logg.WithFields(ctx, map[string]any{
				"costume_id": costume.ID.String(),
				"name":       costume.Name,
				"size":       costume.Size,
				"created":    created,
			}), "catalog entry seeded")
		}
	}
	return result, nil
}
