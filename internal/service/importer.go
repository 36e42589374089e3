package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"vendo/internal/domain"
	"vendo/internal/repository"
)

var (
	ErrUnreadableFile = errors.New("file is not a readable spreadsheet")
	ErrNoValidRows    = errors.New("no valid product rows found")
)

// ImportService loads products in bulk from an .xlsx workbook. Row 1 is
// a header; data columns are name, price, stock, brand id. Each row is
// validated independently: a bad row is logged and skipped, and only a
// file with zero importable rows fails the whole import.
type ImportService struct {
	products repository.ProductRepository
	brands   repository.BrandRepository
	logger   *zap.Logger
}

// NewImportService creates a new instance of ImportService
func NewImportService(products repository.ProductRepository, brands repository.BrandRepository, logger *zap.Logger) *ImportService {
	return &ImportService{
		products: products,
		brands:   brands,
		logger:   logger,
	}
}

// ImportXLSX parses the workbook and appends every valid row to the
// product table, returning the number of imported rows.
func (s *ImportService) ImportXLSX(ctx context.Context, r io.Reader) (int, error) {
	workbook, err := excelize.OpenReader(r)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return 0, ErrUnreadableFile
	}

	rows, err := workbook.GetRows(sheets[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	if len(rows) < 2 {
		return 0, ErrNoValidRows
	}

	products := []*domain.Product{}
	for i, row := range rows[1:] {
		rowNum := i + 2 // 1-based, after the header

		product, err := s.parseRow(ctx, row)
		if err != nil {
			s.logger.Warn("Skipping import row",
				zap.Int("row", rowNum),
				zap.Error(err),
			)
			continue
		}
		products = append(products, product)
	}

	if len(products) == 0 {
		return 0, ErrNoValidRows
	}

	if err := s.products.BulkInsert(ctx, products); err != nil {
		return 0, fmt.Errorf("failed to import products: %w", err)
	}

	s.logger.Info("Products imported", zap.Int("count", len(products)))
	return len(products), nil
}

// parseRow validates one data row. Price cells are parsed as exact
// decimals and must be a positive whole number of minor units.
func (s *ImportService) parseRow(ctx context.Context, row []string) (*domain.Product, error) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	name := cell(0)
	priceText := cell(1)
	stockText := cell(2)
	brandIDText := cell(3)

	if name == "" || priceText == "" || stockText == "" || brandIDText == "" {
		return nil, errors.New("empty cell")
	}

	price, err := decimal.NewFromString(priceText)
	if err != nil || !price.IsPositive() || !price.IsInteger() {
		return nil, fmt.Errorf("invalid price %q", priceText)
	}

	stock, err := strconv.Atoi(stockText)
	if err != nil || stock < 0 {
		return nil, fmt.Errorf("invalid stock %q", stockText)
	}

	brandID, err := strconv.ParseInt(brandIDText, 10, 64)
	if err != nil || brandID <= 0 {
		return nil, fmt.Errorf("invalid brand id %q", brandIDText)
	}
	if _, err := s.brands.FindByID(ctx, brandID); err != nil {
		return nil, fmt.Errorf("brand %d: %w", brandID, err)
	}

	return &domain.Product{
		Name:    name,
		Price:   domain.Amount(price.IntPart()),
		Stock:   stock,
		BrandID: brandID,
	}, nil
}
