package csvload

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/iyhunko/catalog-importer/internal/model"
)

// Columns lists the header names every catalog CSV must carry.
var Columns = []string{
	"index", "product", "category", "sub_category", "brand",
	"sale_price", "market_price", "type", "rating", "description",
}

// ErrorKind classifies a load failure.
type ErrorKind string

const (
	KindFetch  ErrorKind = "fetch"
	KindHeader ErrorKind = "header"
	KindParse  ErrorKind = "parse"
)

// Error is returned when a catalog cannot be loaded at all.
type Error struct {
	Kind   ErrorKind
	Source string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("csv %s error for %s: %v", e.Kind, e.Source, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// SkippedRow records a data line that was left out of the result.
type SkippedRow struct {
	Line   int
	Reason string
}

// Result holds the products parsed from a catalog and the rows that were skipped.
type Result struct {
	Products []model.Product
	Skipped  []SkippedRow
}

// Loader reads catalog CSV documents from local paths or http(s) URLs.
type Loader struct {
	client *http.Client
}

// NewLoader creates a Loader fetching remote sources with client.
func NewLoader(client *http.Client) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Loader{client: client}
}

// Load reads and parses the catalog at source.
// Malformed rows are skipped and listed in the result; only unusable documents return an error.
func (l *Loader) Load(ctx context.Context, source string) (*Result, error) {
	body, err := l.open(ctx, source)
	if err != nil {
		return nil, &Error{Kind: KindFetch, Source: source, Err: err}
	}
	defer body.Close()

	result, err := Parse(body)
	if err != nil {
		var loadErr *Error
		if errors.As(err, &loadErr) {
			loadErr.Source = source
			return nil, loadErr
		}
		return nil, &Error{Kind: KindParse, Source: source, Err: err}
	}

	slog.Debug("catalog parsed",
		slog.String("source", source),
		slog.Int("count", len(result.Products)),
		slog.Int("skipped", len(result.Skipped)))
	return result, nil
}

func (l *Loader) open(ctx context.Context, source string) (io.ReadCloser, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		return os.Open(source)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download catalog: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected response status: %s", resp.Status)
	}

	return resp.Body, nil
}

// Parse reads a catalog CSV document. Columns beyond the required ones are ignored.
func Parse(r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &Error{Kind: KindHeader, Err: errors.New("empty document")}
		}
		return nil, &Error{Kind: KindHeader, Err: err}
	}

	positions, err := columnPositions(header)
	if err != nil {
		return nil, &Error{Kind: KindHeader, Err: err}
	}

	result := &Result{Products: []model.Product{}}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				result.Skipped = append(result.Skipped, SkippedRow{Line: parseErr.Line, Reason: parseErr.Err.Error()})
				continue
			}
			return nil, err
		}

		line, _ := reader.FieldPos(0)
		if len(record) != len(header) {
			result.Skipped = append(result.Skipped, SkippedRow{
				Line:   line,
				Reason: fmt.Sprintf("expected %d fields, got %d", len(header), len(record)),
			})
			continue
		}

		product, err := toProduct(record, positions)
		if err != nil {
			result.Skipped = append(result.Skipped, SkippedRow{Line: line, Reason: err.Error()})
			continue
		}
		result.Products = append(result.Products, *product)
	}

	return result, nil
}

func columnPositions(header []string) (map[string]int, error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, seen := positions[name]; !seen {
			positions[name] = i
		}
	}

	var missing []string
	for _, column := range Columns {
		if _, ok := positions[column]; !ok {
			missing = append(missing, column)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return positions, nil
}

func toProduct(record []string, positions map[string]int) (*model.Product, error) {
	field := func(name string) string {
		return strings.TrimSpace(record[positions[name]])
	}

	index, err := parseIndex(field("index"))
	if err != nil {
		return nil, err
	}

	product := &model.Product{
		Index:       index,
		Name:        field("product"),
		Category:    field("category"),
		SubCategory: field("sub_category"),
		Brand:       field("brand"),
		Type:        field("type"),
		Description: field("description"),
	}

	for _, target := range []struct {
		name string
		dest **float64
	}{
		{"sale_price", &product.SalePrice},
		{"market_price", &product.MarketPrice},
		{"rating", &product.Rating},
	} {
		value, err := ParseAmount(field(target.name))
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", target.name, err)
		}
		*target.dest = value
	}

	if err := product.Validate(); err != nil {
		return nil, err
	}
	return product, nil
}

func parseIndex(raw string) (int64, error) {
	if index, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return index, nil
	}
	// exports from dataframes sometimes write integers as 12.0
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("column index: invalid integer %q", raw)
	}
	return int64(f), nil
}

// ParseAmount parses an optional numeric field. Empty strings and NaN mean absent.
// Infinities are rejected since they cannot be encoded as JSON.
func ParseAmount(raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", raw)
	}
	if math.IsNaN(value) {
		return nil, nil
	}
	if math.IsInf(value, 0) {
		return nil, fmt.Errorf("invalid number %q", raw)
	}
	return &value, nil
}
