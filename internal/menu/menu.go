package menu

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/iyhunko/catalog-importer/internal/csvload"
	"github.com/iyhunko/catalog-importer/internal/model"
	"github.com/iyhunko/catalog-importer/internal/repository"
	"github.com/iyhunko/catalog-importer/internal/service"
)

const options = `
1 Recreate table and import catalog
2 List all products
3 Get product by row id
4 Add product
5 Update product
6 Delete product
7 Show exchange rate
8 Apply euro prices
9 Show table snapshot
0 Exit
`

var errEndOfInput = errors.New("end of input")

// Service is the set of catalog operations the menu dispatches to.
type Service interface {
	ResetTable(ctx context.Context) error
	ImportCatalog(ctx context.Context) (*service.ImportSummary, error)
	ListProducts(ctx context.Context, query repository.Query) ([]model.Product, error)
	GetProduct(ctx context.Context, rowID int64) (*model.Product, error)
	CreateProduct(ctx context.Context, product *model.Product) (*model.Product, error)
	UpdateProduct(ctx context.Context, rowID int64, product *model.Product) (*model.Product, error)
	DeleteProduct(ctx context.Context, rowID int64) error
	FetchRate(ctx context.Context) (float64, error)
	ApplyEuroPrices(ctx context.Context) (*service.EuroPrices, error)
	Snapshot(ctx context.Context) (*repository.Snapshot, error)
}

// Menu is the interactive numeric driver.
type Menu struct {
	svc Service
	in  *bufio.Scanner
	out io.Writer
}

func New(svc Service, in io.Reader, out io.Writer) *Menu {
	return &Menu{
		svc: svc,
		in:  bufio.NewScanner(in),
		out: out,
	}
}

// Run shows the menu until option 0 is chosen, the input ends or ctx is cancelled.
// Failures of single operations are reported and the loop continues.
func (m *Menu) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		m.printf("%s", options)
		choice, err := m.prompt("Choose an option: ")
		if err != nil {
			return m.finish(err)
		}

		option, err := strconv.Atoi(choice)
		if err != nil || option < 0 || option > 9 {
			m.printf("Invalid option %q, choose a number between 0 and 9.\n", choice)
			continue
		}
		if option == 0 {
			m.printf("Bye.\n")
			return nil
		}

		if err := m.dispatch(ctx, option); err != nil {
			if errors.Is(err, errEndOfInput) {
				return m.finish(err)
			}
			m.printf("Error: %v\n", err)
		}
	}
}

func (m *Menu) finish(err error) error {
	if errors.Is(err, errEndOfInput) {
		m.printf("\n")
		return nil
	}
	return err
}

func (m *Menu) dispatch(ctx context.Context, option int) error {
	switch option {
	case 1:
		return m.importCatalog(ctx)
	case 2:
		return m.listProducts(ctx)
	case 3:
		return m.getProduct(ctx)
	case 4:
		return m.addProduct(ctx)
	case 5:
		return m.updateProduct(ctx)
	case 6:
		return m.deleteProduct(ctx)
	case 7:
		return m.showRate(ctx)
	case 8:
		return m.applyEuroPrices(ctx)
	case 9:
		return m.showSnapshot(ctx)
	}
	return nil
}

func (m *Menu) importCatalog(ctx context.Context) error {
	if err := m.svc.ResetTable(ctx); err != nil {
		return fmt.Errorf("recreate table: %w", err)
	}

	summary, err := m.svc.ImportCatalog(ctx)
	if err != nil {
		var loadErr *csvload.Error
		if errors.As(err, &loadErr) {
			m.printf("Catalog could not be loaded (%s), the table is empty.\n", loadErr.Kind)
			return nil
		}
		return err
	}

	m.printf("Imported %d products, %d rows skipped.\n", summary.Inserted, summary.Skipped)
	return nil
}

func (m *Menu) listProducts(ctx context.Context) error {
	products, err := m.svc.ListProducts(ctx, *repository.NewQuery())
	if err != nil {
		return err
	}
	if len(products) == 0 {
		m.printf("The table is empty.\n")
		return nil
	}
	return m.printProducts(products...)
}

func (m *Menu) getProduct(ctx context.Context) error {
	rowID, err := m.promptRowID()
	if err != nil {
		return err
	}

	product, err := m.svc.GetProduct(ctx, rowID)
	if errors.Is(err, repository.ErrNotFound) {
		m.printf("Product %d not found.\n", rowID)
		return nil
	}
	if err != nil {
		return err
	}
	return m.printProducts(*product)
}

func (m *Menu) addProduct(ctx context.Context) error {
	product, err := m.promptProduct()
	if err != nil {
		return err
	}

	created, err := m.svc.CreateProduct(ctx, product)
	if err != nil {
		return err
	}
	m.printf("Product added with row id %d.\n", created.RowID)
	return nil
}

func (m *Menu) updateProduct(ctx context.Context) error {
	rowID, err := m.promptRowID()
	if err != nil {
		return err
	}
	product, err := m.promptProduct()
	if err != nil {
		return err
	}

	_, err = m.svc.UpdateProduct(ctx, rowID, product)
	if errors.Is(err, repository.ErrNotFound) {
		m.printf("Product %d not found.\n", rowID)
		return nil
	}
	if err != nil {
		return err
	}
	m.printf("Product %d updated.\n", rowID)
	return nil
}

func (m *Menu) deleteProduct(ctx context.Context) error {
	rowID, err := m.promptRowID()
	if err != nil {
		return err
	}

	err = m.svc.DeleteProduct(ctx, rowID)
	if errors.Is(err, repository.ErrNotFound) {
		m.printf("Product %d not found.\n", rowID)
		return nil
	}
	if err != nil {
		return err
	}
	m.printf("Product %d deleted.\n", rowID)
	return nil
}

func (m *Menu) showRate(ctx context.Context) error {
	rate, err := m.svc.FetchRate(ctx)
	if err != nil {
		m.printf("Exchange rate unavailable: %v\n", err)
		return nil
	}
	m.printf("Exchange rate (sell): %.4f\n", rate)
	return nil
}

func (m *Menu) applyEuroPrices(ctx context.Context) error {
	result, err := m.svc.ApplyEuroPrices(ctx)
	if err != nil {
		m.printf("Euro prices not applied: %v\n", err)
		return nil
	}
	m.printf("Applied rate %.4f to %d rows.\n", result.Rate, result.RowsAffected)
	return nil
}

func (m *Menu) showSnapshot(ctx context.Context) error {
	snapshot, err := m.svc.Snapshot(ctx)
	if err != nil {
		return err
	}
	return snapshot.Render(m.out)
}

func (m *Menu) promptRowID() (int64, error) {
	raw, err := m.prompt("Row id: ")
	if err != nil {
		return 0, err
	}
	rowID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid row id %q", raw)
	}
	return rowID, nil
}

// promptProduct asks for the ten base fields.
// Empty prices and rating are stored as NULL; a malformed number aborts the operation.
func (m *Menu) promptProduct() (*model.Product, error) {
	answers := make(map[string]string, len(csvload.Columns))
	for _, column := range csvload.Columns {
		answer, err := m.prompt(column + ": ")
		if err != nil {
			return nil, err
		}
		answers[column] = answer
	}

	index, err := strconv.ParseInt(answers["index"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid index %q", answers["index"])
	}

	product := &model.Product{
		Index:       index,
		Name:        answers["product"],
		Category:    answers["category"],
		SubCategory: answers["sub_category"],
		Brand:       answers["brand"],
		Type:        answers["type"],
		Description: answers["description"],
	}
	amounts := map[string]**float64{
		"sale_price":   &product.SalePrice,
		"market_price": &product.MarketPrice,
		"rating":       &product.Rating,
	}
	for column, target := range amounts {
		value, err := csvload.ParseAmount(answers[column])
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q", column, answers[column])
		}
		*target = value
	}
	return product, nil
}

func (m *Menu) prompt(label string) (string, error) {
	m.printf("%s", label)
	if !m.in.Scan() {
		if err := m.in.Err(); err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		return "", errEndOfInput
	}
	return strings.TrimSpace(m.in.Text()), nil
}

func (m *Menu) printProducts(products ...model.Product) error {
	w := tabwriter.NewWriter(m.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "rowid\tindex\tproduct\tcategory\tbrand\tsale_price\tmarket_price\trating\tsale_price_euro\tmarket_price_euro")
	for _, p := range products {
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			p.RowID, p.Index, p.Name, p.Category, p.Brand,
			amount(p.SalePrice), amount(p.MarketPrice), amount(p.Rating),
			amount(p.SalePriceEuro), amount(p.MarketPriceEuro),
		)
	}
	return w.Flush()
}

func (m *Menu) printf(format string, args ...any) {
	if _, err := fmt.Fprintf(m.out, format, args...); err != nil {
		slog.Debug("failed to write menu output", slog.Any("err", err))
	}
}

func amount(v *float64) string {
	if v == nil {
		return "NULL"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
