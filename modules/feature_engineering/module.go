package feature_engineering

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/vk/forecastgrid/internal/component"
	"github.com/vk/forecastgrid/internal/ctxlog"
	"github.com/vk/forecastgrid/internal/registry"
	"github.com/vk/forecastgrid/internal/table"
)

// Name is the component name pipelines use.
const Name = "feature_engineering"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Columns names the transaction columns feature engineering reads.
type Columns struct {
	Target        string
	Date          string
	TransactionID string
	CustomerID    string
	ArticleID     string
	Revenue       string
}

// DefaultColumns returns the column names of the retail transactions export.
func DefaultColumns() Columns {
	return Columns{
		Target:        "Quantity",
		Date:          "InvoiceDate",
		TransactionID: "InvoiceNo",
		CustomerID:    "CustomerID",
		ArticleID:     "StockCode",
		Revenue:       "Revenue",
	}
}

// PastCovariates computes one row per observed day with the number of
// transactions, unique customers and unique articles, the mean basket size
// (target summed per transaction, averaged over the day's transactions) and
// the quantity-weighted average unit price.
func PastCovariates(f *table.Frame, cols Columns) (*table.Frame, error) {
	if err := f.Require(cols.Date, cols.Target, cols.TransactionID, cols.CustomerID, cols.ArticleID, cols.Revenue); err != nil {
		return nil, err
	}

	type daily struct {
		baskets   map[string]float64
		customers map[string]bool
		articles  map[string]bool
		quantity  float64
		revenue   float64
	}
	days := map[string]*daily{}
	for i := range f.Rows {
		r := f.Row(i)
		day, err := table.ParseDate(r.Get(cols.Date))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		q, err := r.Float(cols.Target)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		rev, err := r.Float(cols.Revenue)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}

		key := table.FormatDate(day)
		d, ok := days[key]
		if !ok {
			d = &daily{baskets: map[string]float64{}, customers: map[string]bool{}, articles: map[string]bool{}}
			days[key] = d
		}
		d.baskets[r.Get(cols.TransactionID)] += q
		if c := r.Get(cols.CustomerID); c != "" {
			d.customers[c] = true
		}
		d.articles[r.Get(cols.ArticleID)] = true
		d.quantity += q
		d.revenue += rev
	}

	keys := make([]string, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := table.New(cols.Date, "num_transactions", "num_unique_customers", "num_unique_articles", "avg_basket_size", "avg_unit_price")
	for _, k := range keys {
		d := days[k]
		var basketSum float64
		for _, b := range d.baskets {
			basketSum += b
		}
		price := 0.0
		if d.quantity != 0 {
			price = d.revenue / d.quantity
		}
		out.Append(
			k,
			strconv.Itoa(len(d.baskets)),
			strconv.Itoa(len(d.customers)),
			strconv.Itoa(len(d.articles)),
			table.FormatFloat(basketSum/float64(len(d.baskets))),
			table.FormatFloat(price),
		)
	}
	return out, nil
}

// FutureCovariates returns one row for every calendar day between the first
// and last date of the features with a UK bank holiday flag and the day of
// week (Monday is 0).
func FutureCovariates(f *table.Frame, dateCol string) (*table.Frame, error) {
	if err := f.Require(dateCol); err != nil {
		return nil, err
	}
	var first, last time.Time
	for i := range f.Rows {
		day, err := table.ParseDate(f.Row(i).Get(dateCol))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		if first.IsZero() || day.Before(first) {
			first = day
		}
		if day.After(last) {
			last = day
		}
	}

	out := table.New(dateCol, "is_holiday", "day_of_week")
	if first.IsZero() {
		return out, nil
	}
	cal := holidayCalendar{}
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		holiday := "0"
		if cal.isHoliday(d) {
			holiday = "1"
		}
		out.Append(table.FormatDate(d), holiday, strconv.Itoa((int(d.Weekday())+6)%7))
	}
	return out, nil
}

// aggregateTargets sums the target per day.
func aggregateTargets(path string, cols Columns) (*table.Frame, error) {
	f, err := table.Read(path)
	if err != nil {
		return nil, err
	}
	s, err := table.DailySeries(f, cols.Date, cols.Target)
	if err != nil {
		return nil, err
	}
	return s.Frame(cols.Date, cols.Target), nil
}

// Run is the component entry point.
func Run(ctx context.Context, inv *component.Invocation) error {
	logger := ctxlog.FromContext(ctx)

	cols := DefaultColumns()
	for input, dst := range map[string]*string{
		"target_column":         &cols.Target,
		"date_column":           &cols.Date,
		"transaction_id_column": &cols.TransactionID,
		"customer_id_column":    &cols.CustomerID,
		"article_id_column":     &cols.ArticleID,
		"revenue_column":        &cols.Revenue,
	} {
		v, err := inv.OptionalString(input, *dst)
		if err != nil {
			return err
		}
		*dst = v
	}

	paths := map[string]string{}
	for _, name := range []string{"train_targets", "test_targets", "features"} {
		p, err := inv.String(name)
		if err != nil {
			return err
		}
		paths[name] = p
	}
	outputs := map[string]string{}
	for _, name := range []string{"train_targets", "test_targets", "past_covariates", "future_covariates"} {
		p, err := inv.Output(name)
		if err != nil {
			return err
		}
		outputs[name] = p
	}

	train, err := aggregateTargets(paths["train_targets"], cols)
	if err != nil {
		return fmt.Errorf("train targets: %w", err)
	}
	test, err := aggregateTargets(paths["test_targets"], cols)
	if err != nil {
		return fmt.Errorf("test targets: %w", err)
	}
	features, err := table.Read(paths["features"])
	if err != nil {
		return err
	}
	past, err := PastCovariates(features, cols)
	if err != nil {
		return fmt.Errorf("past covariates: %w", err)
	}
	future, err := FutureCovariates(features, cols.Date)
	if err != nil {
		return fmt.Errorf("future covariates: %w", err)
	}

	logger.Info("Engineered features.", "train_days", train.Len(), "test_days", test.Len(), "covariate_days", past.Len(), "calendar_days", future.Len())
	for name, frame := range map[string]*table.Frame{
		"train_targets":     train,
		"test_targets":      test,
		"past_covariates":   past,
		"future_covariates": future,
	} {
		if err := frame.Write(outputs[name]); err != nil {
			return err
		}
	}
	return nil
}

// Register registers the component with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&registry.Registration{
		Name:        Name,
		Description: "Aggregate daily targets and compute past and future covariates.",
		Inputs: []string{
			"train_targets", "test_targets", "features",
			"target_column", "date_column", "transaction_id_column",
			"customer_id_column", "article_id_column", "revenue_column",
		},
		Outputs:   []string{"train_targets", "test_targets", "past_covariates", "future_covariates"},
		Component: component.Func(Run),
	})
}
