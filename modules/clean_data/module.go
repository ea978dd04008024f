package clean_data

import (
	"context"
	"fmt"
	"regexp"

	"github.com/vk/forecastgrid/internal/component"
	"github.com/vk/forecastgrid/internal/ctxlog"
	"github.com/vk/forecastgrid/internal/registry"
	"github.com/vk/forecastgrid/internal/table"
)

// Name is the component name pipelines use.
const Name = "clean_data"

// alphaPrefix matches StockCodes of non-product lines such as postage or
// manual adjustments.
var alphaPrefix = regexp.MustCompile(`^[A-Za-z]`)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Clean drops rows with a non-positive or missing Quantity or UnitPrice and
// rows whose StockCode starts with a letter, adds Revenue, and keeps only
// the given countries when the list is not empty.
func Clean(f *table.Frame, countries []string) (*table.Frame, error) {
	if err := f.Require("Quantity", "UnitPrice", "StockCode"); err != nil {
		return nil, err
	}
	if len(countries) > 0 {
		if err := f.Require("Country"); err != nil {
			return nil, err
		}
	}
	keep := make(map[string]bool, len(countries))
	for _, c := range countries {
		keep[c] = true
	}

	out := f.Filter(func(r table.Row) bool {
		q, err := r.Float("Quantity")
		if err != nil || q <= 0 {
			return false
		}
		p, err := r.Float("UnitPrice")
		if err != nil || p <= 0 {
			return false
		}
		if alphaPrefix.MatchString(r.Get("StockCode")) {
			return false
		}
		return len(keep) == 0 || keep[r.Get("Country")]
	})

	err := out.AddColumn("Revenue", func(r table.Row) (string, error) {
		q, err := r.Float("Quantity")
		if err != nil {
			return "", err
		}
		p, err := r.Float("UnitPrice")
		if err != nil {
			return "", err
		}
		return table.FormatFloat(q * p), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compute revenue: %w", err)
	}
	return out, nil
}

// Run is the component entry point.
func Run(ctx context.Context, inv *component.Invocation) error {
	logger := ctxlog.FromContext(ctx)

	in, err := inv.String("input_data")
	if err != nil {
		return err
	}
	countries, err := inv.Strings("countries")
	if err != nil {
		return err
	}
	out, err := inv.Output("output_data")
	if err != nil {
		return err
	}

	frame, err := table.Read(in)
	if err != nil {
		return err
	}
	cleaned, err := Clean(frame, countries)
	if err != nil {
		return err
	}

	removed := frame.Len() - cleaned.Len()
	pct := 0.0
	if frame.Len() > 0 {
		pct = float64(removed) / float64(frame.Len()) * 100
	}
	logger.Info("Data cleaning complete.", "rows_in", frame.Len(), "rows_removed", removed, "removed_pct", fmt.Sprintf("%.1f", pct), "countries", countries)
	return cleaned.Write(out)
}

// Register registers the component with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&registry.Registration{
		Name:        Name,
		Description: "Remove invalid transactions, add Revenue and filter countries.",
		Inputs:      []string{"input_data", "countries"},
		Outputs:     []string{"output_data"},
		Component:   component.Func(Run),
	})
}
