package application

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/pouchworks/quote-service/internal/domain"
	"github.com/pouchworks/quote-service/pkg/tracing"
)

// ErrLinePanicked is returned when pricing a single quantity panics
var ErrLinePanicked = errors.New("quote line calculation panicked")

// LineCalculator prices one quantity. *domain.PriceCalculator implements it.
type LineCalculator interface {
	PriceForQuantity(pc domain.PricingContext, quantity int) (domain.QuoteLineResult, error)
}

// Orchestrator prices a set of quantities in parallel on a bounded worker pool
type Orchestrator struct {
	calculator LineCalculator
	workers    int
}

// NewOrchestrator creates an orchestrator. workers < 1 means one worker.
func NewOrchestrator(calculator LineCalculator, workers int) *Orchestrator {
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{calculator: calculator, workers: workers}
}

// PriceAll prices every quantity and returns the lines in input order. The
// first failure cancels the remaining work; a done ctx returns ctx.Err()
// without waiting for running workers, and never a partial result.
func (o *Orchestrator) PriceAll(ctx context.Context, pc domain.PricingContext, quantities []int) ([]domain.QuoteLineResult, error) {
	ctx, span := tracing.StartSpan(ctx, "quote.price_all",
		attribute.Int("quote.quantity_count", len(quantities)),
		attribute.Int("quote.workers", o.workers),
	)
	defer span.End()

	results := make([]domain.QuoteLineResult, len(quantities))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)

	done := make(chan error, 1)
	go func() {
		for i, q := range quantities {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						err = fmt.Errorf("%w: quantity %d: %v", ErrLinePanicked, q, r)
					}
				}()
				if err := gctx.Err(); err != nil {
					return err
				}
				line, err := o.calculator.PriceForQuantity(pc, q)
				if err != nil {
					return err
				}
				results[i] = line
				return nil
			})
		}
		done <- g.Wait()
	}()

	select {
	case <-ctx.Done():
		tracing.RecordError(span, ctx.Err())
		return nil, ctx.Err()
	case err := <-done:
		if err == nil {
			err = ctx.Err()
		}
		if err != nil {
			tracing.RecordError(span, err)
			return nil, err
		}
		return results, nil
	}
}
