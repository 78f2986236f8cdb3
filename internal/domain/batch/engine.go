package batch

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/vending-console/internal/domain/catalog"
)

const instrumentationName = "github.com/xenking/vending-console/internal/domain/batch"

// Operation names, used in logs, spans and metric attributes.
const (
	OpApplyPrice    = "apply_price"
	OpRetryFailures = "retry_failures"
	OpSaleStatus    = "sale_status"
	OpSettings      = "settings"
)

// Result summarises one batch call.
type Result struct {
	Succeeded int
	Failed    int
	// Failures maps every failed item to its reason.
	Failures map[catalog.ItemID]string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(lg *zap.Logger) Option {
	return func(e *Engine) { e.lg = lg }
}

// WithMeterProvider sets the provider for the per-item outcome counter.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(e *Engine) { e.meter = mp.Meter(instrumentationName) }
}

// WithTracerProvider sets the provider for batch spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) { e.tracer = tp.Tracer(instrumentationName) }
}

// Engine applies bulk edits to the catalog store and keeps the outcome in
// its session. Items are processed one at a time; a failing item never
// stops the batch and successful updates are not rolled back.
type Engine struct {
	store   catalog.Store
	session *Session

	lg     *zap.Logger
	meter  metric.Meter
	tracer trace.Tracer
	items  metric.Int64Counter
}

// NewEngine creates an Engine over store that records outcomes in session.
func NewEngine(store catalog.Store, session *Session, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		session: session,
		lg:      zap.NewNop(),
		meter:   metricnoop.NewMeterProvider().Meter(instrumentationName),
		tracer:  tracenoop.NewTracerProvider().Tracer(instrumentationName),
	}
	for _, o := range opts {
		o(e)
	}

	items, err := e.meter.Int64Counter("console.batch.items",
		metric.WithDescription("Catalog items processed by batch operations"),
		metric.WithUnit("{item}"),
	)
	if err != nil {
		e.lg.Warn("Create batch item counter", zap.Error(err))
		items = metricnoop.Int64Counter{}
	}
	e.items = items
	return e
}

// Session returns the session the engine records into.
func (e *Engine) Session() *Session { return e.session }

// Visible reads the catalog and returns the items matching f.
func (e *Engine) Visible(ctx context.Context, f Filter) ([]catalog.Item, error) {
	c, err := e.store.ReadAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "read catalog")
	}
	return VisibleItems(c, f), nil
}

// ToggleSelectAll selects (on) or deselects every item visible under f.
func (e *Engine) ToggleSelectAll(ctx context.Context, f Filter, on bool) error {
	if !e.session.Active() {
		return ErrInactive
	}
	visible, err := e.Visible(ctx, f)
	if err != nil {
		return err
	}
	return e.session.ToggleSelectAll(visible, on)
}

// ApplyPriceBySelection validates the raw price texts once and applies them
// to every selected item visible under f.
func (e *Engine) ApplyPriceBySelection(ctx context.Context, f Filter, rawCurrent, rawOriginal string) (Result, error) {
	in, err := ValidatePrice(rawCurrent, rawOriginal)
	if err != nil {
		return Result{}, err
	}
	return e.runSelection(ctx, OpApplyPrice, f, e.session.targets, pricePatcher(in))
}

// RetryFailures re-applies a price edit to the items that failed last time
// and are visible under f.
func (e *Engine) RetryFailures(ctx context.Context, f Filter, rawCurrent, rawOriginal string) (Result, error) {
	in, err := ValidatePrice(rawCurrent, rawOriginal)
	if err != nil {
		return Result{}, err
	}
	return e.runSelection(ctx, OpRetryFailures, f, e.session.failedTargets, pricePatcher(in))
}

// ApplySaleStatusBySelection puts every selected item visible under f on
// or off sale.
func (e *Engine) ApplySaleStatusBySelection(ctx context.Context, f Filter, onSale bool) (Result, error) {
	return e.runSelection(ctx, OpSaleStatus, f, e.session.targets, func(catalog.Item) (catalog.Patch, error) {
		return salePatch(onSale), nil
	})
}

// ApplySettings pushes currency and tax settings onto every catalog item.
// It does not need batch mode and leaves the session untouched.
func (e *Engine) ApplySettings(ctx context.Context, s catalog.PricingSettings) (Result, error) {
	c, err := e.store.ReadAll(ctx)
	if err != nil {
		return Result{}, errors.Wrap(err, "read catalog")
	}
	patch := s.Patch()
	return e.execute(ctx, OpSettings, c.Items(), func(catalog.Item) (catalog.Patch, error) {
		return patch, nil
	}, nil), nil
}

type (
	patchFunc  func(catalog.Item) (catalog.Patch, error)
	targetFunc func(visible []catalog.Item) []catalog.Item
)

func pricePatcher(in PriceInput) patchFunc {
	return func(it catalog.Item) (catalog.Patch, error) {
		return ComputePricePatch(it, in)
	}
}

// runSelection resolves the target set against the session and records
// each outcome in it.
func (e *Engine) runSelection(ctx context.Context, op string, f Filter, targets targetFunc, produce patchFunc) (Result, error) {
	if !e.session.Active() {
		return Result{}, ErrInactive
	}
	visible, err := e.Visible(ctx, f)
	if err != nil {
		return Result{}, err
	}
	return e.execute(ctx, op, targets(visible), produce, e.session), nil
}

// execute applies produce to every item in order. Outcomes go to rec when
// it is not nil.
func (e *Engine) execute(ctx context.Context, op string, items []catalog.Item, produce patchFunc, rec *Session) Result {
	ctx, span := e.tracer.Start(ctx, "batch."+op,
		trace.WithAttributes(attribute.Int("batch.targets", len(items))),
	)
	defer span.End()

	lg := e.lg.With(zap.String("op", op))
	res := Result{Failures: make(map[catalog.ItemID]string)}
	for _, it := range items {
		err := e.applyOne(ctx, it, produce)
		if err != nil {
			res.Failed++
			res.Failures[it.ID] = err.Error()
			if rec != nil {
				rec.recordFailure(it.ID, err.Error())
			}
			lg.Warn("Batch item failed", zap.Int64("item_id", int64(it.ID)), zap.Error(err))
			e.items.Add(ctx, 1, metric.WithAttributes(
				attribute.String("operation", op),
				attribute.String("outcome", "failed"),
			))
			continue
		}
		res.Succeeded++
		if rec != nil {
			rec.recordSuccess(it.ID)
		}
		e.items.Add(ctx, 1, metric.WithAttributes(
			attribute.String("operation", op),
			attribute.String("outcome", "succeeded"),
		))
	}

	span.SetAttributes(
		attribute.Int("batch.succeeded", res.Succeeded),
		attribute.Int("batch.failed", res.Failed),
	)
	lg.Info("Batch applied",
		zap.Int("targets", len(items)),
		zap.Int("succeeded", res.Succeeded),
		zap.Int("failed", res.Failed),
	)
	return res
}

func (e *Engine) applyOne(ctx context.Context, it catalog.Item, produce patchFunc) error {
	patch, err := produce(it)
	if err != nil {
		return err
	}
	if _, err := e.store.UpdateItem(ctx, it.ID, patch); err != nil {
		return err
	}
	return nil
}
