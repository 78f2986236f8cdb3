package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/vending-console/internal/domain/batch"
	"github.com/xenking/vending-console/internal/domain/catalog"
)

// ListVisibleItems returns the items visible under the session filter.
// Query parameters category and keyword override it.
func (h *Handler) ListVisibleItems(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	f := h.session().Filter()
	h.mu.Unlock()

	q := r.URL.Query()
	if q.Has("category") {
		f.Category = q.Get("category")
		if f.Category == "" {
			f.Category = catalog.ScopeAll
		}
	}
	if q.Has("keyword") {
		f.Keyword = q.Get("keyword")
	}

	items, err := h.engine.Visible(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, it := range items {
				encodeItem(e, it)
			}
		})
	})
}

// ApplySettings pushes currency and tax settings onto every item.
func (h *Handler) ApplySettings(w http.ResponseWriter, r *http.Request) {
	d, err := readBody(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var (
		currency   string
		taxEnabled bool
		taxRate    string
	)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "currency":
			v, err := d.Str()
			currency = v
			return err
		case "taxEnabled":
			v, err := d.Bool()
			taxEnabled = v
			return err
		case "taxRate":
			v, err := decodeRawAmount(d)
			taxRate = v
			return err
		default:
			return d.Skip()
		}
	}); err != nil {
		writeError(w, r, badRequest(errors.Wrap(err, "decode settings")))
		return
	}

	settings, err := batch.ParseSettings(currency, taxEnabled, taxRate)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	res, err := h.engine.ApplySettings(r.Context(), settings)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) { encodeResultFields(e, res) })
	})
}

func encodeItem(e *jx.Encoder, it catalog.Item) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Int64(int64(it.ID)) })
		e.Field("name", func(e *jx.Encoder) { e.Str(it.Name) })
		e.Field("category", func(e *jx.Encoder) { e.Str(it.CategoryKey) })
		e.Field("price", func(e *jx.Encoder) { e.Str(it.Price.StringFixed(2)) })
		e.Field("originalPrice", func(e *jx.Encoder) {
			if !it.OriginalPrice.Valid {
				e.Null()
				return
			}
			e.Str(it.OriginalPrice.Decimal.StringFixed(2))
		})
		e.Field("onSale", func(e *jx.Encoder) { e.Bool(it.OnSale) })
		e.Field("currency", func(e *jx.Encoder) { e.Str(it.Currency) })
		e.Field("taxEnabled", func(e *jx.Encoder) { e.Bool(it.TaxEnabled) })
		e.Field("taxRate", func(e *jx.Encoder) { e.Str(it.TaxRate.String()) })
	})
}
