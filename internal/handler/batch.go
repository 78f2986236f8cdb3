package handler

import (
	"net/http"
	"slices"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/vending-console/internal/domain/batch"
	"github.com/xenking/vending-console/internal/domain/catalog"
)

// GetSnapshot returns the batch session state.
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	snap := h.session().Snapshot()
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeSnapshot(e, snap) })
}

// ToggleBatchMode enters or leaves batch mode.
func (h *Handler) ToggleBatchMode(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	h.session().Toggle()
	snap := h.session().Snapshot()
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeSnapshot(e, snap) })
}

// SetFilter changes the category scope and keyword.
func (h *Handler) SetFilter(w http.ResponseWriter, r *http.Request) {
	d, err := readBody(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var f batch.Filter
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "category":
			v, err := d.Str()
			f.Category = v
			return err
		case "keyword":
			v, err := d.Str()
			f.Keyword = v
			return err
		default:
			return d.Skip()
		}
	}); err != nil {
		writeError(w, r, badRequest(errors.Wrap(err, "decode filter")))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.session().SetScope(f.Category); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.session().SetKeyword(f.Keyword); err != nil {
		writeError(w, r, err)
		return
	}
	snap := h.session().Snapshot()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeSnapshot(e, snap) })
}

// SetSelection replaces the selected item ids.
func (h *Handler) SetSelection(w http.ResponseWriter, r *http.Request) {
	d, err := readBody(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ids := []catalog.ItemID{}
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "ids" {
			return d.Skip()
		}
		return d.Arr(func(d *jx.Decoder) error {
			v, err := d.Int64()
			if err != nil {
				return err
			}
			ids = append(ids, catalog.ItemID(v))
			return nil
		})
	}); err != nil {
		writeError(w, r, badRequest(errors.Wrap(err, "decode selection")))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.session().SetSelected(ids); err != nil {
		writeError(w, r, err)
		return
	}
	snap := h.session().Snapshot()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeSnapshot(e, snap) })
}

// ToggleSelectAll selects or deselects every item under the session filter.
func (h *Handler) ToggleSelectAll(w http.ResponseWriter, r *http.Request) {
	on, err := decodeFlag(r, "selected")
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.engine.ToggleSelectAll(r.Context(), h.session().Filter(), on); err != nil {
		writeError(w, r, err)
		return
	}
	snap := h.session().Snapshot()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeSnapshot(e, snap) })
}

// ApplyPrice applies a price edit to the selected items.
func (h *Handler) ApplyPrice(w http.ResponseWriter, r *http.Request) {
	current, original, err := decodePriceInput(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	res, err := h.engine.ApplyPriceBySelection(r.Context(), h.session().Filter(), current, original)
	h.writeResult(w, r, res, err)
}

// RetryFailures re-applies a price edit to the items that failed.
func (h *Handler) RetryFailures(w http.ResponseWriter, r *http.Request) {
	current, original, err := decodePriceInput(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	res, err := h.engine.RetryFailures(r.Context(), h.session().Filter(), current, original)
	h.writeResult(w, r, res, err)
}

// ApplySaleStatus puts the selected items on or off sale.
func (h *Handler) ApplySaleStatus(w http.ResponseWriter, r *http.Request) {
	onSale, err := decodeFlag(r, "onSale")
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	res, err := h.engine.ApplySaleStatusBySelection(r.Context(), h.session().Filter(), onSale)
	h.writeResult(w, r, res, err)
}

// writeResult must be called with h.mu held.
func (h *Handler) writeResult(w http.ResponseWriter, r *http.Request, res batch.Result, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	snap := h.session().Snapshot()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			encodeResultFields(e, res)
			e.Field("session", func(e *jx.Encoder) { encodeSnapshot(e, snap) })
		})
	})
}

// decodePriceInput reads the raw price texts. Numbers are accepted as well
// as strings; null and missing fields are blank.
func decodePriceInput(r *http.Request) (current, original string, _ error) {
	d, err := readBody(r)
	if err != nil {
		return "", "", err
	}
	err = d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "currentPrice":
			v, err := decodeRawAmount(d)
			current = v
			return err
		case "originalPrice":
			v, err := decodeRawAmount(d)
			original = v
			return err
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return "", "", badRequest(errors.Wrap(err, "decode price input"))
	}
	return current, original, nil
}

func decodeRawAmount(d *jx.Decoder) (string, error) {
	switch d.Next() {
	case jx.Null:
		return "", d.Null()
	case jx.Number:
		n, err := d.Num()
		return string(n), err
	default:
		return d.Str()
	}
}

func decodeFlag(r *http.Request, field string) (bool, error) {
	d, err := readBody(r)
	if err != nil {
		return false, err
	}
	var (
		v    bool
		seen bool
	)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != field {
			return d.Skip()
		}
		seen = true
		b, err := d.Bool()
		v = b
		return err
	}); err != nil {
		return false, badRequest(errors.Wrapf(err, "decode %s", field))
	}
	if !seen {
		return false, badRequest(errors.Errorf("%s is required", field))
	}
	return v, nil
}

func encodeSnapshot(e *jx.Encoder, s batch.Snapshot) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("active", func(e *jx.Encoder) { e.Bool(s.Active) })
		e.Field("scopeCategory", func(e *jx.Encoder) { e.Str(s.Filter.Category) })
		e.Field("keyword", func(e *jx.Encoder) { e.Str(s.Filter.Keyword) })
		e.Field("selectedIds", func(e *jx.Encoder) { encodeIDs(e, s.Selected) })
		e.Field("successIds", func(e *jx.Encoder) { encodeIDs(e, s.Succeeded) })
		e.Field("failed", func(e *jx.Encoder) { encodeFailures(e, s.Failed) })
	})
}

func encodeResultFields(e *jx.Encoder, res batch.Result) {
	e.Field("successCount", func(e *jx.Encoder) { e.Int(res.Succeeded) })
	e.Field("failedCount", func(e *jx.Encoder) { e.Int(res.Failed) })
	e.Field("failures", func(e *jx.Encoder) { encodeFailures(e, res.Failures) })
}

func encodeIDs(e *jx.Encoder, ids []catalog.ItemID) {
	e.Arr(func(e *jx.Encoder) {
		for _, id := range ids {
			e.Int64(int64(id))
		}
	})
}

// encodeFailures writes failures as an object keyed by item id, ascending.
func encodeFailures(e *jx.Encoder, failures map[catalog.ItemID]string) {
	ids := make([]catalog.ItemID, 0, len(failures))
	for id := range failures {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	e.Obj(func(e *jx.Encoder) {
		for _, id := range ids {
			e.Field(strconv.FormatInt(int64(id), 10), func(e *jx.Encoder) { e.Str(failures[id]) })
		}
	})
}
