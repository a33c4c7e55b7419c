package project

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/piwi3910/TagSheet/internal/currency"
	"github.com/piwi3910/TagSheet/internal/model"
)

// SaveSession writes the canonical session document atomically.
func SaveSession(path string, s model.Session) error {
	s.Version = model.SessionVersion
	if s.Cells == nil {
		s.Cells = []model.LabelContent{}
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

// LoadSession reads a session in the canonical form or either legacy form
// and returns it migrated to the canonical schema. Cells are not yet
// reconciled to the grid; callers do that once the calibration is known.
// A missing file yields an empty session with no error; a corrupt one an
// empty session and the parse error.
func LoadSession(path string) (model.Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.NewSession(0), nil
		}
		return model.NewSession(0), err
	}
	s, err := DecodeSession(data)
	if err != nil {
		return model.NewSession(0), fmt.Errorf("corrupt session file %s: %w", path, err)
	}
	return s, nil
}

// DecodeSession parses a session document. Three shapes are accepted:
//
//	canonical      {"version": 2, "conversion_mode", "exchange_rate", "cells": [{main, second, price_a, price_b, unit, logo}]}
//	legacy flat    [{name_main, name_sub, price_bgn, price_eur, unit, copies}] or {"items": [...]}
//	legacy nested  [{main, second, bgn, eur}] or {"labels": [...]}
//
// Every cell is decoded over the default content, so missing style keys
// keep their defaults.
func DecodeSession(data []byte) (model.Session, error) {
	s := model.NewSession(0)

	var records []json.RawMessage
	var doc struct {
		Version      int                  `json:"version"`
		Mode         model.ConversionMode `json:"conversion_mode"`
		ExchangeRate float64              `json:"exchange_rate"`
		Cells        []json.RawMessage    `json:"cells"`
		Items        []json.RawMessage    `json:"items"`
		Labels       []json.RawMessage    `json:"labels"`
	}
	if err := json.Unmarshal(data, &records); err != nil {
		if err := json.Unmarshal(data, &doc); err != nil {
			return s, err
		}
		if doc.Mode.Valid() {
			s.Mode = doc.Mode
		}
		if doc.ExchangeRate > 0 {
			s.ExchangeRate = doc.ExchangeRate
		}
		switch {
		case doc.Cells != nil:
			records = doc.Cells
		case doc.Items != nil:
			records = doc.Items
		default:
			records = doc.Labels
		}
	}

	migrated := false
	for i, raw := range records {
		cells, legacy, err := decodeRecord(raw, s.ExchangeRate)
		if err != nil {
			return model.NewSession(0), fmt.Errorf("record %d: %w", i+1, err)
		}
		migrated = migrated || legacy
		s.Cells = append(s.Cells, cells...)
	}
	if migrated || (doc.Version != 0 && doc.Version < model.SessionVersion) {
		slog.Info("migrated legacy session", "from_version", doc.Version, "cells", len(s.Cells))
	}
	s.Version = model.SessionVersion
	return s, nil
}

// decodeRecord turns one stored record into one or more cells.
func decodeRecord(raw json.RawMessage, rate float64) ([]model.LabelContent, bool, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil, false, err
	}

	switch {
	case has(keys, "name_main", "name_sub", "price_bgn", "price_eur"):
		var r flatRecord
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, true, err
		}
		return r.cells(rate), true, nil

	case has(keys, "bgn", "eur"):
		var r nestedRecord
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, true, err
		}
		return []model.LabelContent{r.cell()}, true, nil
	}

	c := model.NewLabelContent()
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, false, err
	}
	return []model.LabelContent{c.Normalize()}, false, nil
}

func has(keys map[string]json.RawMessage, names ...string) bool {
	for _, n := range names {
		if _, ok := keys[n]; ok {
			return true
		}
	}
	return false
}

// flatRecord is the oldest format: one row per product, duplicated into
// Copies physical cells.
type flatRecord struct {
	NameMain string    `json:"name_main"`
	NameSub  string    `json:"name_sub"`
	PriceBGN flexPrice `json:"price_bgn"`
	PriceEUR flexPrice `json:"price_eur"`
	Unit     string    `json:"unit"`
	Copies   int       `json:"copies"`
}

func (r flatRecord) cells(rate float64) []model.LabelContent {
	c := model.NewLabelContent()
	c.Main.Text = r.NameMain
	c.Second.Text = r.NameSub
	c.PriceA.Text = currency.Normalize(string(r.PriceBGN))
	c.PriceB.Text = currency.Normalize(string(r.PriceEUR))
	if c.PriceB.Text == "" && c.PriceA.Text != "" && rate > 0 {
		c.PriceB.Text = currency.Format(currency.AToB(currency.Parse(c.PriceA.Text), rate))
	}
	c.Unit = r.Unit

	n := max(r.Copies, 1)
	out := make([]model.LabelContent, n)
	for i := range out {
		out[i] = c
	}
	return out
}

// nestedRecord is the second format: per-field objects keyed by currency
// code.
type nestedRecord struct {
	Main   legacyField `json:"main"`
	Second legacyField `json:"second"`
	BGN    legacyField `json:"bgn"`
	EUR    legacyField `json:"eur"`
	Unit   string      `json:"unit"`
	Logo   *model.Logo `json:"logo"`
}

func (r nestedRecord) cell() model.LabelContent {
	c := model.NewLabelContent()
	r.Main.apply(&c.Main, false)
	r.Second.apply(&c.Second, false)
	r.BGN.apply(&c.PriceA, true)
	r.EUR.apply(&c.PriceB, true)
	c.Unit = r.Unit
	if r.Logo != nil {
		c.Logo = *r.Logo
	}
	return c.Normalize()
}

// legacyField accepts both the short keys of the nested format and the
// canonical ones.
type legacyField struct {
	Text       string       `json:"text"`
	Font       string       `json:"font"`
	FontFamily string       `json:"font_family"`
	Size       int          `json:"size"`
	SizePt     int          `json:"size_pt"`
	Bold       *bool        `json:"bold"`
	Italic     *bool        `json:"italic"`
	Align      *model.Align `json:"align"`
	Color      *model.RGB   `json:"color"`
	FontColor  *model.RGB   `json:"font_color"`
	Bg         *model.RGB   `json:"bg"`
	BgColor    *model.RGB   `json:"bg_color"`
}

func (l legacyField) apply(f *model.TextField, price bool) {
	f.Text = l.Text
	if price {
		f.Text = currency.Normalize(l.Text)
	}
	var p model.StylePatch
	if family := firstNonEmpty(l.FontFamily, l.Font); family != "" {
		p.FontFamily = &family
	}
	if size := max(l.SizePt, l.Size); size > 0 {
		p.SizePt = &size
	}
	p.Bold, p.Italic, p.Align = l.Bold, l.Italic, l.Align
	p.FontColor = firstColor(l.FontColor, l.Color)
	p.BgColor = firstColor(l.BgColor, l.Bg)
	f.FieldStyle = p.Apply(f.FieldStyle)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstColor(colors ...*model.RGB) *model.RGB {
	for _, c := range colors {
		if c != nil {
			return c
		}
	}
	return nil
}

// flexPrice accepts a price stored either as a JSON string or a number.
type flexPrice string

func (p *flexPrice) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = flexPrice(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("price: %w", err)
	}
	*p = flexPrice(strconv.FormatFloat(f, 'f', -1, 64))
	return nil
}
