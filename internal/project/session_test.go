package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/TagSheet/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoadSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	s := model.NewSession(3)
	s.Mode = model.ModeBoth
	s.Cells[0].Main.Text = "Кашкавал"
	s.Cells[0].PriceA.Text = "18.9"
	s.Cells[0].PriceB.Text = "9.66"
	s.Cells[0].Unit = "kg"
	s.Cells[2].Main.FontColor = model.RGB{R: 200}
	s.Cells[2].Logo = model.Logo{Position: model.LogoBottomRight, SizeMM: 9, Opacity: 0.5, QRText: "https://shop.example/p/7"}

	require.NoError(t, SaveSession(path, s))
	loaded, err := LoadSession(path)
	require.NoError(t, err)
	assert.Equal(t, s, loaded)
}

func TestLoadSession_MissingFile(t *testing.T) {
	s, err := LoadSession(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, err)
	assert.Empty(t, s.Cells)
	assert.Equal(t, model.ModeAToB, s.Mode)
}

func TestLoadSession_Corrupt(t *testing.T) {
	path := writeFile(t, "session.json", `{"cells": [`)
	s, err := LoadSession(path)
	assert.Error(t, err)
	assert.Empty(t, s.Cells)
}

func TestDecodeSession_MissingStyleKeysKeepDefaults(t *testing.T) {
	s, err := DecodeSession([]byte(`{"version": 2, "cells": [{"main": {"text": "Eggs"}, "price_a": {"text": "4.2", "size_pt": 400}}]}`))
	require.NoError(t, err)
	require.Len(t, s.Cells, 1)

	def := model.NewLabelContent()
	c := s.Cells[0]
	assert.Equal(t, "Eggs", c.Main.Text)
	assert.Equal(t, def.Main.FieldStyle, c.Main.FieldStyle)
	assert.Equal(t, model.MaxFontSize, c.PriceA.SizePt)
	assert.Equal(t, def.Logo, c.Logo)
	assert.Equal(t, model.BGNPerEUR, s.ExchangeRate)
}

func TestDecodeSession_LegacyFlat(t *testing.T) {
	s, err := DecodeSession([]byte(`[
		{"name_main": "Milk", "name_sub": "3.6%", "price_bgn": "2,49 лв.", "price_eur": "", "unit": "l", "copies": 3},
		{"name_main": "Salt", "price_bgn": 1.2, "price_eur": 0.61}
	]`))
	require.NoError(t, err)
	require.Len(t, s.Cells, 4)

	milk := s.Cells[0]
	assert.Equal(t, "Milk", milk.Main.Text)
	assert.Equal(t, "3.6%", milk.Second.Text)
	assert.Equal(t, "2.49", milk.PriceA.Text)
	assert.Equal(t, "1.27", milk.PriceB.Text, "missing EUR is derived")
	assert.Equal(t, "l", milk.Unit)
	assert.Equal(t, milk, s.Cells[2])

	salt := s.Cells[3]
	assert.Equal(t, "1.2", salt.PriceA.Text)
	assert.Equal(t, "0.61", salt.PriceB.Text)
	assert.Equal(t, model.SessionVersion, s.Version)
}

func TestDecodeSession_LegacyFlatInItemsObject(t *testing.T) {
	s, err := DecodeSession([]byte(`{"items": [{"name_main": "Tea", "price_bgn": "5"}]}`))
	require.NoError(t, err)
	require.Len(t, s.Cells, 1)
	assert.Equal(t, "Tea", s.Cells[0].Main.Text)
}

func TestDecodeSession_LegacyNested(t *testing.T) {
	s, err := DecodeSession([]byte(`{"labels": [{
		"main": {"text": "Honey", "font": "Go Mono", "size": 20, "bold": false, "color": "#112233"},
		"second": {"text": "500 g"},
		"bgn": {"text": "12.50 лв.", "size": 22},
		"eur": {"text": "6.39", "bg": "#ffff00"}
	}]}`))
	require.NoError(t, err)
	require.Len(t, s.Cells, 1)

	c := s.Cells[0]
	assert.Equal(t, "Honey", c.Main.Text)
	assert.Equal(t, "Go Mono", c.Main.FontFamily)
	assert.Equal(t, 20, c.Main.SizePt)
	assert.False(t, c.Main.Bold)
	assert.Equal(t, model.RGB{R: 0x11, G: 0x22, B: 0x33}, c.Main.FontColor)
	assert.Equal(t, "500 g", c.Second.Text)
	assert.Equal(t, "12.5", c.PriceA.Text)
	assert.Equal(t, 22, c.PriceA.SizePt)
	assert.True(t, c.PriceA.Bold, "unset style keys keep defaults")
	assert.Equal(t, "6.39", c.PriceB.Text)
	assert.Equal(t, model.RGB{R: 255, G: 255}, c.PriceB.BgColor)
}

func TestDecodeSession_InvalidModeFallsBack(t *testing.T) {
	s, err := DecodeSession([]byte(`{"conversion_mode": "sideways", "exchange_rate": -1, "cells": []}`))
	require.NoError(t, err)
	assert.Equal(t, model.ModeAToB, s.Mode)
	assert.Equal(t, model.BGNPerEUR, s.ExchangeRate)
}

func TestSaveSession_WritesCanonicalVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	s := model.NewSession(0)
	s.Version = 1
	require.NoError(t, SaveSession(path, s))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"version": 2`)
	assert.Contains(t, string(data), `"cells": []`)
}
