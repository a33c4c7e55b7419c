package model

// AppConfig holds application-wide preferences.
type AppConfig struct {
	// Currency handling for new sessions
	ExchangeRate float64        `json:"exchange_rate"` // units of A per one B
	CurrencyA    Currency       `json:"currency_a"`
	CurrencyB    Currency       `json:"currency_b"`
	DefaultMode  ConversionMode `json:"default_mode"`

	// Output devices
	PrinterName    string  `json:"printer_name"`    // empty = system default
	PrintDPI       float64 `json:"print_dpi"`       // raster resolution sent to the printer
	PrintFormat    string  `json:"print_format"`    // "raster" or "pdf"
	PreviewDPI     float64 `json:"preview_dpi"`     // screen pixels per inch at scale 1
	RasterizerPath string  `json:"rasterizer_path"` // pdftoppm binary for PDF previews
	LogoPath       string  `json:"logo_path"`       // shop logo used by labels without a QR text

	// Application preferences
	RecentExports []string `json:"recent_exports"`
	Theme         string   `json:"theme"` // "light", "dark", "system"
}

// Currency describes how a price is decorated when printed.
type Currency struct {
	Code   string `json:"code"`
	Prefix string `json:"prefix"`
	Suffix string `json:"suffix"`
}

// DefaultAppConfig returns an AppConfig populated with sensible defaults.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		ExchangeRate:   BGNPerEUR,
		CurrencyA:      Currency{Code: "BGN", Suffix: " лв."},
		CurrencyB:      Currency{Code: "EUR", Suffix: " €"},
		DefaultMode:    ModeAToB,
		PrintDPI:       300,
		PrintFormat:    "raster",
		PreviewDPI:     96,
		RasterizerPath: "pdftoppm",
		RecentExports:  []string{},
		Theme:          "system",
	}
}

// maxRecentExports bounds the recent exports list.
const maxRecentExports = 10

// AddRecentExport moves path to the front of the recent list.
func (c *AppConfig) AddRecentExport(path string) {
	recent := []string{path}
	for _, p := range c.RecentExports {
		if p != path {
			recent = append(recent, p)
		}
	}
	if len(recent) > maxRecentExports {
		recent = recent[:maxRecentExports]
	}
	c.RecentExports = recent
}
