package model

import "github.com/google/uuid"

// Item is one logical product row as it appears in CSV or Excel files.
// Copies is expanded into physical cells at layout time, never in storage.
type Item struct {
	ID       string `json:"id"`
	NameMain string `json:"name_main"`
	NameSub  string `json:"name_sub"`
	PriceBGN string `json:"price_bgn"`
	Unit     string `json:"unit"`
	Copies   int    `json:"copies"`
}

func NewItem(nameMain, nameSub, priceBGN, unit string, copies int) Item {
	if copies < 1 {
		copies = 1
	}
	return Item{
		ID:       uuid.New().String()[:8],
		NameMain: nameMain,
		NameSub:  nameSub,
		PriceBGN: priceBGN,
		Unit:     unit,
		Copies:   copies,
	}
}

// TotalCopies returns the number of cells the items occupy.
func TotalCopies(items []Item) int {
	total := 0
	for _, it := range items {
		if it.Copies > 0 {
			total += it.Copies
		}
	}
	return total
}
