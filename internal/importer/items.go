package importer

import (
	"github.com/piwi3910/TagSheet/internal/currency"
	"github.com/piwi3910/TagSheet/internal/model"
)

// ExpandItems lays items out as physical cells, one per copy, styled like
// base. The B price is derived through linker; a nil linker leaves it blank.
func ExpandItems(items []model.Item, base model.LabelContent, linker *currency.Linker) []model.LabelContent {
	base.Main.Text, base.Second.Text, base.PriceA.Text, base.PriceB.Text, base.Unit = "", "", "", "", ""

	cells := make([]model.LabelContent, 0, model.TotalCopies(items))
	for _, it := range items {
		c := base
		c.Main.Text = it.NameMain
		c.Second.Text = it.NameSub
		c.PriceA.Text = currency.Normalize(it.PriceBGN)
		c.Unit = it.Unit
		if linker != nil {
			linker.Fill(&c)
		}
		for n := max(it.Copies, 1); n > 0; n-- {
			cells = append(cells, c)
		}
	}
	return cells
}

// CollapseCells turns cells back into items, merging runs of cells with the
// same text into one item with copies. Blank cells are skipped.
func CollapseCells(cells []model.LabelContent) []model.Item {
	var items []model.Item
	for _, c := range cells {
		if c.IsBlank() {
			continue
		}
		if n := len(items); n > 0 {
			last := &items[n-1]
			if last.NameMain == c.Main.Text && last.NameSub == c.Second.Text &&
				last.PriceBGN == c.PriceA.Text && last.Unit == c.Unit {
				last.Copies++
				continue
			}
		}
		items = append(items, model.NewItem(c.Main.Text, c.Second.Text, c.PriceA.Text, c.Unit, 1))
	}
	return items
}
