// Package shoppinglist turns raw cart ingredient rows into a printable shopping list.
package shoppinglist

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/oksasatya/foodgram/internal/domain/entity"
)

// Item is one aggregated (name, unit) entry.
type Item struct {
	Name   string
	Unit   string
	Amount int
}

type key struct{ name, unit string }

// Aggregate groups lines by (name, unit), sums amounts and sorts by name, then unit.
func Aggregate(lines []entity.CartLine) []Item {
	sums := make(map[key]int, len(lines))
	order := make([]key, 0, len(lines))
	for _, l := range lines {
		k := key{l.Name, l.MeasurementUnit}
		if _, ok := sums[k]; !ok {
			order = append(order, k)
		}
		sums[k] += l.Amount
	}

	items := make([]Item, 0, len(order))
	for _, k := range order {
		items = append(items, Item{Name: k.name, Unit: k.unit, Amount: sums[k]})
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := strings.ToLower(items[i].Name), strings.ToLower(items[j].Name)
		if a != b {
			return a < b
		}
		return items[i].Unit < items[j].Unit
	})
	return items
}

// larger maps a base unit to the unit 1000 of it convert to.
var larger = map[string]string{
	"г":  "кг",
	"g":  "kg",
	"мл": "л",
	"ml": "l",
}

var renamed = map[string]string{
	"шт":  "штук",
	"шт.": "штук",
	"pcs": "pieces",
}

// Display returns the amount and unit as they should be printed.
// With normalize set, gram and millilitre amounts of 1000 or more are shown in kilo units and piece units are spelled out.
func (it Item) Display(normalize bool) (string, string) {
	amount := strconv.Itoa(it.Amount)
	if !normalize {
		return amount, it.Unit
	}
	unit := strings.ToLower(strings.TrimSpace(it.Unit))
	if big, ok := larger[unit]; ok && it.Amount >= 1000 {
		return strconv.FormatFloat(float64(it.Amount)/1000, 'f', -1, 64), big
	}
	if name, ok := renamed[unit]; ok {
		return amount, name
	}
	return amount, it.Unit
}

// Lines renders items as numbered lines "{n}. {name} – {amount} {unit}".
func Lines(items []Item, normalize bool) []string {
	out := make([]string, 0, len(items))
	for i, it := range items {
		amount, unit := it.Display(normalize)
		line := fmt.Sprintf("%d. %s – %s %s", i+1, it.Name, amount, unit)
		out = append(out, strings.TrimRight(line, " "))
	}
	return out
}

// RenderText joins lines with newlines. An empty list renders as an empty body.
func RenderText(lines []string) []byte {
	return []byte(strings.Join(lines, "\n"))
}
