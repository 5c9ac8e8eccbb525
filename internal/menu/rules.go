package menu

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

type record = map[string]any

// extractor pulls one field out of a vendor record.
type extractor[T any] func(rec record) (T, bool)

// firstOf applies rules in order and returns the first hit, or def.
func firstOf[T any](rec record, def T, rules ...extractor[T]) T {
	for _, rule := range rules {
		if v, ok := rule(rec); ok {
			return v
		}
	}
	return def
}

// lookup walks a path of object keys (string) and array indices (int).
func lookup(v any, path ...any) (any, bool) {
	for _, step := range path {
		switch s := step.(type) {
		case string:
			obj, ok := v.(map[string]any)
			if !ok {
				return nil, false
			}
			if v, ok = obj[s]; !ok {
				return nil, false
			}
		case int:
			arr, ok := v.([]any)
			if !ok || s >= len(arr) {
				return nil, false
			}
			v = arr[s]
		}
	}
	return v, v != nil
}

func stringAt(path ...any) extractor[string] {
	return func(rec record) (string, bool) {
		v, ok := lookup(rec, path...)
		if !ok {
			return "", false
		}
		switch s := v.(type) {
		case string:
			s = strings.TrimSpace(s)
			return s, s != ""
		case json.Number:
			return s.String(), true
		}
		return "", false
	}
}

func amountAt(path ...any) extractor[int64] {
	return func(rec record) (int64, bool) {
		v, ok := lookup(rec, path...)
		if !ok {
			return 0, false
		}
		n, ok := v.(json.Number)
		if !ok {
			return 0, false
		}
		if i, err := n.Int64(); err == nil {
			return i, i >= 0
		}
		f, err := strconv.ParseFloat(n.String(), 64)
		if err != nil || f < 0 {
			return 0, false
		}
		return int64(math.Round(f)), true
	}
}

var (
	idRules = []extractor[string]{
		stringAt("uuid"),
		stringAt("id"),
		stringAt("productId"),
	}
	priceRules = []extractor[int64]{
		amountAt("variants", 0, "price", "amount"),
		amountAt("price", "amount"),
		amountAt("price"),
	}
	categoryRules = []extractor[string]{
		stringAt("category", "name"),
		stringAt("categories", 0, "name"),
	}
	imageRules = []extractor[string]{
		stringAt("imageUrl"),
		stringAt("image"),
		stringAt("presentation", "imageUrl"),
	}
)

const (
	defaultName     = "Unnamed Product"
	defaultCategory = "Other"
	coffeeCategory  = "Coffee"
)

var coffeeKeywords = []string{"coffee", "latte", "cappuccino", "espresso", "americano", "flat white", "mocha"}

func isCoffee(name string) bool {
	name = strings.ToLower(name)
	for _, kw := range coffeeKeywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}
