package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// dish is one catalog entry, in the layout catalog.Load reads.
type dish struct {
	Name     string  `json:"name"`
	Recipe   string  `json:"recipe"`
	Price    float64 `json:"price"`
	Weight   *string `json:"weight"`
	ImageURL *string `json:"image_url"`
}

type nextData struct {
	Props struct {
		App struct {
			Menu []menuItem `json:"menu"`
		} `json:"app"`
	} `json:"props"`
}

type menuItem struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       float64         `json:"price"` // minor units
	Weight      json.RawMessage `json:"weight"`
	WeightType  string          `json:"weightType"`
	Media       []struct {
		URL string `json:"url"`
	} `json:"media"`
}

// parseMenu extracts the dishes from a __NEXT_DATA__ payload. Items without a
// name are skipped and counted.
func parseMenu(raw []byte) (dishes []dish, skipped int, err error) {
	var nd nextData
	if err := json.Unmarshal(raw, &nd); err != nil {
		return nil, 0, fmt.Errorf("decode __NEXT_DATA__: %w", err)
	}
	if nd.Props.App.Menu == nil {
		return nil, 0, fmt.Errorf("props.app.menu not found")
	}
	for _, it := range nd.Props.App.Menu {
		name := strings.TrimSpace(it.Name)
		if name == "" {
			skipped++
			continue
		}
		d := dish{
			Name:   name,
			Recipe: it.Description,
			Price:  it.Price / 100,
		}
		if w := rawScalar(it.Weight); w != "" && w != "0" && it.WeightType != "" {
			s := w + it.WeightType
			d.Weight = &s
		}
		if len(it.Media) > 0 && it.Media[0].URL != "" {
			u := it.Media[0].URL
			d.ImageURL = &u
		}
		dishes = append(dishes, d)
	}
	return dishes, skipped, nil
}

// rawScalar renders a JSON string or number as text; anything else yields "".
func rawScalar(m json.RawMessage) string {
	m = bytes.TrimSpace(m)
	if len(m) == 0 || bytes.Equal(m, []byte("null")) {
		return ""
	}
	if m[0] == '"' {
		var s string
		if err := json.Unmarshal(m, &s); err != nil {
			return ""
		}
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(m, &n); err != nil {
		return ""
	}
	return n.String()
}

func encodeCatalog(dishes []dish) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(dishes); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
