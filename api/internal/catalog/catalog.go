// Package catalog holds the immutable dish list the quiz draws from.
package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"
)

var ErrEmpty = errors.New("catalog: no dishes")

// DishRecord is one catalog entry. Price and Weight are display strings and may be empty.
type DishRecord struct {
	Name     string
	Recipe   string
	Price    string
	Weight   string
	ImageURL string
}

// Catalog is read-only after construction and safe for concurrent use.
type Catalog struct {
	dishes []DishRecord
	intn   func(n int) int
}

type Option func(*Catalog)

// WithIntn replaces the random source used by PickRandom. intn must return a value in [0, n)
// and be safe for concurrent use.
func WithIntn(intn func(n int) int) Option {
	return func(c *Catalog) { c.intn = intn }
}

// New validates dishes and builds a catalog over a private copy of them.
func New(dishes []DishRecord, opts ...Option) (*Catalog, error) {
	if len(dishes) == 0 {
		return nil, ErrEmpty
	}
	for i, d := range dishes {
		if strings.TrimSpace(d.Name) == "" {
			return nil, fmt.Errorf("catalog: dish #%d has empty name", i)
		}
	}
	c := &Catalog{
		dishes: append([]DishRecord(nil), dishes...),
		intn:   rand.IntN,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Load reads a JSON catalog file.
func Load(path string, opts ...Option) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open: %w", err)
	}
	defer f.Close()
	return Parse(f, opts...)
}

// Parse decodes a JSON array of dish objects.
func Parse(r io.Reader, opts ...Option) (*Catalog, error) {
	var raw []rawDish
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	dishes := make([]DishRecord, 0, len(raw))
	for i, rd := range raw {
		d, err := rd.record()
		if err != nil {
			return nil, fmt.Errorf("catalog: dish #%d: %w", i, err)
		}
		dishes = append(dishes, d)
	}
	return New(dishes, opts...)
}

func (c *Catalog) Len() int { return len(c.dishes) }

// PickRandom returns a uniformly chosen dish.
func (c *Catalog) PickRandom() DishRecord {
	return c.dishes[c.intn(len(c.dishes))]
}

// FindByName returns the first dish whose name equals name exactly.
func (c *Catalog) FindByName(name string) (DishRecord, bool) {
	for _, d := range c.dishes {
		if d.Name == name {
			return d, true
		}
	}
	return DishRecord{}, false
}

type rawDish struct {
	Name       *string         `json:"name"`
	Recipe     *string         `json:"recipe"`
	Price      json.RawMessage `json:"price"`
	Weight     json.RawMessage `json:"weight"`
	WeightType string          `json:"weight_type"`
	ImageURL   *string         `json:"image_url"`
}

func (rd rawDish) record() (DishRecord, error) {
	if rd.Name == nil {
		return DishRecord{}, errors.New("missing name")
	}
	price, err := displayValue(rd.Price)
	if err != nil {
		return DishRecord{}, fmt.Errorf("price: %w", err)
	}
	weight, err := displayValue(rd.Weight)
	if err != nil {
		return DishRecord{}, fmt.Errorf("weight: %w", err)
	}
	if weight != "" && rd.WeightType != "" && !strings.HasSuffix(weight, rd.WeightType) {
		weight += rd.WeightType
	}
	return DishRecord{
		Name:     strings.TrimSpace(*rd.Name),
		Recipe:   deref(rd.Recipe),
		Price:    price,
		Weight:   weight,
		ImageURL: strings.TrimSpace(deref(rd.ImageURL)),
	}, nil
}

// displayValue renders a JSON string or number as display text. null and absent yield "".
func displayValue(m json.RawMessage) (string, error) {
	m = bytes.TrimSpace(m)
	if len(m) == 0 || bytes.Equal(m, []byte("null")) {
		return "", nil
	}
	if m[0] == '"' {
		var s string
		if err := json.Unmarshal(m, &s); err != nil {
			return "", err
		}
		return strings.TrimSpace(s), nil
	}
	var n json.Number
	if err := json.Unmarshal(m, &n); err != nil {
		return "", fmt.Errorf("want string or number, got %s", m)
	}
	f, err := n.Float64()
	if err != nil {
		return "", err
	}
	return strconv.FormatFloat(f, 'f', -1, 64), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
