package costs

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

type Unit string

const (
	UnitToken   Unit = "token"
	UnitImage   Unit = "image"
	UnitRequest Unit = "request"
)

// Price is a static rate. Token prices are per 1000 tokens; image and
// request prices are per unit.
type Price struct {
	Service     string  `yaml:"service" json:"service"`
	Operation   string  `yaml:"operation" json:"operation"` // "*" matches any operation of the service
	Unit        Unit    `yaml:"unit" json:"unit"`
	InputPer1K  float64 `yaml:"input_per_1k,omitempty" json:"input_per_1k,omitempty"`
	OutputPer1K float64 `yaml:"output_per_1k,omitempty" json:"output_per_1k,omitempty"`
	PerUnit     float64 `yaml:"per_unit,omitempty" json:"per_unit,omitempty"`
}

type priceKey struct {
	service   string
	operation string
}

type Pricing struct {
	prices map[priceKey]Price
}

var defaultPrices = []Price{
	{Service: "gemini", Operation: "*", Unit: UnitToken, InputPer1K: 0.000075, OutputPer1K: 0.0003},
	{Service: "imagen", Operation: "image_generation", Unit: UnitImage, PerUnit: 0.04},
	{Service: "replicate", Operation: "image_generation", Unit: UnitImage, PerUnit: 0.003},
	{Service: "replicate", Operation: "background_removal", Unit: UnitImage, PerUnit: 0.0005},
	{Service: "s3", Operation: "upload", Unit: UnitRequest, PerUnit: 0.000005},
}

func DefaultPricing() *Pricing {
	p := &Pricing{prices: make(map[priceKey]Price)}
	for _, pr := range defaultPrices {
		p.Set(pr)
	}
	return p
}

type pricingFile struct {
	Prices []Price `yaml:"prices"`
}

// LoadPricing returns the default table with the rows of a YAML file laid
// over it. An empty path returns the defaults.
func LoadPricing(path string) (*Pricing, error) {
	p := DefaultPricing()
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pricing file: %w", err)
	}
	var f pricingFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse pricing file: %w", err)
	}
	for _, pr := range f.Prices {
		if pr.Service == "" || pr.Operation == "" {
			return nil, fmt.Errorf("pricing row needs service and operation: %+v", pr)
		}
		switch pr.Unit {
		case UnitToken, UnitImage, UnitRequest:
		default:
			return nil, fmt.Errorf("pricing row %s/%s: unknown unit %q", pr.Service, pr.Operation, pr.Unit)
		}
		p.Set(pr)
	}
	return p, nil
}

func (p *Pricing) Set(pr Price) {
	p.prices[priceKey{pr.Service, pr.Operation}] = pr
}

func (p *Pricing) lookup(service, operation string) (Price, bool) {
	if pr, ok := p.prices[priceKey{service, operation}]; ok {
		return pr, true
	}
	pr, ok := p.prices[priceKey{service, "*"}]
	return pr, ok
}

// Amount prices a usage event. ok is false when no rate is configured.
func (p *Pricing) Amount(u Usage) (amount float64, ok bool) {
	pr, ok := p.lookup(u.Service, u.Operation)
	if !ok {
		return 0, false
	}
	switch pr.Unit {
	case UnitToken:
		return float64(u.InputTokens)/1000*pr.InputPer1K + float64(u.OutputTokens)/1000*pr.OutputPer1K, true
	case UnitImage:
		return float64(atLeastOne(u.Images)) * pr.PerUnit, true
	case UnitRequest:
		return float64(atLeastOne(u.Requests)) * pr.PerUnit, true
	}
	return 0, false
}

// Rows returns the table sorted by service then operation.
func (p *Pricing) Rows() []Price {
	rows := make([]Price, 0, len(p.prices))
	for _, pr := range p.prices {
		rows = append(rows, pr)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Service != rows[j].Service {
			return rows[i].Service < rows[j].Service
		}
		return rows[i].Operation < rows[j].Operation
	})
	return rows
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
