package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// Product is one catalog entry. Products are immutable after load; the
// search engine is the only component that holds them.
type Product struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Brand          string    `json:"brand"`
	Description    string    `json:"description"`
	MonthlyCost    float64   `json:"monthly_cost"`
	Storage        string    `json:"storage"`
	DataAllowance  string    `json:"data_allowance"`
	ContractMonths int       `json:"contract_months"`
	Features       []string  `json:"features"`
	URL            string    `json:"url"`
	Embedding      []float32 `json:"-"`

	// Index is the catalog insertion order, assigned by the loader.
	// It is the final ranking tie-break.
	Index int `json:"-"`
}

// SearchableText renders the product for embedding and keyword matching.
func (p Product) SearchableText() string {
	parts := []string{p.Name, p.Brand, p.Description, p.Storage, p.DataAllowance}
	parts = append(parts, p.Features...)
	return strings.Join(parts, " ")
}

// AllowanceTier maps the data allowance to an ordered tier:
// 0 unknown, 1 light (<20GB), 2 medium (<100GB), 3 heavy, 4 unlimited.
func (p Product) AllowanceTier() int {
	return TierRank(p.DataAllowance)
}

// TierRank maps an allowance or tier name to its rank. Accepts both tier
// names (light/medium/heavy/unlimited) and allowance strings ("25GB").
func TierRank(s string) int {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "":
		return 0
	case "light":
		return 1
	case "medium":
		return 2
	case "heavy":
		return 3
	case "unlimited":
		return 4
	}
	if strings.Contains(v, "unlimited") {
		return 4
	}
	gb, ok := parseGB(v)
	if !ok {
		return 0
	}
	switch {
	case gb >= 100:
		return 3
	case gb >= 20:
		return 2
	default:
		return 1
	}
}

func parseGB(s string) (float64, bool) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "gb")
	gb, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return gb, true
}

// inferBrand derives the brand from the product name when the catalog
// entry leaves it empty.
func inferBrand(name string) string {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "iphone"), strings.Contains(n, "apple"):
		return "Apple"
	case strings.Contains(n, "samsung"), strings.Contains(n, "galaxy"):
		return "Samsung"
	case strings.Contains(n, "google"), strings.Contains(n, "pixel"):
		return "Google"
	case strings.Contains(n, "oneplus"):
		return "OnePlus"
	default:
		return "Unknown"
	}
}

func (p Product) String() string {
	return fmt.Sprintf("%s (%s, £%.2f/month)", p.Name, p.Brand, p.MonthlyCost)
}
