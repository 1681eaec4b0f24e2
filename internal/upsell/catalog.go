package upsell

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"
)

// LoadCatalog reads the offer catalog from a YAML file. When the file
// does not exist the built-in defaults are used.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultCatalog(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading offers %s: %w", path, err)
	}

	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parsing offers %s: %w", path, err)
	}
	cat.fixup()

	if len(cat.Categories) == 0 {
		return nil, fmt.Errorf("offers %s: no categories defined", path)
	}
	return &cat, nil
}

// fixup stamps each offer with its category and generates ids where the
// file omits them.
func (c *Catalog) fixup() {
	for ci := range c.Categories {
		cat := &c.Categories[ci]
		for oi := range cat.Offers {
			cat.Offers[oi].Category = cat.Name
			if cat.Offers[oi].ID == "" {
				cat.Offers[oi].ID = fmt.Sprintf("%s-%d", cat.Name, oi)
			}
		}
	}
}

// Find returns the offer with the given id, or nil.
func (c *Catalog) Find(offerID string) *Offer {
	for ci := range c.Categories {
		for oi := range c.Categories[ci].Offers {
			if c.Categories[ci].Offers[oi].ID == offerID {
				return &c.Categories[ci].Offers[oi]
			}
		}
	}
	return nil
}

// DefaultCatalog returns the built-in offer tables: insurance first,
// then accessories, then service add-ons.
func DefaultCatalog() *Catalog {
	cat := &Catalog{
		Categories: []Category{
			{
				Name: "insurance",
				Offers: []Offer{
					{
						ID:          "insurance-screen-damage",
						Name:        "Screen Damage Insurance",
						Price:       "£5 per month",
						Description: "Insures your device against accidental damage to the front screen, excluding liquid, catastrophic or cosmetic damage.",
					},
					{
						ID:          "insurance-full-cover",
						Name:        "Loss, theft, damage and breakdown cover",
						Price:       "£13.50 per month",
						Description: "Insures your device against loss, theft, damage and breakdown outside of the manufacturer's warranty.",
					},
					{
						ID:          "insurance-damage-breakdown",
						Name:        "Damage and breakdown cover",
						Price:       "£8.50 per month",
						Description: "Insures your device against damage and breakdown outside of the manufacturer's warranty.",
					},
				},
			},
			{
				Name: "accessory",
				Offers: []Offer{
					{
						ID:          "accessory-case-protector",
						Name:        "Caseym Case & Tempered Glass Black",
						Price:       "£29.99",
						Description: "Eco-conscious protection pack with a biodegradable matte case and a tempered glass screen protector.",
					},
					{
						ID:          "accessory-earbuds",
						Name:        "JLab GO Air Pop Slate",
						Price:       "£24.99",
						Description: "32+ hours Bluetooth 5.1 playtime, Custom EQ3 Sound, touch sensors.",
					},
					{
						ID:          "accessory-charger",
						Name:        "Belkin 30W Type C Adapter White",
						Price:       "£24.99",
						Description: "30 Watt USB-C wall charger with fast charging, 0-50% in 24 minutes.",
					},
				},
			},
			{
				Name: "service",
				Offers: []Offer{
					{
						ID:          "service-apple-watch",
						Name:        "Apple Watch Series 10 (GPS+4G) Cellular 46mm Aluminium",
						Price:       "£499",
						Description: "Advanced health and fitness features on a bigger screen, plus faster charging.",
					},
					{
						ID:          "service-watch-ultra",
						Name:        "Apple Watch Ultra 2 (GPS+4G) Cellular 49mm Black Titanium",
						Price:       "£799",
						Description: "Built for water-based adventures with water temperature and open-water route maps.",
					},
				},
			},
		},
	}
	cat.fixup()
	return cat
}
