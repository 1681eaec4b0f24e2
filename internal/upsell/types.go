package upsell

// Offer is one post-recommendation add-on proposal.
type Offer struct {
	ID          string `yaml:"id" json:"id"`
	Category    string `yaml:"-" json:"category"`
	Name        string `yaml:"name" json:"name"`
	Price       string `yaml:"price" json:"price"`
	Description string `yaml:"description" json:"description"`
}

// Category is an ordered group of offers. Category order in the catalog
// is the presentation priority.
type Category struct {
	Name   string  `yaml:"name"`
	Offers []Offer `yaml:"offers"`
}

// Catalog is the full, immutable offer configuration.
type Catalog struct {
	Categories []Category `yaml:"categories"`
}
