package config

// Document is a decoded configuration file.
type Document struct {
	Name              string      `json:"name" yaml:"name"`
	CollectionName    string      `json:"collectionName,omitempty" yaml:"collectionName,omitempty"`
	Symbol            string      `json:"symbol" yaml:"symbol"`
	Description       string      `json:"description" yaml:"description"`
	ExternalURL       string      `json:"externalUrl,omitempty" yaml:"externalUrl,omitempty"`
	Creators          []Creator   `json:"creators,omitempty" yaml:"creators,omitempty"`
	RoyaltyPercentage *float64    `json:"royaltyPercentage,omitempty" yaml:"royaltyPercentage,omitempty"`
	Collection        *Collection `json:"collection,omitempty" yaml:"collection,omitempty"`

	// Attributes declares every layer in document order.
	Attributes Layers `json:"attributes" yaml:"attributes"`

	// LayerOrder overrides the resolution order. When set it must list
	// every declared layer exactly once.
	LayerOrder []string `json:"layerOrder,omitempty" yaml:"layerOrder,omitempty"`

	// GuaranteedAttributeRolls holds value lists, one value per layer in
	// resolution order, meta layers included.
	GuaranteedAttributeRolls [][]string `json:"guaranteedAttributeRolls,omitempty" yaml:"guaranteedAttributeRolls,omitempty"`

	Amount        int         `json:"amount" yaml:"amount"`
	RequireUnique bool        `json:"requireUnique,omitempty" yaml:"requireUnique,omitempty"`
	MaxRetries    *int        `json:"maxRetries,omitempty" yaml:"maxRetries,omitempty"`
	Uniqueness    *Uniqueness `json:"uniqueness,omitempty" yaml:"uniqueness,omitempty"`
}

// Creator is a royalty recipient.
type Creator struct {
	Address string `json:"address" yaml:"address"`
	Share   int    `json:"share" yaml:"share"`
}

// Collection groups items for marketplaces.
type Collection struct {
	Name   string `json:"name" yaml:"name"`
	Family string `json:"family" yaml:"family"`
}

// Uniqueness tunes how duplicates are detected when requireUnique is set.
type Uniqueness struct {
	IncludeMeta       bool `json:"includeMeta,omitempty" yaml:"includeMeta,omitempty"`
	IncludeGuaranteed bool `json:"includeGuaranteed,omitempty" yaml:"includeGuaranteed,omitempty"`
}

// Layer is one declared attribute layer.
type Layer struct {
	Name    string
	Entries []Entry
}

// Entry is one key of a layer block. A numeric entry maps a value name to
// a weight. A nested entry maps a condition key to a weighted table.
type Entry struct {
	Key    string
	Weight float64

	// Table is non-nil for nested entries, even when the nested object is
	// empty.
	Table []Weighted
}

// Nested reports whether the entry is a conditional table.
func (e Entry) Nested() bool {
	return e.Table != nil
}

// Weighted is a value name with its weight.
type Weighted struct {
	Name   string
	Weight float64
}

// Layers is the ordered attributes block.
type Layers []Layer

// Names returns layer names in declaration order.
func (l Layers) Names() []string {
	names := make([]string, len(l))
	for i, layer := range l {
		names[i] = layer.Name
	}
	return names
}

// Lookup returns the layer with the given name.
func (l Layers) Lookup(name string) (Layer, bool) {
	for _, layer := range l {
		if layer.Name == name {
			return layer, true
		}
	}
	return Layer{}, false
}
