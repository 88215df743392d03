package metadata

import (
	"math"
	"strconv"

	"github.com/roach88/resin/internal/config"
	"github.com/roach88/resin/internal/ir"
)

// Record is one item's metadata document.
type Record struct {
	Name                 string          `json:"name"`
	Symbol               string          `json:"symbol"`
	Description          string          `json:"description"`
	SellerFeeBasisPoints int             `json:"seller_fee_basis_points"`
	Image                string          `json:"image"`
	ExternalURL          string          `json:"external_url"`
	Edition              int             `json:"edition"`
	Attributes           ir.AttributeSet `json:"attributes"`
	Properties           Properties      `json:"properties"`
	Collection           *Collection     `json:"collection,omitempty"`
}

// Properties describes the item's files and creators.
type Properties struct {
	Files    []File    `json:"files"`
	Category string    `json:"category"`
	Creators []Creator `json:"creators"`
}

// File is a media file belonging to an item.
type File struct {
	URI  string `json:"uri"`
	Type string `json:"type"`
}

// Creator is a royalty recipient.
type Creator struct {
	Address string `json:"address"`
	Share   int    `json:"share"`
}

// Collection groups items for marketplaces.
type Collection struct {
	Name   string `json:"name"`
	Family string `json:"family"`
}

// Info holds the collection-level fields copied into every record.
type Info struct {
	Name                 string
	Symbol               string
	Description          string
	ExternalURL          string
	SellerFeeBasisPoints int
	Creators             []Creator
	Collection           *Collection
}

// InfoFrom extracts record fields from a configuration document.
// Royalties are converted from a percentage to basis points. collectionName
// names the record's collection when the collection block leaves it out.
func InfoFrom(doc *config.Document) Info {
	info := Info{
		Name:        doc.Name,
		Symbol:      doc.Symbol,
		Description: doc.Description,
		ExternalURL: doc.ExternalURL,
		Creators:    make([]Creator, 0, len(doc.Creators)),
	}
	if doc.RoyaltyPercentage != nil {
		info.SellerFeeBasisPoints = int(math.Round(*doc.RoyaltyPercentage * 100))
	}
	for _, c := range doc.Creators {
		info.Creators = append(info.Creators, Creator{Address: c.Address, Share: c.Share})
	}
	switch {
	case doc.Collection != nil:
		info.Collection = &Collection{Name: doc.Collection.Name, Family: doc.Collection.Family}
		if info.Collection.Name == "" {
			info.Collection.Name = doc.CollectionName
		}
	case doc.CollectionName != "":
		info.Collection = &Collection{Name: doc.CollectionName}
	}
	return info
}

// ImageName returns the image file name for item index.
func ImageName(index int) string {
	return strconv.Itoa(index) + ".png"
}

// NewRecord builds the side-channel record for item index: every trait is
// kept with its raw value. Use Public for the marketplace view.
func NewRecord(info Info, index int, set ir.AttributeSet) *Record {
	image := ImageName(index)
	creators := info.Creators
	if creators == nil {
		creators = []Creator{}
	}
	return &Record{
		Name:                 info.Name + " #" + strconv.Itoa(index),
		Symbol:               info.Symbol,
		Description:          info.Description,
		SellerFeeBasisPoints: info.SellerFeeBasisPoints,
		Image:                image,
		ExternalURL:          info.ExternalURL,
		Edition:              0,
		Attributes:           set.Clone(),
		Properties: Properties{
			Files:    []File{{URI: image, Type: "image/png"}},
			Category: "image",
			Creators: creators,
		},
		Collection: info.Collection,
	}
}

// Public returns a copy of r with meta traits removed and values shown
// without their file extension.
func (r *Record) Public() *Record {
	out := *r
	out.Attributes = r.Attributes.Public().Display()
	return &out
}
