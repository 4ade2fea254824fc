package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeedEnvelope is the body shape returned by the upstream product feed.
type FeedEnvelope struct {
	Products []ProductTransfer `json:"products"`
}

// ProductTransfer is the boundary shape between the feed, the store and API
// clients. ID is optional on the way in and ignored by ToRecord.
type ProductTransfer struct {
	ID                   uint               `json:"id,omitempty"`
	Title                string             `json:"title"`
	Description          string             `json:"description"`
	Category             string             `json:"category"`
	Price                float64            `json:"price"`
	DiscountPercentage   float64            `json:"discountPercentage"`
	Rating               float64            `json:"rating"`
	Stock                int                `json:"stock"`
	Tags                 []string           `json:"tags"`
	Brand                string             `json:"brand,omitempty"`
	SKU                  string             `json:"sku"`
	Weight               float64            `json:"weight"`
	Dimensions           DimensionsTransfer `json:"dimensions"`
	WarrantyInformation  string             `json:"warrantyInformation"`
	ShippingInformation  string             `json:"shippingInformation"`
	AvailabilityStatus   string             `json:"availabilityStatus"`
	ReturnPolicy         string             `json:"returnPolicy"`
	MinimumOrderQuantity int                `json:"minimumOrderQuantity"`
	Meta                 MetaTransfer       `json:"meta"`
	Images               []string           `json:"images"`
	Thumbnail            string             `json:"thumbnail"`
	Reviews              []ReviewTransfer   `json:"reviews"`
}

type DimensionsTransfer struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Depth  float64 `json:"depth"`
}

type MetaTransfer struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Barcode   string    `json:"barcode"`
	QRCode    string    `json:"qrCode"`
}

type ReviewTransfer struct {
	Rating        int       `json:"rating"`
	Comment       string    `json:"comment"`
	Date          time.Time `json:"date"`
	ReviewerName  string    `json:"reviewerName"`
	ReviewerEmail string    `json:"reviewerEmail"`
}

// ToRecord maps a transfer object onto a new record with identity cleared.
func (t ProductTransfer) ToRecord() Product {
	p := Product{
		Title:              t.Title,
		Description:        t.Description,
		Category:           t.Category,
		Price:              decimal.NewFromFloat(t.Price),
		DiscountPercentage: t.DiscountPercentage,
		Rating:             t.Rating,
		Stock:              t.Stock,
		Tags:               cloneStrings(t.Tags),
		Brand:              t.Brand,
		SKU:                t.SKU,
		Weight:             t.Weight,
		Dimensions: Dimensions{
			Width:  t.Dimensions.Width,
			Height: t.Dimensions.Height,
			Depth:  t.Dimensions.Depth,
		},
		WarrantyInformation:  t.WarrantyInformation,
		ShippingInformation:  t.ShippingInformation,
		AvailabilityStatus:   t.AvailabilityStatus,
		ReturnPolicy:         t.ReturnPolicy,
		MinimumOrderQuantity: t.MinimumOrderQuantity,
		Meta: Meta{
			CreatedAt: t.Meta.CreatedAt,
			UpdatedAt: t.Meta.UpdatedAt,
			Barcode:   t.Meta.Barcode,
			QRCode:    t.Meta.QRCode,
		},
		Images:    cloneStrings(t.Images),
		Thumbnail: t.Thumbnail,
	}
	if t.Reviews != nil {
		p.Reviews = make([]Review, 0, len(t.Reviews))
		for _, r := range t.Reviews {
			p.Reviews = append(p.Reviews, Review{
				Rating:        r.Rating,
				Comment:       r.Comment,
				Date:          r.Date,
				ReviewerName:  r.ReviewerName,
				ReviewerEmail: r.ReviewerEmail,
			})
		}
	}
	return p
}

// ToTransfer maps a stored record back onto the boundary shape.
func (p Product) ToTransfer() ProductTransfer {
	t := ProductTransfer{
		ID:                 p.ID,
		Title:              p.Title,
		Description:        p.Description,
		Category:           p.Category,
		Price:              p.Price.InexactFloat64(),
		DiscountPercentage: p.DiscountPercentage,
		Rating:             p.Rating,
		Stock:              p.Stock,
		Tags:               cloneStrings(p.Tags),
		Brand:              p.Brand,
		SKU:                p.SKU,
		Weight:             p.Weight,
		Dimensions: DimensionsTransfer{
			Width:  p.Dimensions.Width,
			Height: p.Dimensions.Height,
			Depth:  p.Dimensions.Depth,
		},
		WarrantyInformation:  p.WarrantyInformation,
		ShippingInformation:  p.ShippingInformation,
		AvailabilityStatus:   p.AvailabilityStatus,
		ReturnPolicy:         p.ReturnPolicy,
		MinimumOrderQuantity: p.MinimumOrderQuantity,
		Meta: MetaTransfer{
			CreatedAt: p.Meta.CreatedAt,
			UpdatedAt: p.Meta.UpdatedAt,
			Barcode:   p.Meta.Barcode,
			QRCode:    p.Meta.QRCode,
		},
		Images:    cloneStrings(p.Images),
		Thumbnail: p.Thumbnail,
	}
	if p.Reviews != nil {
		t.Reviews = make([]ReviewTransfer, 0, len(p.Reviews))
		for _, r := range p.Reviews {
			t.Reviews = append(t.Reviews, ReviewTransfer{
				Rating:        r.Rating,
				Comment:       r.Comment,
				Date:          r.Date,
				ReviewerName:  r.ReviewerName,
				ReviewerEmail: r.ReviewerEmail,
			})
		}
	}
	return t
}

func ToRecords(in []ProductTransfer) []Product {
	out := make([]Product, 0, len(in))
	for _, t := range in {
		out = append(out, t.ToRecord())
	}
	return out
}

func ToTransfers(in []Product) []ProductTransfer {
	out := make([]ProductTransfer, 0, len(in))
	for _, p := range in {
		out = append(out, p.ToTransfer())
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
