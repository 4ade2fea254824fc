package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a persisted catalog record. ID is assigned by the store.
type Product struct {
	ID                   uint            `gorm:"primaryKey" json:"id"`
	Title                string          `gorm:"size:255;not null" json:"title"`
	Description          string          `gorm:"size:1000" json:"description"`
	Category             string          `gorm:"size:120;index" json:"category"`
	Price                decimal.Decimal `gorm:"type:numeric(12,2);not null;index" json:"price"`
	DiscountPercentage   float64         `json:"discountPercentage"`
	Rating               float64         `json:"rating"`
	Stock                int             `json:"stock"`
	Tags                 []string        `gorm:"type:text;serializer:json" json:"tags"`
	Brand                string          `gorm:"size:120" json:"brand"`
	SKU                  string          `gorm:"column:sku;size:64;not null;uniqueIndex" json:"sku"`
	Weight               float64         `json:"weight"`
	Dimensions           Dimensions      `gorm:"embedded;embeddedPrefix:dimension_" json:"dimensions"`
	WarrantyInformation  string          `json:"warrantyInformation"`
	ShippingInformation  string          `json:"shippingInformation"`
	AvailabilityStatus   string          `gorm:"size:64" json:"availabilityStatus"`
	ReturnPolicy         string          `json:"returnPolicy"`
	MinimumOrderQuantity int             `json:"minimumOrderQuantity"`
	Meta                 Meta            `gorm:"embedded;embeddedPrefix:meta_" json:"meta"`
	Images               []string        `gorm:"type:text;serializer:json" json:"images"`
	Thumbnail            string          `json:"thumbnail"`
	Reviews              []Review        `gorm:"type:text;serializer:json" json:"reviews"`
	IngestedAt           time.Time       `gorm:"autoCreateTime" json:"-"`
	RefreshedAt          time.Time       `gorm:"autoUpdateTime" json:"-"`
}

type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Depth  float64 `json:"depth"`
}

// Meta carries upstream timestamps verbatim, so gorm time tracking is off.
type Meta struct {
	CreatedAt time.Time `gorm:"autoCreateTime:false" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false" json:"updatedAt"`
	Barcode   string    `gorm:"size:64" json:"barcode"`
	QRCode    string    `gorm:"column:qr_code" json:"qrCode"`
}

type Review struct {
	Rating        int       `json:"rating"`
	Comment       string    `json:"comment"`
	Date          time.Time `json:"date"`
	ReviewerName  string    `json:"reviewerName"`
	ReviewerEmail string    `json:"reviewerEmail"`
}
