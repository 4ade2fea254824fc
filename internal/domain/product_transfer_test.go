package domain

import (
	"reflect"
	"testing"
	"time"
)

func sampleTransfer() ProductTransfer {
	created := time.Date(2024, 5, 23, 8, 56, 21, 618000000, time.UTC)
	return ProductTransfer{
		ID:                   42,
		Title:                "Essence Mascara Lash Princess",
		Description:          "Volumizing mascara",
		Category:             "beauty",
		Price:                9.99,
		DiscountPercentage:   7.17,
		Rating:               4.94,
		Stock:                5,
		Tags:                 []string{"beauty", "mascara"},
		Brand:                "Essence",
		SKU:                  "RCH45Q1A",
		Weight:               2,
		Dimensions:           DimensionsTransfer{Width: 23.17, Height: 14.43, Depth: 28.01},
		WarrantyInformation:  "1 month warranty",
		ShippingInformation:  "Ships in 1 month",
		AvailabilityStatus:   "Low Stock",
		ReturnPolicy:         "30 days return policy",
		MinimumOrderQuantity: 24,
		Meta: MetaTransfer{
			CreatedAt: created,
			UpdatedAt: created.Add(time.Hour),
			Barcode:   "9164035109868",
			QRCode:    "https://assets.example.com/qr.png",
		},
		Images:    []string{"https://cdn.example.com/1.png"},
		Thumbnail: "https://cdn.example.com/thumb.png",
		Reviews: []ReviewTransfer{
			{Rating: 2, Comment: "Very unhappy", Date: created, ReviewerName: "John Doe", ReviewerEmail: "john.doe@x.dummyjson.com"},
			{Rating: 5, Comment: "Great", Date: created, ReviewerName: "Jane", ReviewerEmail: "jane@x.dummyjson.com"},
		},
	}
}

func TestToRecordClearsIdentity(t *testing.T) {
	rec := sampleTransfer().ToRecord()
	if rec.ID != 0 {
		t.Fatalf("expected cleared identity, got %d", rec.ID)
	}
	if rec.Price.String() != "9.99" {
		t.Fatalf("expected price 9.99, got %s", rec.Price)
	}
}

func TestTransferRoundTripPreservesEverythingButIdentity(t *testing.T) {
	in := sampleTransfer()
	out := in.ToRecord().ToTransfer()

	want := in
	want.ID = 0
	if !reflect.DeepEqual(out, want) {
		t.Fatalf("round trip mismatch:\n got=%+v\nwant=%+v", out, want)
	}
}

func TestToRecordDoesNotAliasSlices(t *testing.T) {
	in := sampleTransfer()
	rec := in.ToRecord()
	rec.Tags[0] = "changed"
	if in.Tags[0] != "beauty" {
		t.Fatal("record tags alias the transfer slice")
	}
}

func TestToRecordsKeepsOrder(t *testing.T) {
	a, b := sampleTransfer(), sampleTransfer()
	b.SKU = "SECOND"
	recs := ToRecords([]ProductTransfer{a, b})
	if len(recs) != 2 || recs[1].SKU != "SECOND" {
		t.Fatalf("unexpected records %+v", recs)
	}
}
