package models

import "time"

type MediaOwner string

const (
	MediaOwnerProperty        MediaOwner = "property"
	MediaOwnerAccompaniment   MediaOwner = "accompaniment"
	MediaOwnerProduct         MediaOwner = "product"
	MediaOwnerSupportQuestion MediaOwner = "support_question"
	MediaOwnerSupportAnswer   MediaOwner = "support_answer"
)

type Media struct {
	ID           string     `json:"id"`
	OwnerType    MediaOwner `json:"-"`
	OwnerID      string     `json:"-"`
	Bucket       string     `json:"bucket"`
	Name         string     `json:"name"`
	OriginalName string     `json:"originalName"`
	FullURL      string     `json:"fullUrl"`
	ContentType  string     `json:"contentType"`
	SizeBytes    int64      `json:"size"`
	Position     int        `json:"order"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// Position assigns a media id its place in an ordered set.
type MediaPosition struct {
	ID    string `json:"id" binding:"required,uuid"`
	Order int    `json:"order" binding:"gte=0"`
}

type Address struct {
	ID           string `json:"id,omitempty"`
	City         string `json:"city"`
	PostalCode   string `json:"postalCode"`
	Country      string `json:"country"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2"`
}
