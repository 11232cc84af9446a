package models

import "time"

type PropertyPrice struct {
	MonthlyPrice      float64 `json:"monthlyPrice"`
	ChargesPrice      float64 `json:"chargesPrice"`
	DossierPrice      float64 `json:"dossierPrice"`
	DepositPrice      float64 `json:"ensurenceDepositPrice"`
	FirstDepositPrice float64 `json:"firstDepositPrice"`
}

type Characteristic struct {
	Name  string `json:"name" binding:"required"`
	Value string `json:"value" binding:"required"`
}

type Property struct {
	ID              string           `json:"id"`
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	GoogleMapURL    string           `json:"googleMapUrl"`
	IsFeatured      bool             `json:"isFeatured"`
	Address         Address          `json:"address"`
	Price           PropertyPrice    `json:"price"`
	Characteristics []Characteristic `json:"characteristics"`
	Images          []Media          `json:"images"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

type Accompaniment struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	ShortDescription string    `json:"shortDescription"`
	Order            int       `json:"order"`
	Price            float64   `json:"price"`
	Characteristics  []string  `json:"characteristics"`
	Images           []Media   `json:"images"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type ProductType string

const (
	ProductTypeProduct ProductType = "PRODUCT"
	ProductTypeBook    ProductType = "BOOK"
)

type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type Product struct {
	ID              string      `json:"id"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	Link            string      `json:"link"`
	Type            ProductType `json:"type"`
	Price           float64     `json:"price"`
	Discount        float64     `json:"discount"`
	Characteristics []string    `json:"characteristics"`
	IsFeatured      bool        `json:"isFeatured"`
	Category        *Category   `json:"category"`
	Images          []Media     `json:"images"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}
