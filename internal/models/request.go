package models

import "time"

type RequestStatus string

const (
	RequestStatusDraft     RequestStatus = "DRAFT"
	RequestStatusPending   RequestStatus = "PENDING"
	RequestStatusAccepted  RequestStatus = "ACCEPTED"
	RequestStatusRejected  RequestStatus = "REJECTED"
	RequestStatusCancelled RequestStatus = "CANCELLED"
	RequestStatusShipped   RequestStatus = "SHIPPED"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusDraft, RequestStatusPending, RequestStatusAccepted,
		RequestStatusRejected, RequestStatusCancelled, RequestStatusShipped:
		return true
	}
	return false
}

// RequestTarget is the entity kind a visitor request points at.
type RequestTarget string

const (
	RequestTargetProperty      RequestTarget = "property"
	RequestTargetAccompaniment RequestTarget = "accompaniment"
)

// TargetSummary is the slice of the requested entity shown alongside a request.
type TargetSummary struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	ShortDescription string `json:"shortDescription,omitempty"`
}

type Request struct {
	ID          string        `json:"id"`
	Target      TargetSummary `json:"target"`
	FirstName   string        `json:"firstName"`
	LastName    string        `json:"lastName"`
	Email       string        `json:"email"`
	PhoneNumber string        `json:"phoneNumber"`
	Message     string        `json:"message"`
	Status      RequestStatus `json:"status"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

type RequestStats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Accepted  int `json:"accepted"`
	Rejected  int `json:"rejected"`
	Cancelled int `json:"cancelled"`
}

type Order struct {
	ID          string        `json:"id"`
	Product     Product       `json:"product"`
	Address     Address       `json:"address"`
	FirstName   string        `json:"firstName"`
	LastName    string        `json:"lastName"`
	Email       string        `json:"email"`
	PhoneNumber string        `json:"phoneNumber"`
	IsPaid      bool          `json:"isPaid"`
	Status      RequestStatus `json:"status"`
	CheckoutID  *string       `json:"checkoutId"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}
