package models

import "time"

type PropertyAnalytics struct {
	Total    int `json:"total"`
	Featured int `json:"featured"`
}

type RequestAnalytics struct {
	RequestStats
	Shipped int `json:"shipped"`
}

type AccompanimentAnalytics struct {
	Total int `json:"total"`
}

type ProductAnalytics struct {
	Total           int `json:"total"`
	Products        int `json:"products"`
	Books           int `json:"books"`
	Featured        int `json:"featured"`
	Discounted      int `json:"discounted"`
	CategoriesCount int `json:"categoriesCount"`
}

type OrderAnalytics struct {
	Total           int     `json:"total"`
	Paid            int     `json:"paid"`
	Unpaid          int     `json:"unpaid"`
	Pending         int     `json:"pending"`
	Shipped         int     `json:"shipped"`
	Cancelled       int     `json:"cancelled"`
	PaymentRate     float64 `json:"paymentRate"`
	FulfillmentRate float64 `json:"fulfillmentRate"`
}

type SupportAnalytics struct {
	Total        int     `json:"total"`
	Answered     int     `json:"answered"`
	Unanswered   int     `json:"unanswered"`
	Unseen       int     `json:"unseen"`
	ResponseRate float64 `json:"responseRate"`
}

type RevenueAnalytics struct {
	Total   float64 `json:"total"`
	Paid    float64 `json:"paid"`
	Pending float64 `json:"pending"`
}

type ActivityWindow struct {
	PropertyRequests      int `json:"propertyRequests"`
	AccompanimentRequests int `json:"accompanimentRequests"`
	Orders                int `json:"orders"`
	SupportTickets        int `json:"supportTickets"`
	NewsletterSignups     int `json:"newsletterSignups"`
}

type RecentActivity struct {
	Last7Days  ActivityWindow `json:"last7Days"`
	Last30Days ActivityWindow `json:"last30Days"`
}

type AnalyticsSummary struct {
	TotalListings         int `json:"totalListings"`
	TotalRequests         int `json:"totalRequests"`
	PendingRequests       int `json:"pendingRequests"`
	PendingSupport        int `json:"pendingSupport"`
	NewsletterSubscribers int `json:"newsletterSubscribers"`
}

type Analytics struct {
	Properties            PropertyAnalytics      `json:"properties"`
	PropertyRequests      RequestAnalytics       `json:"propertyRequests"`
	Accompaniments        AccompanimentAnalytics `json:"accompaniments"`
	AccompanimentRequests RequestAnalytics       `json:"accompanimentRequests"`
	Products              ProductAnalytics       `json:"products"`
	Orders                OrderAnalytics         `json:"orders"`
	Support               SupportAnalytics       `json:"support"`
	Revenue               RevenueAnalytics       `json:"revenue"`
	RecentActivity        RecentActivity         `json:"recentActivity"`
	Summary               AnalyticsSummary       `json:"summary"`
	GeneratedAt           time.Time              `json:"generatedAt"`
}
