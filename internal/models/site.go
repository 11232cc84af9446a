package models

import "time"

type SupportSubject string

const (
	SupportSubjectGeneral       SupportSubject = "GENERAL"
	SupportSubjectProperty      SupportSubject = "PROPERTY"
	SupportSubjectAccompaniment SupportSubject = "ACCOMPANIMENT"
	SupportSubjectOrder         SupportSubject = "ORDER"
	SupportSubjectPayment       SupportSubject = "PAYMENT"
	SupportSubjectOther         SupportSubject = "OTHER"
)

type SupportCategory string

const (
	SupportCategoryVisitor SupportCategory = "VISITOR"
	SupportCategoryClient  SupportCategory = "CLIENT"
)

type SupportTicket struct {
	ID                  string          `json:"id"`
	FirstName           string          `json:"firstName"`
	LastName            string          `json:"lastName"`
	Email               string          `json:"email"`
	PhoneNumber         string          `json:"phoneNumber"`
	CompanyName         string          `json:"companyName"`
	Subject             SupportSubject  `json:"subject"`
	Category            SupportCategory `json:"category"`
	Question            string          `json:"question"`
	AdminAnswer         *string         `json:"adminAnswer"`
	AnsweredBy          *User           `json:"answeredBy"`
	SeenAt              *time.Time      `json:"seenAt"`
	AnsweredAt          *time.Time      `json:"answeredAt"`
	QuestionAttachments []Media         `json:"questionAttachments"`
	Attachments         []Media         `json:"attachments"`
	CreatedAt           time.Time       `json:"createdAt"`
	UpdatedAt           time.Time       `json:"updatedAt"`
}

func (t SupportTicket) Answered() bool {
	return t.AnsweredAt != nil
}

type NewsletterSubscriber struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type FAQ struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type WhatsAppGroup struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	URL         string `json:"url" binding:"required,url"`
}

type Contact struct {
	ID             string          `json:"id"`
	Facebook       string          `json:"facebook"`
	Instagram      string          `json:"instagram"`
	Youtube        string          `json:"youtube"`
	Tiktok         string          `json:"tiktok"`
	Linkedin       string          `json:"linkedin"`
	Twitter        string          `json:"twitter"`
	Email          string          `json:"email"`
	PhoneNumber    string          `json:"phoneNumber"`
	Whatsapp       string          `json:"whatsapp"`
	GoogleMapURL   string          `json:"googleMapUrl"`
	Address        Address         `json:"address"`
	WhatsAppGroups []WhatsAppGroup `json:"whatsAppGroups"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}
