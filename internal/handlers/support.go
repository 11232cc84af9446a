package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"lagimmo/api/internal/middleware"
	"lagimmo/api/internal/models"
	"lagimmo/api/internal/repository"
	"lagimmo/api/internal/service"
)

const attachmentsField = "attachments"

type ticketForm struct {
	FirstName   string `form:"firstName" binding:"required,max=100"`
	LastName    string `form:"lastName" binding:"required,max=100"`
	Email       string `form:"email" binding:"required,email"`
	PhoneNumber string `form:"phoneNumber" binding:"max=32"`
	CompanyName string `form:"companyName" binding:"max=200"`
	Subject     string `form:"subject" binding:"required,oneof=GENERAL PROPERTY ACCOMPANIMENT ORDER PAYMENT OTHER"`
	Category    string `form:"category" binding:"omitempty,oneof=VISITOR CLIENT"`
	Question    string `form:"question" binding:"required,max=5000"`
}

func (h HandlerSet) CreateTicket(c *gin.Context) {
	var form ticketForm
	if !bindForm(c, &form) {
		return
	}
	files, err := formFiles(c, attachmentsField)
	if err != nil {
		respondError(c, err)
		return
	}

	ticket, err := h.svc.Support.Create(c.Request.Context(), service.TicketInput{
		ContactInput: service.ContactInput{
			FirstName:   form.FirstName,
			LastName:    form.LastName,
			Email:       form.Email,
			PhoneNumber: form.PhoneNumber,
		},
		CompanyName: form.CompanyName,
		Subject:     models.SupportSubject(form.Subject),
		Category:    models.SupportCategory(form.Category),
		Question:    form.Question,
	}, files)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, ticket)
}

func (h HandlerSet) ListTickets(c *gin.Context) {
	opts, valid := listOptions(c)
	if !valid {
		return
	}
	q := newQuery(c)
	f := repository.TicketFilter{
		Subjects:     q.list("subjects"),
		Categories:   q.list("categories"),
		AnsweredByID: q.uuid("answeredById"),
		IsSeen:       q.flag("isSeen"),
		IsAnswered:   q.flag("isAnswered"),
	}
	if v := q.str("name"); v != nil {
		f.Name = *v
	}
	if v := q.str("email"); v != nil {
		f.Email = *v
	}
	if !q.done() {
		return
	}

	page, err := h.svc.Support.List(c.Request.Context(), f, opts)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, page)
}

func (h HandlerSet) GetTicket(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	ticket, err := h.svc.Support.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, ticket)
}

type answerForm struct {
	Answer string `form:"answer" binding:"required,max=10000"`
}

func (h HandlerSet) AnswerTicket(c *gin.Context) {
	admin, found := middleware.CurrentUser(c)
	if !found {
		respondError(c, errNoUser)
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var form answerForm
	if !bindForm(c, &form) {
		return
	}
	files, err := formFiles(c, attachmentsField)
	if err != nil {
		respondError(c, err)
		return
	}

	ticket, err := h.svc.Support.Answer(c.Request.Context(), id, admin, form.Answer, files)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, ticket)
}

func (h HandlerSet) TicketAttachments(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	set := service.AttachmentSet(c.Param("attachmentType"))

	archive, err := h.svc.Support.Attachments(c.Request.Context(), id, set)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="support-%s-%s.zip"`, id, set))
	c.Data(http.StatusOK, "application/zip", archive)
}
