package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lagimmo/api/internal/models"
	"lagimmo/api/internal/service"
)

type subscribeRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (h HandlerSet) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if !bindJSON(c, &req) {
		return
	}
	sub, err := h.svc.Newsletter.Subscribe(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, sub)
}

func (h HandlerSet) ListSubscribers(c *gin.Context) {
	opts, valid := listOptions(c)
	if !valid {
		return
	}
	page, err := h.svc.Newsletter.List(c.Request.Context(), opts)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, page)
}

type faqRequest struct {
	Question string `json:"question" binding:"required,max=500"`
	Answer   string `json:"answer" binding:"required,max=5000"`
}

type faqUpdateRequest struct {
	Question *string `json:"question" binding:"omitempty,min=1,max=500"`
	Answer   *string `json:"answer" binding:"omitempty,min=1,max=5000"`
}

func (h HandlerSet) ListFAQ(c *gin.Context) {
	items, err := h.svc.FAQ.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, items)
}

func (h HandlerSet) CreateFAQ(c *gin.Context) {
	var req faqRequest
	if !bindJSON(c, &req) {
		return
	}
	faq, err := h.svc.FAQ.Create(c.Request.Context(), req.Question, req.Answer)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, faq)
}

func (h HandlerSet) UpdateFAQ(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var req faqUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	faq, err := h.svc.FAQ.Update(c.Request.Context(), id, req.Question, req.Answer)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, faq)
}

func (h HandlerSet) DeleteFAQ(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	if err := h.svc.FAQ.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h HandlerSet) GetContact(c *gin.Context) {
	contact, err := h.svc.Contact.Get(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, contact)
}

type contactRequest struct {
	Facebook       string                 `json:"facebook" binding:"omitempty,url"`
	Instagram      string                 `json:"instagram" binding:"omitempty,url"`
	Youtube        string                 `json:"youtube" binding:"omitempty,url"`
	Tiktok         string                 `json:"tiktok" binding:"omitempty,url"`
	Linkedin       string                 `json:"linkedin" binding:"omitempty,url"`
	Twitter        string                 `json:"twitter" binding:"omitempty,url"`
	Email          string                 `json:"email" binding:"omitempty,email"`
	PhoneNumber    string                 `json:"phoneNumber" binding:"max=32"`
	Whatsapp       string                 `json:"whatsapp" binding:"max=64"`
	GoogleMapURL   string                 `json:"googleMapUrl" binding:"omitempty,url"`
	Address        models.Address         `json:"address"`
	WhatsAppGroups []models.WhatsAppGroup `json:"whatsAppGroups" binding:"dive"`
}

func (h HandlerSet) UpdateContact(c *gin.Context) {
	var req contactRequest
	if !bindJSON(c, &req) {
		return
	}
	contact, err := h.svc.Contact.Update(c.Request.Context(), models.Contact{
		Facebook:       req.Facebook,
		Instagram:      req.Instagram,
		Youtube:        req.Youtube,
		Tiktok:         req.Tiktok,
		Linkedin:       req.Linkedin,
		Twitter:        req.Twitter,
		Email:          req.Email,
		PhoneNumber:    req.PhoneNumber,
		Whatsapp:       req.Whatsapp,
		GoogleMapURL:   req.GoogleMapURL,
		Address:        req.Address,
		WhatsAppGroups: req.WhatsAppGroups,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, contact)
}

func (h HandlerSet) Analytics(c *gin.Context) {
	overview, err := h.svc.Analytics.Overview(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, overview)
}

type uploadForm struct {
	Bucket string `form:"bucket" binding:"required"`
}

type uploadedFile struct {
	models.Media
	SignedURL string `json:"signedUrl,omitempty"`
}

// Upload stores files in a bucket without attaching them to an entity.
func (h HandlerSet) Upload(c *gin.Context) {
	var form uploadForm
	if !bindForm(c, &form) {
		return
	}
	files, err := formFiles(c, "files")
	if err != nil {
		respondError(c, err)
		return
	}
	if len(files) == 0 {
		respondError(c, service.ErrEmptyFile)
		return
	}

	stored, err := h.svc.Uploads.UploadMany(c.Request.Context(), form.Bucket, files, service.UploadOptions{})
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]uploadedFile, 0, len(stored))
	for _, m := range stored {
		signed, err := h.svc.Uploads.PresignedURL(c.Request.Context(), m)
		if err != nil {
			h.log.Warn().Err(err).Str("object", m.Name).Msg("presign uploaded file failed")
		}
		out = append(out, uploadedFile{Media: m, SignedURL: signed})
	}
	respondCreated(c, out)
}
