package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lagimmo/api/internal/ids"
	"lagimmo/api/internal/models"
	"lagimmo/api/internal/repository"
	"lagimmo/api/internal/service"
	"lagimmo/api/internal/validation"
)

type contactFields struct {
	FirstName   string `json:"firstName" binding:"required,max=100"`
	LastName    string `json:"lastName" binding:"required,max=100"`
	Email       string `json:"email" binding:"required,email"`
	PhoneNumber string `json:"phoneNumber" binding:"required,max=32"`
}

func (f contactFields) input() service.ContactInput {
	return service.ContactInput{
		FirstName:   f.FirstName,
		LastName:    f.LastName,
		Email:       f.Email,
		PhoneNumber: f.PhoneNumber,
	}
}

type orderRequest struct {
	contactFields
	ProductID string         `json:"productId" binding:"required,uuid"`
	Address   models.Address `json:"address"`
}

func (r orderRequest) input() service.OrderInput {
	return service.OrderInput{
		ContactInput: r.contactFields.input(),
		ProductID:    r.ProductID,
		Address:      r.Address,
	}
}

type statusRequest struct {
	Status models.RequestStatus `json:"status" binding:"required,oneof=DRAFT PENDING ACCEPTED REJECTED CANCELLED SHIPPED"`
}

func (h HandlerSet) CreateOrder(c *gin.Context) {
	var req orderRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.svc.Orders.Create(c.Request.Context(), req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, order)
}

func (h HandlerSet) ListOrders(c *gin.Context) {
	items, err := h.svc.Orders.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, items)
}

func (h HandlerSet) FilterOrders(c *gin.Context) {
	opts, valid := listOptions(c)
	if !valid {
		return
	}
	q := newQuery(c)
	f := repository.OrderFilter{
		Status:      q.upper("status"),
		ProductType: q.upper("productType"),
		IsPaid:      q.flag("isPaid"),
		ProductID:   q.uuid("productId"),
		Created:     q.dates(),
	}
	if !q.done() {
		return
	}

	page, err := h.svc.Orders.Filter(c.Request.Context(), f, opts)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, page)
}

func (h HandlerSet) GetOrder(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	order, err := h.svc.Orders.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, order)
}

func (h HandlerSet) UpdateOrder(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var req orderRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.svc.Orders.Update(c.Request.Context(), id, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, order)
}

func (h HandlerSet) UpdateOrderStatus(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var req statusRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.svc.Orders.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, order)
}

func (h HandlerSet) MarkOrderPaid(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	order, err := h.svc.Orders.MarkPaid(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, order)
}

func (h HandlerSet) DeleteOrder(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	if err := h.svc.Orders.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// requestHandlers serves one kind of visitor request. The target id is read
// from targetField in the create body.
type requestHandlers struct {
	svc         *service.RequestService
	targetField string
}

func newRequestHandlers(svc *service.RequestService, targetField string) requestHandlers {
	return requestHandlers{svc: svc, targetField: targetField}
}

type visitorRequest struct {
	contactFields
	PropertyID      string `json:"propertyId"`
	AccompanimentID string `json:"accompanimentId"`
	Message         string `json:"message" binding:"max=2000"`
}

func (r requestHandlers) Create(c *gin.Context) {
	var req visitorRequest
	if !bindJSON(c, &req) {
		return
	}
	target := req.PropertyID
	if r.targetField == "accompanimentId" {
		target = req.AccompanimentID
	}
	if !ids.Valid(target) {
		respondError(c, validation.New(r.targetField, r.targetField+" must be a valid uuid"))
		return
	}

	created, err := r.svc.Create(c.Request.Context(), service.RequestInput{
		ContactInput: req.contactFields.input(),
		TargetID:     target,
		Message:      req.Message,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, created)
}

func (r requestHandlers) List(c *gin.Context) {
	items, err := r.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, items)
}

func (r requestHandlers) Filter(c *gin.Context) {
	opts, valid := listOptions(c)
	if !valid {
		return
	}
	q := newQuery(c)
	f := repository.RequestFilter{
		Status:   q.upper("status"),
		TargetID: q.uuid(r.targetField),
		Created:  q.dates(),
	}
	if !q.done() {
		return
	}

	page, err := r.svc.Filter(c.Request.Context(), f, opts)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, page)
}

func (r requestHandlers) Stats(c *gin.Context) {
	stats, err := r.svc.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, stats)
}

func (r requestHandlers) Get(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	req, err := r.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, req)
}

type requestStatusRequest struct {
	Status models.RequestStatus `json:"status" binding:"required,oneof=PENDING ACCEPTED REJECTED CANCELLED"`
}

func (r requestHandlers) UpdateStatus(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var body requestStatusRequest
	if !bindJSON(c, &body) {
		return
	}
	updated, err := r.svc.UpdateStatus(c.Request.Context(), id, body.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, updated)
}

func (r requestHandlers) Delete(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	if err := r.svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
