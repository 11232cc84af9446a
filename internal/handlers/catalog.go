package handlers

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"lagimmo/api/internal/models"
	"lagimmo/api/internal/repository"
	"lagimmo/api/internal/service"
	"lagimmo/api/internal/validation"
)

const imagesField = "images"

// propertyForm is the multipart body of property writes. address, price and
// characteristics are JSON documents.
type propertyForm struct {
	Title           string `form:"title" binding:"required,max=200"`
	Description     string `form:"description" binding:"required"`
	GoogleMapURL    string `form:"googleMapUrl" binding:"omitempty,url"`
	IsFeatured      bool   `form:"isFeatured"`
	Address         string `form:"address" binding:"required"`
	Price           string `form:"price" binding:"required"`
	Characteristics string `form:"characteristics"`
}

func (f propertyForm) input() (service.PropertyInput, error) {
	in := service.PropertyInput{
		Title:        f.Title,
		Description:  f.Description,
		GoogleMapURL: f.GoogleMapURL,
		IsFeatured:   f.IsFeatured,
	}
	if err := decodeField("address", f.Address, &in.Address); err != nil {
		return in, err
	}
	if err := decodeField("price", f.Price, &in.Price); err != nil {
		return in, err
	}
	if err := decodeField("characteristics", f.Characteristics, &in.Characteristics); err != nil {
		return in, err
	}
	return in, nil
}

// bindCatalogForm binds the fields of a catalog write and its images.
func bindCatalogForm[T any](c *gin.Context) (T, []*multipart.FileHeader, bool) {
	var form T
	if !bindForm(c, &form) {
		return form, nil, false
	}
	files, err := formFiles(c, imagesField)
	if err != nil {
		respondError(c, err)
		return form, nil, false
	}
	return form, files, true
}

func (h HandlerSet) CreateProperty(c *gin.Context) {
	in, files, valid := bindCatalogForm[propertyForm](c)
	if !valid {
		return
	}
	input, err := in.input()
	if err != nil {
		respondError(c, err)
		return
	}

	p, err := h.svc.Properties.Create(c.Request.Context(), input, files)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, p)
}

func (h HandlerSet) UpdateProperty(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	in, files, valid := bindCatalogForm[propertyForm](c)
	if !valid {
		return
	}
	input, err := in.input()
	if err != nil {
		respondError(c, err)
		return
	}

	p, err := h.svc.Properties.Update(c.Request.Context(), id, input, files)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, p)
}

func (h HandlerSet) ListProperties(c *gin.Context) {
	items, err := h.svc.Properties.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, items)
}

func (h HandlerSet) FilterProperties(c *gin.Context) {
	opts, valid := listOptions(c)
	if !valid {
		return
	}
	q := newQuery(c)
	f := repository.PropertyFilter{
		IsFeatured: q.flag("isFeatured"),
		MinPrice:   q.number("minPrice"),
		MaxPrice:   q.number("maxPrice"),
	}
	if !q.done() {
		return
	}

	page, err := h.svc.Properties.Filter(c.Request.Context(), f, opts)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, page)
}

func (h HandlerSet) GetProperty(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	p, err := h.svc.Properties.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, p)
}

type reorderPropertyImagesRequest struct {
	PropertyID string                 `json:"propertyId" binding:"required,uuid"`
	Images     []models.MediaPosition `json:"images" binding:"required,min=1,dive"`
}

func (h HandlerSet) ReorderPropertyImages(c *gin.Context) {
	var req reorderPropertyImagesRequest
	if !bindJSON(c, &req) {
		return
	}
	images, err := h.svc.Properties.ReorderImages(c.Request.Context(), req.PropertyID, req.Images)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, images)
}

func (h HandlerSet) RemovePropertyImage(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	imageID, valid := pathID(c, "imageId")
	if !valid {
		return
	}
	if err := h.svc.Properties.RemoveImage(c.Request.Context(), id, imageID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h HandlerSet) DeleteProperty(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	if err := h.svc.Properties.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type accompanimentForm struct {
	Title            string  `form:"title" binding:"required,max=200"`
	Description      string  `form:"description" binding:"required"`
	ShortDescription string  `form:"shortDescription" binding:"max=500"`
	Price            float64 `form:"price" binding:"gte=0"`
	Characteristics  string  `form:"characteristics"`
}

func (f accompanimentForm) input() (service.AccompanimentInput, error) {
	in := service.AccompanimentInput{
		Title:            f.Title,
		Description:      f.Description,
		ShortDescription: f.ShortDescription,
		Price:            f.Price,
	}
	if err := decodeField("characteristics", f.Characteristics, &in.Characteristics); err != nil {
		return in, err
	}
	return in, nil
}

func (h HandlerSet) CreateAccompaniment(c *gin.Context) {
	in, files, valid := bindCatalogForm[accompanimentForm](c)
	if !valid {
		return
	}
	input, err := in.input()
	if err != nil {
		respondError(c, err)
		return
	}

	a, err := h.svc.Accompaniments.Create(c.Request.Context(), input, files)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, a)
}

func (h HandlerSet) UpdateAccompaniment(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	in, files, valid := bindCatalogForm[accompanimentForm](c)
	if !valid {
		return
	}
	input, err := in.input()
	if err != nil {
		respondError(c, err)
		return
	}

	a, err := h.svc.Accompaniments.Update(c.Request.Context(), id, input, files)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, a)
}

func (h HandlerSet) ListAccompaniments(c *gin.Context) {
	items, err := h.svc.Accompaniments.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, items)
}

func (h HandlerSet) GetAccompaniment(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	a, err := h.svc.Accompaniments.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, a)
}

type reorderRequest struct {
	Items []models.MediaPosition `json:"items" binding:"required,min=1,dive"`
}

func (h HandlerSet) ReorderAccompaniments(c *gin.Context) {
	var req reorderRequest
	if !bindJSON(c, &req) {
		return
	}
	items, err := h.svc.Accompaniments.Reorder(c.Request.Context(), req.Items)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, items)
}

type reorderAccompanimentImagesRequest struct {
	AccompanimentID string                 `json:"accompanimentId" binding:"required,uuid"`
	Images          []models.MediaPosition `json:"images" binding:"required,min=1,dive"`
}

func (h HandlerSet) ReorderAccompanimentImages(c *gin.Context) {
	var req reorderAccompanimentImagesRequest
	if !bindJSON(c, &req) {
		return
	}
	images, err := h.svc.Accompaniments.ReorderImages(c.Request.Context(), req.AccompanimentID, req.Images)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, images)
}

func (h HandlerSet) RemoveAccompanimentImage(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	imageID, valid := pathID(c, "imageId")
	if !valid {
		return
	}
	if err := h.svc.Accompaniments.RemoveImage(c.Request.Context(), id, imageID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h HandlerSet) DeleteAccompaniment(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	if err := h.svc.Accompaniments.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type productForm struct {
	Title           string  `form:"title" binding:"required,max=200"`
	Description     string  `form:"description" binding:"required"`
	Link            string  `form:"link" binding:"omitempty,url"`
	Type            string  `form:"type" binding:"omitempty,oneof=PRODUCT BOOK"`
	Price           float64 `form:"price" binding:"gte=0"`
	Discount        float64 `form:"discount" binding:"gte=0"`
	Characteristics string  `form:"characteristics"`
	IsFeatured      bool    `form:"isFeatured"`
	CategoryID      string  `form:"categoryId" binding:"omitempty,uuid"`
}

func (f productForm) input() (service.ProductInput, error) {
	in := service.ProductInput{
		Title:       f.Title,
		Description: f.Description,
		Link:        f.Link,
		Type:        models.ProductType(f.Type),
		Price:       f.Price,
		Discount:    f.Discount,
		IsFeatured:  f.IsFeatured,
		CategoryID:  f.CategoryID,
	}
	if f.Discount > f.Price {
		return in, validation.New("discount", "discount must not exceed price")
	}
	if err := decodeField("characteristics", f.Characteristics, &in.Characteristics); err != nil {
		return in, err
	}
	return in, nil
}

func (h HandlerSet) CreateProduct(c *gin.Context) {
	in, files, valid := bindCatalogForm[productForm](c)
	if !valid {
		return
	}
	input, err := in.input()
	if err != nil {
		respondError(c, err)
		return
	}

	p, err := h.svc.Products.Create(c.Request.Context(), input, files)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, p)
}

func (h HandlerSet) UpdateProduct(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	in, files, valid := bindCatalogForm[productForm](c)
	if !valid {
		return
	}
	input, err := in.input()
	if err != nil {
		respondError(c, err)
		return
	}

	p, err := h.svc.Products.Update(c.Request.Context(), id, input, files)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, p)
}

func (h HandlerSet) ListProducts(c *gin.Context) {
	h.listProducts(c, models.ProductTypeProduct)
}

func (h HandlerSet) ListBooks(c *gin.Context) {
	h.listProducts(c, models.ProductTypeBook)
}

func (h HandlerSet) listProducts(c *gin.Context, productType models.ProductType) {
	opts, valid := listOptions(c)
	if !valid {
		return
	}
	if opts.Search == "" {
		opts.Search = c.Query("q")
	}
	q := newQuery(c)
	f := repository.ProductFilter{
		Type:           productType,
		CategoryID:     q.uuid("categoryId"),
		IsFeatured:     q.flag("isFeatured"),
		Characteristic: q.str("characteristic"),
		MinPrice:       q.number("minPrice"),
		MaxPrice:       q.number("maxPrice"),
		HasDiscount:    q.flag("hasDiscount"),
	}
	if !q.done() {
		return
	}

	page, err := h.svc.Products.List(c.Request.Context(), f, opts)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, page)
}

func (h HandlerSet) GetProduct(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	p, err := h.svc.Products.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, p)
}

type reorderImagesRequest struct {
	Images []models.MediaPosition `json:"images" binding:"required,min=1,dive"`
}

func (h HandlerSet) ReorderProductImages(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var req reorderImagesRequest
	if !bindJSON(c, &req) {
		return
	}
	images, err := h.svc.Products.ReorderImages(c.Request.Context(), id, req.Images)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, images)
}

func (h HandlerSet) RemoveProductImage(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	imageID, valid := pathID(c, "imageId")
	if !valid {
		return
	}
	if err := h.svc.Products.RemoveImage(c.Request.Context(), id, imageID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h HandlerSet) DeleteProduct(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	if err := h.svc.Products.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type categoryRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

func (h HandlerSet) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if !bindJSON(c, &req) {
		return
	}
	category, err := h.svc.Products.CreateCategory(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, category)
}

func (h HandlerSet) ListCategories(c *gin.Context) {
	items, err := h.svc.Products.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, items)
}

func (h HandlerSet) DeleteCategory(c *gin.Context) {
	id, valid := pathID(c, "categoryId")
	if !valid {
		return
	}
	if err := h.svc.Products.DeleteCategory(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
