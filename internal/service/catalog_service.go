package service

import (
	"context"
	"mime/multipart"
	"strings"

	"lagimmo/api/internal/ids"
	"lagimmo/api/internal/models"
	"lagimmo/api/internal/pagination"
	"lagimmo/api/internal/repository"
)

const (
	BucketProperties     = "properties"
	BucketAccompaniments = "accompaniement"
	BucketProducts       = "products"
	BucketSupport        = "support"
)

var imagesOnly = UploadOptions{ImagesOnly: true}

// withImages uploads files, runs persist with them and cleans up objects: the
// new ones when persist fails, the replaced ones when it succeeds. A nil
// slice is passed to persist when no file was sent.
func withImages(ctx context.Context, uploads *UploadService, bucket string, files []*multipart.FileHeader, persist func(images []models.Media) ([]models.Media, error)) error {
	images, err := uploads.UploadMany(ctx, bucket, files, imagesOnly)
	if err != nil {
		return err
	}
	removed, err := persist(images)
	if err != nil {
		uploads.Remove(context.WithoutCancel(ctx), images)
		return err
	}
	uploads.Remove(ctx, removed)
	return nil
}

type PropertyInput struct {
	Title           string
	Description     string
	GoogleMapURL    string
	IsFeatured      bool
	Address         models.Address
	Price           models.PropertyPrice
	Characteristics []models.Characteristic
}

func (in PropertyInput) apply(p *models.Property) {
	p.Title = strings.TrimSpace(in.Title)
	p.Description = in.Description
	p.GoogleMapURL = in.GoogleMapURL
	p.IsFeatured = in.IsFeatured
	p.Address = in.Address
	p.Price = in.Price
	p.Characteristics = in.Characteristics
}

type PropertyService struct {
	properties PropertyStore
	media      MediaStore
	uploads    *UploadService
}

func NewPropertyService(properties PropertyStore, media MediaStore, uploads *UploadService) *PropertyService {
	return &PropertyService{properties: properties, media: media, uploads: uploads}
}

func (s *PropertyService) Create(ctx context.Context, in PropertyInput, files []*multipart.FileHeader) (models.Property, error) {
	p := models.Property{ID: ids.New()}
	in.apply(&p)
	err := withImages(ctx, s.uploads, BucketProperties, files, func(images []models.Media) ([]models.Media, error) {
		p.Images = images
		return nil, s.properties.Create(ctx, p)
	})
	if err != nil {
		return models.Property{}, err
	}
	return s.properties.Get(ctx, p.ID)
}

func (s *PropertyService) List(ctx context.Context) ([]models.Property, error) {
	return s.properties.List(ctx)
}

func (s *PropertyService) Filter(ctx context.Context, f repository.PropertyFilter, opts pagination.Options) (pagination.Page[models.Property], error) {
	items, total, err := s.properties.Filter(ctx, f, opts)
	if err != nil {
		return pagination.Page[models.Property]{}, err
	}
	return pagination.NewPage(items, total, opts), nil
}

func (s *PropertyService) Get(ctx context.Context, id string) (models.Property, error) {
	return s.properties.Get(ctx, id)
}

// Update replaces the property; sent images replace the whole image set.
func (s *PropertyService) Update(ctx context.Context, id string, in PropertyInput, files []*multipart.FileHeader) (models.Property, error) {
	p := models.Property{ID: id}
	in.apply(&p)
	err := withImages(ctx, s.uploads, BucketProperties, files, func(images []models.Media) ([]models.Media, error) {
		return s.properties.Update(ctx, p, images)
	})
	if err != nil {
		return models.Property{}, err
	}
	return s.properties.Get(ctx, id)
}

func (s *PropertyService) ReorderImages(ctx context.Context, id string, positions []models.MediaPosition) ([]models.Media, error) {
	if _, err := s.properties.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.media.Reorder(ctx, models.MediaOwnerProperty, id, positions)
}

func (s *PropertyService) RemoveImage(ctx context.Context, id, imageID string) error {
	m, err := s.media.Remove(ctx, models.MediaOwnerProperty, id, imageID)
	if err != nil {
		return err
	}
	s.uploads.Remove(ctx, []models.Media{m})
	return nil
}

func (s *PropertyService) Delete(ctx context.Context, id string) error {
	removed, err := s.properties.Delete(ctx, id)
	if err != nil {
		return err
	}
	s.uploads.Remove(ctx, removed)
	return nil
}

type AccompanimentInput struct {
	Title            string
	Description      string
	ShortDescription string
	Price            float64
	Characteristics  []string
}

func (in AccompanimentInput) apply(a *models.Accompaniment) {
	a.Title = strings.TrimSpace(in.Title)
	a.Description = in.Description
	a.ShortDescription = in.ShortDescription
	a.Price = in.Price
	a.Characteristics = in.Characteristics
}

type AccompanimentService struct {
	accompaniments AccompanimentStore
	media          MediaStore
	uploads        *UploadService
}

func NewAccompanimentService(accompaniments AccompanimentStore, media MediaStore, uploads *UploadService) *AccompanimentService {
	return &AccompanimentService{accompaniments: accompaniments, media: media, uploads: uploads}
}

func (s *AccompanimentService) Create(ctx context.Context, in AccompanimentInput, files []*multipart.FileHeader) (models.Accompaniment, error) {
	a := models.Accompaniment{ID: ids.New()}
	in.apply(&a)
	var created models.Accompaniment
	err := withImages(ctx, s.uploads, BucketAccompaniments, files, func(images []models.Media) ([]models.Media, error) {
		a.Images = images
		var err error
		created, err = s.accompaniments.Create(ctx, a)
		return nil, err
	})
	return created, err
}

func (s *AccompanimentService) List(ctx context.Context) ([]models.Accompaniment, error) {
	return s.accompaniments.List(ctx)
}

func (s *AccompanimentService) Get(ctx context.Context, id string) (models.Accompaniment, error) {
	return s.accompaniments.Get(ctx, id)
}

func (s *AccompanimentService) Update(ctx context.Context, id string, in AccompanimentInput, files []*multipart.FileHeader) (models.Accompaniment, error) {
	a := models.Accompaniment{ID: id}
	in.apply(&a)
	err := withImages(ctx, s.uploads, BucketAccompaniments, files, func(images []models.Media) ([]models.Media, error) {
		return s.accompaniments.Update(ctx, a, images)
	})
	if err != nil {
		return models.Accompaniment{}, err
	}
	return s.accompaniments.Get(ctx, id)
}

// Reorder sets the display position of each listed accompaniment.
func (s *AccompanimentService) Reorder(ctx context.Context, positions []models.MediaPosition) ([]models.Accompaniment, error) {
	if err := s.accompaniments.Reorder(ctx, positions); err != nil {
		return nil, err
	}
	return s.accompaniments.List(ctx)
}

func (s *AccompanimentService) ReorderImages(ctx context.Context, id string, positions []models.MediaPosition) ([]models.Media, error) {
	if _, err := s.accompaniments.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.media.Reorder(ctx, models.MediaOwnerAccompaniment, id, positions)
}

func (s *AccompanimentService) RemoveImage(ctx context.Context, id, imageID string) error {
	m, err := s.media.Remove(ctx, models.MediaOwnerAccompaniment, id, imageID)
	if err != nil {
		return err
	}
	s.uploads.Remove(ctx, []models.Media{m})
	return nil
}

func (s *AccompanimentService) Delete(ctx context.Context, id string) error {
	removed, err := s.accompaniments.Delete(ctx, id)
	if err != nil {
		return err
	}
	s.uploads.Remove(ctx, removed)
	return nil
}

type ProductInput struct {
	Title           string
	Description     string
	Link            string
	Type            models.ProductType
	Price           float64
	Discount        float64
	Characteristics []string
	IsFeatured      bool
	CategoryID      string
}

func (in ProductInput) apply(p *models.Product) {
	p.Title = strings.TrimSpace(in.Title)
	p.Description = in.Description
	p.Link = in.Link
	p.Type = in.Type
	if p.Type == "" {
		p.Type = models.ProductTypeProduct
	}
	p.Price = in.Price
	p.Discount = in.Discount
	p.Characteristics = in.Characteristics
	p.IsFeatured = in.IsFeatured
	if in.CategoryID != "" {
		p.Category = &models.Category{ID: in.CategoryID}
	}
}

type ProductService struct {
	products ProductStore
	media    MediaStore
	uploads  *UploadService
}

func NewProductService(products ProductStore, media MediaStore, uploads *UploadService) *ProductService {
	return &ProductService{products: products, media: media, uploads: uploads}
}

func (s *ProductService) Create(ctx context.Context, in ProductInput, files []*multipart.FileHeader) (models.Product, error) {
	p := models.Product{ID: ids.New()}
	in.apply(&p)
	err := withImages(ctx, s.uploads, BucketProducts, files, func(images []models.Media) ([]models.Media, error) {
		p.Images = images
		return nil, s.products.Create(ctx, p)
	})
	if err != nil {
		return models.Product{}, err
	}
	return s.products.Get(ctx, p.ID)
}

func (s *ProductService) List(ctx context.Context, f repository.ProductFilter, opts pagination.Options) (pagination.Page[models.Product], error) {
	items, total, err := s.products.List(ctx, f, opts)
	if err != nil {
		return pagination.Page[models.Product]{}, err
	}
	return pagination.NewPage(items, total, opts), nil
}

func (s *ProductService) Get(ctx context.Context, id string) (models.Product, error) {
	return s.products.Get(ctx, id)
}

func (s *ProductService) Update(ctx context.Context, id string, in ProductInput, files []*multipart.FileHeader) (models.Product, error) {
	p := models.Product{ID: id}
	in.apply(&p)
	err := withImages(ctx, s.uploads, BucketProducts, files, func(images []models.Media) ([]models.Media, error) {
		return s.products.Update(ctx, p, images)
	})
	if err != nil {
		return models.Product{}, err
	}
	return s.products.Get(ctx, id)
}

func (s *ProductService) ReorderImages(ctx context.Context, id string, positions []models.MediaPosition) ([]models.Media, error) {
	if _, err := s.products.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.media.Reorder(ctx, models.MediaOwnerProduct, id, positions)
}

func (s *ProductService) RemoveImage(ctx context.Context, id, imageID string) error {
	m, err := s.media.Remove(ctx, models.MediaOwnerProduct, id, imageID)
	if err != nil {
		return err
	}
	s.uploads.Remove(ctx, []models.Media{m})
	return nil
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	removed, err := s.products.Delete(ctx, id)
	if err != nil {
		return err
	}
	s.uploads.Remove(ctx, removed)
	return nil
}

func (s *ProductService) CreateCategory(ctx context.Context, name string) (models.Category, error) {
	return s.products.CreateCategory(ctx, models.Category{ID: ids.New(), Name: name})
}

func (s *ProductService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.products.ListCategories(ctx)
}

func (s *ProductService) DeleteCategory(ctx context.Context, id string) error {
	return s.products.DeleteCategory(ctx, id)
}
