package service

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lagimmo/api/internal/apperr"
	"lagimmo/api/internal/config"
	"lagimmo/api/internal/models"
	"lagimmo/api/internal/pagination"
	"lagimmo/api/internal/repository"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

type fakeObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	failOn  string
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: map[string][]byte{}}
}

func (f *fakeObjects) Put(_ context.Context, bucket, name string, r io.Reader, _ int64, _ string) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	if f.failOn != "" && bytes.Contains(data, []byte(f.failOn)) {
		return 0, errors.New("storage down")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[bucket+"/"+name] = data
	return int64(len(data)), nil
}

func (f *fakeObjects) Get(_ context.Context, bucket, name string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[bucket+"/"+name]
	if !ok {
		return nil, errors.New("no such object")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeObjects) Remove(_ context.Context, bucket, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, bucket+"/"+name)
	return nil
}

func (f *fakeObjects) PresignedURL(_ context.Context, bucket, name string, _ time.Duration) (string, error) {
	return "https://signed.example/" + bucket + "/" + name, nil
}

func (f *fakeObjects) PublicURL(bucket, name string) string {
	return "https://cdn.example/" + bucket + "/" + name
}

func (f *fakeObjects) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

type part struct {
	name        string
	contentType string
	data        []byte
}

func fileHeaders(t *testing.T, parts ...part) []*multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, p := range parts {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename="%s"`, p.name))
		if p.contentType != "" {
			h.Set("Content-Type", p.contentType)
		}
		pw, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = pw.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["files"]
}

func newUploads(store ObjectStore) *UploadService {
	return NewUploadService(store, config.StorageConfig{Buckets: []string{BucketProperties, BucketSupport}}, 0, zerolog.Nop())
}

func TestUploadStoresSniffedFile(t *testing.T) {
	objects := newFakeObjects()
	uploads := newUploads(objects)
	headers := fileHeaders(t, part{name: "Photo.PNG", contentType: "image/png", data: pngHeader})

	m, err := uploads.Upload(context.Background(), BucketProperties, headers[0], imagesOnly)
	require.NoError(t, err)
	assert.Equal(t, "image/png", m.ContentType)
	assert.True(t, strings.HasSuffix(m.Name, ".png"))
	assert.Equal(t, "Photo.PNG", m.OriginalName)
	assert.Equal(t, "https://cdn.example/properties/"+m.Name, m.FullURL)
	assert.Equal(t, int64(len(pngHeader)), m.SizeBytes)
	assert.Equal(t, 1, objects.count())
}

func TestUploadRejections(t *testing.T) {
	uploads := newUploads(newFakeObjects())
	ctx := context.Background()
	pdf := []byte("%PDF-1.7\n...")

	cases := []struct {
		name   string
		bucket string
		part   part
		opts   UploadOptions
		want   error
	}{
		{"mismatch", BucketProperties, part{name: "a.jpg", contentType: "image/jpeg", data: pngHeader}, UploadOptions{}, ErrTypeMismatch},
		{"unknown", BucketProperties, part{name: "a.txt", contentType: "text/plain", data: []byte("hello")}, UploadOptions{}, ErrUnsupportedFile},
		{"pdf as image", BucketProperties, part{name: "a.pdf", contentType: "application/pdf", data: pdf}, imagesOnly, ErrImageRequired},
		{"bucket", "secret", part{name: "a.png", data: pngHeader}, UploadOptions{}, ErrUnknownBucket},
		{"too large", BucketProperties, part{name: "big.png", data: append(append([]byte{}, pngHeader...), make([]byte, MaxUploadBytes)...)}, UploadOptions{}, ErrFileTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := fileHeaders(t, tc.part)
			_, err := uploads.Upload(ctx, tc.bucket, h[0], tc.opts)
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
}

func TestUploadSanitizesSVG(t *testing.T) {
	objects := newFakeObjects()
	uploads := newUploads(objects)
	svgDoc := []byte(`<svg xmlns="http://www.w3.org/2000/svg" onload="alert(1)"><script>alert(2)</script><rect/></svg>`)
	h := fileHeaders(t, part{name: "logo.svg", contentType: "image/svg+xml", data: svgDoc})

	m, err := uploads.Upload(context.Background(), BucketProperties, h[0], imagesOnly)
	require.NoError(t, err)

	stored := objects.objects[m.Bucket+"/"+m.Name]
	assert.NotContains(t, string(stored), "script")
	assert.NotContains(t, string(stored), "onload")
	assert.Contains(t, string(stored), "<rect/>")
}

func TestUploadManyKeepsOrderAndCleansUp(t *testing.T) {
	objects := newFakeObjects()
	uploads := newUploads(objects)
	ctx := context.Background()

	var parts []part
	for i := 0; i < 6; i++ {
		parts = append(parts, part{name: fmt.Sprintf("%d.png", i), data: append(append([]byte{}, pngHeader...), byte(i))})
	}
	media, err := uploads.UploadMany(ctx, BucketProperties, fileHeaders(t, parts...), imagesOnly)
	require.NoError(t, err)
	require.Len(t, media, 6)
	for i, m := range media {
		assert.Equal(t, fmt.Sprintf("%d.png", i), m.OriginalName)
		assert.Equal(t, i, m.Position)
	}

	failing := newFakeObjects()
	failing.failOn = "boom"
	uploads = newUploads(failing)
	bad := append(append([]byte{}, pngHeader...), []byte("boom")...)
	_, err = uploads.UploadMany(ctx, BucketProperties, fileHeaders(t,
		part{name: "ok.png", data: pngHeader},
		part{name: "bad.png", data: bad},
	), imagesOnly)
	require.Error(t, err)
	assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))
	assert.Equal(t, 0, failing.count())
}

type fakeRequests struct {
	mu    sync.Mutex
	items map[string]models.Request
}

func newFakeRequests() *fakeRequests {
	return &fakeRequests{items: map[string]models.Request{}}
}

func (f *fakeRequests) Create(_ context.Context, req models.Request) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[req.ID] = req
	return nil
}

func (f *fakeRequests) HasPending(_ context.Context, targetID, email, phone string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.items {
		if r.Target.ID != targetID || r.Status != models.RequestStatusPending {
			continue
		}
		if strings.EqualFold(r.Email, email) || r.PhoneNumber == phone {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRequests) Get(_ context.Context, id string) (models.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.items[id]
	if !ok {
		return models.Request{}, repository.ErrRequestNotFound
	}
	return r, nil
}

func (f *fakeRequests) List(context.Context) ([]models.Request, error) { return nil, nil }

func (f *fakeRequests) Filter(context.Context, repository.RequestFilter, pagination.Options) ([]models.Request, int, error) {
	return nil, 0, nil
}

func (f *fakeRequests) Stats(context.Context) (models.RequestStats, error) {
	return models.RequestStats{}, nil
}

func (f *fakeRequests) UpdateStatus(_ context.Context, id string, status models.RequestStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.items[id]
	if !ok {
		return repository.ErrRequestNotFound
	}
	r.Status = status
	f.items[id] = r
	return nil
}

func (f *fakeRequests) Delete(context.Context, string) error { return nil }

type fakeTargets map[string]bool

func (f fakeTargets) Exists(_ context.Context, id string) (bool, error) { return f[id], nil }

func TestRequestDuplicatePolicy(t *testing.T) {
	store := newFakeRequests()
	svc := NewRequestService(models.RequestTargetProperty, store, fakeTargets{"p1": true, "p2": true}, zerolog.Nop())
	ctx := context.Background()
	base := RequestInput{
		ContactInput: ContactInput{FirstName: "Alice", LastName: "Martin", Email: "alice@example.com", PhoneNumber: "0600000001"},
		TargetID:     "p1",
	}

	first, err := svc.Create(ctx, base)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, first.Status)

	sameEmail := base
	sameEmail.Email = "ALICE@example.com "
	sameEmail.PhoneNumber = "0699999999"
	_, err = svc.Create(ctx, sameEmail)
	assert.ErrorIs(t, err, repository.ErrDuplicateRequest)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	samePhone := base
	samePhone.Email = "other@example.com"
	_, err = svc.Create(ctx, samePhone)
	assert.ErrorIs(t, err, repository.ErrDuplicateRequest)

	otherTarget := base
	otherTarget.TargetID = "p2"
	_, err = svc.Create(ctx, otherTarget)
	assert.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, first.ID, models.RequestStatusAccepted)
	require.NoError(t, err)
	_, err = svc.Create(ctx, base)
	assert.NoError(t, err, "a handled request no longer blocks a new one")
}

func TestRequestUnknownTarget(t *testing.T) {
	svc := NewRequestService(models.RequestTargetAccompaniment, newFakeRequests(), fakeTargets{}, zerolog.Nop())

	_, err := svc.Create(context.Background(), RequestInput{TargetID: "missing"})
	assert.ErrorIs(t, err, repository.ErrAccompanimentNotFound)
}

func TestRequestStatusValidation(t *testing.T) {
	svc := NewRequestService(models.RequestTargetProperty, newFakeRequests(), fakeTargets{}, zerolog.Nop())

	_, err := svc.UpdateStatus(context.Background(), "r1", "LOST")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	bad := "LOST"
	_, err = svc.Filter(context.Background(), repository.RequestFilter{Status: &bad}, pagination.Defaults())
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

type fakeAnalytics struct{}

func (fakeAnalytics) Properties(context.Context) (models.PropertyAnalytics, error) {
	return models.PropertyAnalytics{Total: 4, Featured: 1}, nil
}

func (fakeAnalytics) Requests(_ context.Context, target models.RequestTarget) (models.RequestAnalytics, error) {
	if target == models.RequestTargetProperty {
		return models.RequestAnalytics{RequestStats: models.RequestStats{Total: 5, Pending: 2}}, nil
	}
	return models.RequestAnalytics{RequestStats: models.RequestStats{Total: 3, Pending: 1}}, nil
}

func (fakeAnalytics) Accompaniments(context.Context) (models.AccompanimentAnalytics, error) {
	return models.AccompanimentAnalytics{Total: 2}, nil
}

func (fakeAnalytics) Products(context.Context) (models.ProductAnalytics, error) {
	return models.ProductAnalytics{Total: 6}, nil
}

func (fakeAnalytics) Orders(context.Context) (models.OrderAnalytics, error) {
	return models.OrderAnalytics{Total: 3, Paid: 1, Shipped: 2}, nil
}

func (fakeAnalytics) Support(context.Context) (models.SupportAnalytics, error) {
	return models.SupportAnalytics{Total: 4, Answered: 3, Unanswered: 1}, nil
}

func (fakeAnalytics) Revenue(context.Context) (models.RevenueAnalytics, error) {
	return models.RevenueAnalytics{Total: 100}, nil
}

func (fakeAnalytics) Activity(_ context.Context, since time.Time) (models.ActivityWindow, error) {
	if time.Since(since) > 10*24*time.Hour {
		return models.ActivityWindow{Orders: 30}, nil
	}
	return models.ActivityWindow{Orders: 7}, nil
}

func (fakeAnalytics) NewsletterSubscribers(context.Context) (int, error) { return 9, nil }

func TestAnalyticsOverview(t *testing.T) {
	svc := NewAnalyticsService(fakeAnalytics{})

	out, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 33.33, out.Orders.PaymentRate)
	assert.Equal(t, 66.67, out.Orders.FulfillmentRate)
	assert.Equal(t, 75.0, out.Support.ResponseRate)
	assert.Equal(t, 7, out.RecentActivity.Last7Days.Orders)
	assert.Equal(t, 30, out.RecentActivity.Last30Days.Orders)
	assert.Equal(t, models.AnalyticsSummary{
		TotalListings:         12,
		TotalRequests:         8,
		PendingRequests:       3,
		PendingSupport:        1,
		NewsletterSubscribers: 9,
	}, out.Summary)
}

type fakeTickets struct {
	ticket models.SupportTicket
	seen   int
}

func (f *fakeTickets) Create(context.Context, models.SupportTicket) error { return nil }

func (f *fakeTickets) Get(context.Context, string) (models.SupportTicket, error) {
	return f.ticket, nil
}

func (f *fakeTickets) MarkSeen(context.Context, string) error {
	f.seen++
	now := time.Now()
	f.ticket.SeenAt = &now
	return nil
}

func (f *fakeTickets) Answer(context.Context, string, string, string, []models.Media) error {
	return repository.ErrAlreadyAnswered
}

func (f *fakeTickets) Filter(context.Context, repository.TicketFilter, pagination.Options) ([]models.SupportTicket, int, error) {
	return nil, 0, nil
}

func TestSupportAttachmentsZip(t *testing.T) {
	objects := newFakeObjects()
	objects.objects["support/a"] = []byte("question file")
	objects.objects["support/b"] = []byte("answer file")
	tickets := &fakeTickets{ticket: models.SupportTicket{
		ID:                  "t1",
		QuestionAttachments: []models.Media{{Bucket: "support", Name: "a", OriginalName: "doc.pdf"}},
		Attachments:         []models.Media{{Bucket: "support", Name: "b", OriginalName: "doc.pdf"}},
	}}
	svc := NewSupportService(tickets, newUploads(objects), &fakeMail{}, config.MailTemplates{}, zerolog.Nop())

	data, err := svc.Attachments(context.Background(), "t1", AttachmentsAll)
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "doc.pdf", zr.File[0].Name)
	assert.Equal(t, "2_doc.pdf", zr.File[1].Name)

	_, err = svc.Attachments(context.Background(), "t1", "everything")
	assert.ErrorIs(t, err, ErrUnknownAttachmentSet)
}

func TestSupportGetMarksSeenOnce(t *testing.T) {
	tickets := &fakeTickets{ticket: models.SupportTicket{ID: "t1"}}
	svc := NewSupportService(tickets, newUploads(newFakeObjects()), &fakeMail{}, config.MailTemplates{}, zerolog.Nop())

	for i := 0; i < 2; i++ {
		got, err := svc.Get(context.Background(), "t1")
		require.NoError(t, err)
		assert.NotNil(t, got.SeenAt)
	}
	assert.Equal(t, 1, tickets.seen)
}

func TestSupportAnswerRejectsSecondAnswer(t *testing.T) {
	answered := time.Now()
	tickets := &fakeTickets{ticket: models.SupportTicket{ID: "t1", AnsweredAt: &answered}}
	svc := NewSupportService(tickets, newUploads(newFakeObjects()), &fakeMail{}, config.MailTemplates{}, zerolog.Nop())

	_, err := svc.Answer(context.Background(), "t1", models.User{ID: "admin"}, "encore", nil)
	assert.ErrorIs(t, err, repository.ErrAlreadyAnswered)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}
