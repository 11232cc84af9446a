package service

import (
	"context"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"lagimmo/api/internal/models"
)

const analyticsConcurrency = 4

type AnalyticsService struct {
	store AnalyticsStore
	now   func() time.Time
}

func NewAnalyticsService(store AnalyticsStore) *AnalyticsService {
	return &AnalyticsService{store: store, now: time.Now}
}

// Overview computes every area concurrently and derives rates and the summary.
func (s *AnalyticsService) Overview(ctx context.Context) (models.Analytics, error) {
	var (
		out         models.Analytics
		subscribers int
		now         = s.now()
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(analyticsConcurrency)

	g.Go(func() (err error) { out.Properties, err = s.store.Properties(ctx); return })
	g.Go(func() (err error) {
		out.PropertyRequests, err = s.store.Requests(ctx, models.RequestTargetProperty)
		return
	})
	g.Go(func() (err error) { out.Accompaniments, err = s.store.Accompaniments(ctx); return })
	g.Go(func() (err error) {
		out.AccompanimentRequests, err = s.store.Requests(ctx, models.RequestTargetAccompaniment)
		return
	})
	g.Go(func() (err error) { out.Products, err = s.store.Products(ctx); return })
	g.Go(func() (err error) { out.Orders, err = s.store.Orders(ctx); return })
	g.Go(func() (err error) { out.Support, err = s.store.Support(ctx); return })
	g.Go(func() (err error) { out.Revenue, err = s.store.Revenue(ctx); return })
	g.Go(func() (err error) {
		out.RecentActivity.Last7Days, err = s.store.Activity(ctx, now.AddDate(0, 0, -7))
		return
	})
	g.Go(func() (err error) {
		out.RecentActivity.Last30Days, err = s.store.Activity(ctx, now.AddDate(0, 0, -30))
		return
	})
	g.Go(func() (err error) { subscribers, err = s.store.NewsletterSubscribers(ctx); return })

	if err := g.Wait(); err != nil {
		return models.Analytics{}, err
	}

	out.Orders.PaymentRate = rate(out.Orders.Paid, out.Orders.Total)
	out.Orders.FulfillmentRate = rate(out.Orders.Shipped, out.Orders.Total)
	out.Support.ResponseRate = rate(out.Support.Answered, out.Support.Total)

	out.Summary = models.AnalyticsSummary{
		TotalListings:         out.Properties.Total + out.Accompaniments.Total + out.Products.Total,
		TotalRequests:         out.PropertyRequests.Total + out.AccompanimentRequests.Total,
		PendingRequests:       out.PropertyRequests.Pending + out.AccompanimentRequests.Pending,
		PendingSupport:        out.Support.Unanswered,
		NewsletterSubscribers: subscribers,
	}
	out.GeneratedAt = now.UTC()
	return out, nil
}

// rate is part/total as a percentage rounded to two decimals.
func rate(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*10000) / 100
}
