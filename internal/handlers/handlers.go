package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"lagimmo/api/internal/config"
	"lagimmo/api/internal/middleware"
	"lagimmo/api/internal/service"
)

// Services are the dependencies of the route handlers.
type Services struct {
	Auth                  *service.AuthService
	Tokens                middleware.TokenVerifier
	Users                 middleware.UserLoader
	Uploads               *service.UploadService
	Properties            *service.PropertyService
	Accompaniments        *service.AccompanimentService
	Products              *service.ProductService
	Orders                *service.OrderService
	PropertyRequests      *service.RequestService
	AccompanimentRequests *service.RequestService
	Support               *service.SupportService
	Newsletter            *service.NewsletterService
	FAQ                   *service.FAQService
	Contact               *service.ContactService
	Analytics             *service.AnalyticsService
}

type HandlerSet struct {
	log    zerolog.Logger
	cfg    *config.AppConfig
	svc    Services
	checks []HealthCheck
}

func NewHandlerSet(log zerolog.Logger, cfg *config.AppConfig, svc Services, checks ...HealthCheck) HandlerSet {
	return HandlerSet{
		log:    log,
		cfg:    cfg,
		svc:    svc,
		checks: checks,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	authed := middleware.Auth(h.svc.Tokens, h.svc.Users)
	admin := []gin.HandlerFunc{authed, middleware.RequireSuperUser()}
	limited := middleware.RateLimit(h.cfg.RateLimit.RequestsPerSecond, h.cfg.RateLimit.Burst)

	v1 := router.Group("/v1")

	accounts := v1.Group("/accounts")
	{
		accounts.POST("/signup", limited, h.Signup)
		accounts.POST("/admin/login", limited, h.AdminLogin)
		accounts.POST("/refresh-token", h.RefreshToken)
		accounts.POST("/request-reset-password", limited, h.RequestPasswordReset)
		accounts.PUT("/reset-password", h.ResetPassword)
		accounts.POST("/verify-account", h.VerifyAccount)
		accounts.POST("/resend-verification-email", limited, h.ResendVerification)

		me := accounts.Group("", authed)
		me.POST("/logout", h.Logout)
		me.POST("/logout-all", h.LogoutAll)
		me.GET("/profile", h.Profile)
		me.PUT("/profile", h.UpdateProfile)
		me.PUT("/update-password", h.UpdatePassword)
	}

	properties := v1.Group("/property")
	{
		properties.GET("", h.ListProperties)
		properties.GET("/filter", h.FilterProperties)
		properties.GET("/:id", h.GetProperty)

		manage := properties.Group("", admin...)
		manage.POST("", h.CreateProperty)
		manage.PUT("/images/reorder", h.ReorderPropertyImages)
		manage.PUT("/:id", h.UpdateProperty)
		manage.DELETE("/:id/images/:imageId", h.RemovePropertyImage)
		manage.DELETE("/:id", h.DeleteProperty)
	}

	accompaniments := v1.Group("/accompaniements")
	{
		accompaniments.GET("", h.ListAccompaniments)
		accompaniments.GET("/:id", h.GetAccompaniment)

		manage := accompaniments.Group("", admin...)
		manage.POST("", h.CreateAccompaniment)
		manage.PUT("/reorder", h.ReorderAccompaniments)
		manage.PUT("/images/reorder", h.ReorderAccompanimentImages)
		manage.PUT("/:id", h.UpdateAccompaniment)
		manage.DELETE("/:id/images/:imageId", h.RemoveAccompanimentImage)
		manage.DELETE("/:id", h.DeleteAccompaniment)
	}

	products := v1.Group("/products")
	{
		products.GET("/products", h.ListProducts)
		products.GET("/books", h.ListBooks)
		products.GET("/categories", h.ListCategories)
		products.GET("/:id", h.GetProduct)

		manage := products.Group("", admin...)
		manage.POST("", h.CreateProduct)
		manage.POST("/categories", h.CreateCategory)
		manage.DELETE("/categories/:categoryId", h.DeleteCategory)
		manage.PUT("/:id", h.UpdateProduct)
		manage.PUT("/:id/images/order", h.ReorderProductImages)
		manage.DELETE("/:id/images/:imageId", h.RemoveProductImage)
		manage.DELETE("/:id", h.DeleteProduct)
	}

	orders := v1.Group("/orders")
	{
		orders.POST("", limited, h.CreateOrder)

		manage := orders.Group("", admin...)
		manage.GET("", h.ListOrders)
		manage.GET("/filter", h.FilterOrders)
		manage.GET("/:id", h.GetOrder)
		manage.PUT("/:id", h.UpdateOrder)
		manage.PUT("/:id/status", h.UpdateOrderStatus)
		manage.PUT("/:id/pay", h.MarkOrderPaid)
		manage.DELETE("/:id", h.DeleteOrder)
	}

	h.registerRequests(v1.Group("/property-request"), newRequestHandlers(h.svc.PropertyRequests, "propertyId"), limited, admin)
	h.registerRequests(v1.Group("/accompagniement-request"), newRequestHandlers(h.svc.AccompanimentRequests, "accompanimentId"), limited, admin)

	v1.POST("/support", limited, h.CreateTicket)
	support := v1.Group("/admin/support", admin...)
	{
		support.GET("", h.ListTickets)
		support.GET("/:id", h.GetTicket)
		support.PUT("/:id/answer", h.AnswerTicket)
		support.GET("/:id/attachments/:attachmentType", h.TicketAttachments)
	}

	v1.POST("/newsletter", limited, h.Subscribe)
	v1.GET("/newsletter", append(admin, h.ListSubscribers)...)

	faq := v1.Group("/faq")
	{
		faq.GET("", h.ListFAQ)
		manage := faq.Group("", admin...)
		manage.POST("", h.CreateFAQ)
		manage.PUT("/:id", h.UpdateFAQ)
		manage.DELETE("/:id", h.DeleteFAQ)
	}

	v1.GET("/contact", h.GetContact)
	v1.PUT("/contact", append(admin, h.UpdateContact)...)

	v1.GET("/analytics", append(admin, h.Analytics)...)
	v1.POST("/upload", append(admin, h.Upload)...)
}

func (h HandlerSet) registerRequests(group *gin.RouterGroup, r requestHandlers, limited gin.HandlerFunc, admin []gin.HandlerFunc) {
	group.POST("", limited, r.Create)

	manage := group.Group("", admin...)
	manage.GET("", r.List)
	manage.GET("/filter", r.Filter)
	manage.GET("/stats", r.Stats)
	manage.GET("/:id", r.Get)
	manage.PUT("/:id/status", r.UpdateStatus)
	manage.DELETE("/:id", r.Delete)
}
