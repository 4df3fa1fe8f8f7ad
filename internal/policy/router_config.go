package policy

import (
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/scanpos/auth"
	"github.com/diewo77/scanpos/internal/handlers"
	"github.com/diewo77/scanpos/internal/services"
)

// RouterOptions tunes NewRouterConfig.
type RouterOptions struct {
	ProfileCacheTTL   time.Duration
	LowStockThreshold int
	Now               func() time.Time
}

// RouterConfig holds the wired handlers and middleware of the store API.
type RouterConfig struct {
	AuthGate      *AuthGate
	Authenticator *auth.Authenticator

	AuthHandler    *handlers.AuthHandler
	ProductHandler *handlers.ProductHandler
	UserHandler    *handlers.UserHandler
	InvoiceHandler *handlers.InvoiceHandler
	ReportHandler  *handlers.ReportHandler
}

// NewRouterConfig wires services, the authorization gate and handlers.
func NewRouterConfig(db *gorm.DB, issuer *auth.Issuer, opts RouterOptions) *RouterConfig {
	if opts.ProfileCacheTTL <= 0 {
		opts.ProfileCacheTTL = time.Minute
	}
	if opts.LowStockThreshold <= 0 {
		opts.LowStockThreshold = 10
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	authGate := NewAuthGate(db, opts.ProfileCacheTTL)

	userSvc := services.NewUserService(db)
	productSvc := services.NewProductService(db)
	invoiceSvc := services.NewInvoiceService(db).WithClock(opts.Now)
	reportSvc := services.NewReportService(db, opts.LowStockThreshold).WithClock(opts.Now)

	return &RouterConfig{
		AuthGate:       authGate,
		Authenticator:  &auth.Authenticator{Issuer: issuer, Verify: authGate.VerifyUser},
		AuthHandler:    handlers.NewAuthHandler(userSvc, issuer),
		ProductHandler: handlers.NewProductHandler(productSvc),
		UserHandler:    handlers.NewUserHandler(userSvc, authGate),
		InvoiceHandler: handlers.NewInvoiceHandler(invoiceSvc, authGate, issuer),
		ReportHandler:  handlers.NewReportHandler(reportSvc),
	}
}
