package main

import (
	"net/http"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/diewo77/scanpos/auth"
	"github.com/diewo77/scanpos/gate"
	"github.com/diewo77/scanpos/httpx"
	"github.com/diewo77/scanpos/internal/logging"
	"github.com/diewo77/scanpos/internal/policy"
)

// App is the store API handler.
type App struct {
	mux       *http.ServeMux
	db        *gorm.DB
	routerCfg *policy.RouterConfig
	handler   http.Handler
}

// NewApp creates the application with all routes configured.
func NewApp(db *gorm.DB, routerCfg *policy.RouterConfig, log zerolog.Logger) *App {
	app := &App{
		mux:       http.NewServeMux(),
		db:        db,
		routerCfg: routerCfg,
	}
	app.setupRoutes()
	app.handler = logging.Middleware(log)(withRecover(routerCfg.Authenticator.Middleware(app.mux)))
	return app
}

func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

func (a *App) setupRoutes() {
	// Public
	a.mux.HandleFunc("GET /health", a.health)
	a.mux.HandleFunc("POST /api/auth/login", a.routerCfg.AuthHandler.Login)

	a.mux.Handle("GET /api/auth/me", a.requireAuth(http.HandlerFunc(a.routerCfg.AuthHandler.Me)))

	// Products
	ph := a.routerCfg.ProductHandler
	a.mux.Handle("GET /api/products", a.protect(policy.ResourceProduct, gate.ActionList, ph.List))
	a.mux.Handle("POST /api/products", a.protect(policy.ResourceProduct, gate.ActionCreate, ph.Create))
	a.mux.Handle("GET /api/products/by-barcode/{barcode}", a.protect(policy.ResourceProduct, gate.ActionView, ph.GetByBarcode))
	a.mux.Handle("GET /api/products/{id}", a.protect(policy.ResourceProduct, gate.ActionView, ph.Get))
	a.mux.Handle("PUT /api/products/{id}", a.protect(policy.ResourceProduct, gate.ActionUpdate, ph.Update))
	a.mux.Handle("DELETE /api/products/{id}", a.protect(policy.ResourceProduct, gate.ActionDelete, ph.Delete))

	// Users
	uh := a.routerCfg.UserHandler
	a.mux.Handle("GET /api/users", a.protect(policy.ResourceUser, gate.ActionList, uh.List))
	a.mux.Handle("POST /api/users", a.protect(policy.ResourceUser, gate.ActionCreate, uh.Create))
	a.mux.Handle("GET /api/users/{id}", a.protect(policy.ResourceUser, gate.ActionView, uh.Get))
	a.mux.Handle("PUT /api/users/{id}", a.protect(policy.ResourceUser, gate.ActionUpdate, uh.Update))
	a.mux.Handle("DELETE /api/users/{id}", a.protect(policy.ResourceUser, gate.ActionDelete, uh.Delete))

	// Invoices
	ih := a.routerCfg.InvoiceHandler
	a.mux.Handle("GET /api/invoices", a.protect(policy.ResourceInvoice, gate.ActionList, ih.List))
	a.mux.Handle("POST /api/invoices", a.protect(policy.ResourceInvoice, gate.ActionCreate, ih.Create))
	a.mux.Handle("GET /api/invoices/{id}", a.protectScan(policy.ResourceInvoice, gate.ActionView, ih.Get))
	a.mux.Handle("DELETE /api/invoices/{id}", a.protect(policy.ResourceInvoice, gate.ActionDelete, ih.Delete))
	a.mux.Handle("POST /api/invoices/{id}/items", a.protectScan(policy.ResourceInvoice, gate.ActionUpdate, ih.AddItem))
	a.mux.Handle("PUT /api/invoices/{id}/items/{item_id}", a.protect(policy.ResourceInvoice, gate.ActionUpdate, ih.UpdateItem))
	a.mux.Handle("DELETE /api/invoices/{id}/items/{item_id}", a.protect(policy.ResourceInvoice, gate.ActionUpdate, ih.DeleteItem))
	a.mux.Handle("POST /api/invoices/{id}/complete", a.protect(policy.ResourceInvoice, gate.ActionComplete, ih.Complete))
	a.mux.Handle("POST /api/invoices/{id}/scan-token", a.protect(policy.ResourceInvoice, gate.ActionUpdate, ih.ScanToken))

	// Reports
	rh := a.routerCfg.ReportHandler
	a.mux.Handle("GET /api/reports/sales", a.protect(policy.ResourceReport, gate.ActionView, rh.Sales))
	a.mux.Handle("GET /api/reports/dashboard", a.protect(policy.ResourceReport, gate.ActionView, rh.Dashboard))
}

func (a *App) requireAuth(h http.Handler) http.Handler {
	return a.routerCfg.Authenticator.RequireAuth(h)
}

// protect requires a login token holding resource:action.
func (a *App) protect(resource string, action gate.Action, h http.HandlerFunc) http.Handler {
	return a.requireAuth(auth.RejectScanScoped(a.routerCfg.AuthGate.RequirePermission(resource, action)(h)))
}

// protectScan is protect that also accepts scan tokens; the handler checks
// the token's invoice.
func (a *App) protectScan(resource string, action gate.Action, h http.HandlerFunc) http.Handler {
	return a.requireAuth(a.routerCfg.AuthGate.RequirePermission(resource, action)(h))
}

func (a *App) health(w http.ResponseWriter, r *http.Request) {
	sqlDB, err := a.db.DB()
	if err == nil {
		err = sqlDB.PingContext(r.Context())
	}
	if err != nil {
		httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				zerolog.Ctx(r.Context()).Error().Interface("panic", rec).Msg("handler panicked")
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
