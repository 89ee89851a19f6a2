package handlers

import (
	"github.com/jmoiron/sqlx"

	"campusmart/internal/config"
	"campusmart/internal/metrics"
	"campusmart/internal/notify"
	"campusmart/internal/repos"
	"campusmart/internal/services"
)

type Deps struct {
	Config  config.Config
	Metrics *metrics.Metrics
	Limiter *repos.LimiterStore

	Auth    *services.AuthService
	Orders  *services.OrderService
	Catalog *services.CatalogService

	AuthHandler    *AuthHandler
	OrderHandler   *OrderHandler
	ProductHandler *ProductHandler
	AdminHandler   *AdminHandler
}

// NewDeps wires repositories, services and handlers over one database.
// notifier, invoices and m may be nil.
func NewDeps(db *sqlx.DB, cfg config.Config, notifier notify.Dispatcher, invoices services.Invoicer, m *metrics.Metrics) *Deps {
	orderRepo := repos.NewOrderRepo(db)
	prodRepo := repos.NewProductRepo(db)
	adminRepo := repos.NewAdminRepo(db)

	authSvc := services.NewAuthService(adminRepo)
	orderSvc := services.NewOrderService(orderRepo, prodRepo, notifier, invoices, m, cfg.NotifyTimeout)
	catalogSvc := services.NewCatalogService(prodRepo, orderRepo)

	return &Deps{
		Config:  cfg,
		Metrics: m,
		Limiter: repos.NewLimiterStore(db),

		Auth:    authSvc,
		Orders:  orderSvc,
		Catalog: catalogSvc,

		AuthHandler:    &AuthHandler{Auth: authSvc, CookieSecure: cfg.CookieSecure},
		OrderHandler:   &OrderHandler{Orders: orderSvc},
		ProductHandler: &ProductHandler{Catalog: catalogSvc},
		AdminHandler:   &AdminHandler{Orders: orderSvc, Catalog: catalogSvc},
	}
}
