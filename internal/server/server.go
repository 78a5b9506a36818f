// Package server exposes the Travelnote API over HTTP. Handlers stay thin:
// they parse, call the store and the ledger/snapshot packages, and render
// JSON.
package server

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"

	"github.com/mbp16/travelnote/internal/config"
	"github.com/mbp16/travelnote/internal/rates"
	"github.com/mbp16/travelnote/internal/snapshot"
	"github.com/mbp16/travelnote/internal/storage"
)

// Server wires the HTTP surface to the store and services.
type Server struct {
	echo     *echo.Echo
	store    storage.Store
	rates    *rates.Client
	exporter *snapshot.Exporter
	importer *snapshot.Importer
	cfg      config.Config
}

// New builds the server with all routes registered.
func New(cfg config.Config, store storage.Store) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	// Metrics outside the logger: the logger resolves errors to a status
	// before the histogram observes it.
	e.Use(requestMetrics())
	e.Use(requestLogger())

	s := &Server{
		echo:     e,
		store:    store,
		rates:    rates.New(cfg.RatesURL),
		exporter: snapshot.NewExporter(store, cfg.PhotoDir),
		importer: snapshot.NewImporter(store, cfg.PhotoDir),
		cfg:      cfg,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.echo.Group("/api")

	api.GET("/trips", s.listTrips)
	api.POST("/trips", s.createTrip)
	api.GET("/trips/active", s.getActiveTrip)
	api.PUT("/trips/active", s.setActiveTrip)
	api.GET("/trips/:id", s.getTrip)
	api.PUT("/trips/:id", s.updateTrip)
	api.DELETE("/trips/:id", s.deleteTrip)

	api.GET("/trips/:id/persons", s.listPersons)
	api.POST("/trips/:id/persons", s.createPerson)
	api.PUT("/persons/:id", s.updatePerson)
	api.DELETE("/persons/:id", s.deletePerson)

	api.GET("/persons/:id/cash", s.listCashEntries)
	api.POST("/persons/:id/cash", s.createCashEntry)
	api.PUT("/cash/:id", s.updateCashEntry)
	api.DELETE("/cash/:id", s.deleteCashEntry)
	api.GET("/persons/:id/transactions", s.listTransactions)

	api.GET("/trips/:id/expenses", s.listExpenses)
	api.POST("/trips/:id/expenses", s.createExpense)
	api.GET("/expenses/:id", s.getExpense)
	api.PUT("/expenses/:id", s.updateExpense)
	api.DELETE("/expenses/:id", s.deleteExpense)

	api.GET("/trips/:id/balances", s.getBalances)

	api.GET("/export", s.exportSnapshot)
	api.POST("/import", s.importSnapshot)
	api.POST("/reset", s.resetStore)

	api.GET("/settings", s.getSettings)
	api.PUT("/settings", s.putSettings)
	api.GET("/widgets/:id/trip", s.getWidgetTrip)
	api.PUT("/widgets/:id/trip", s.setWidgetTrip)

	api.GET("/rates", s.getRates)

	s.echo.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// Start serves HTTP with h2c so HTTP/2 works without TLS.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	return s.echo.StartH2CServer(addr, &http2.Server{})
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown() error {
	return s.echo.Close()
}

func idParam(c echo.Context) (int64, error) {
	var id int64
	if err := echo.PathParamsBinder(c).Int64("id", &id).BindError(); err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}
