package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mbp16/travelnote/internal/rates"
)

func (s *Server) getSettings(c echo.Context) error {
	ctx := c.Request().Context()
	currency, err := s.store.StandardCurrency(ctx)
	if err != nil {
		return err
	}
	activeTrip, err := s.store.ActiveTripID(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"standardCurrency": currency,
		"activeTripId":     activeTrip,
	})
}

func (s *Server) putSettings(c echo.Context) error {
	var req struct {
		StandardCurrency string `json:"standardCurrency"`
	}
	if err := c.Bind(&req); err != nil || req.StandardCurrency == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "standardCurrency required")
	}
	if err := s.store.SetStandardCurrency(c.Request().Context(), req.StandardCurrency); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// getWidgetTrip resolves the trip pinned to a home-screen widget, falling
// back to the active trip when the widget has no pin.
func (s *Server) getWidgetTrip(c echo.Context) error {
	widgetID := c.Param("id")
	ctx := c.Request().Context()

	tripID, err := s.store.WidgetTripID(ctx, widgetID)
	if err != nil {
		return err
	}
	if tripID == 0 {
		if tripID, err = s.store.ActiveTripID(ctx); err != nil {
			return err
		}
	}
	if tripID == 0 {
		return c.JSON(http.StatusOK, map[string]any{"trip": nil})
	}

	trip, err := s.store.GetTrip(ctx, tripID)
	if err != nil {
		return c.JSON(http.StatusOK, map[string]any{"trip": nil})
	}
	return c.JSON(http.StatusOK, map[string]any{"trip": trip})
}

func (s *Server) setWidgetTrip(c echo.Context) error {
	widgetID := c.Param("id")
	var req struct {
		TripID int64 `json:"tripId"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := s.store.SetWidgetTripID(c.Request().Context(), widgetID, req.TripID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// getRates serves the cached table for the requested base (default: the
// standard currency) and optionally converts an amount. Rate lookups never
// fail the request; an empty table means rates are unavailable right now.
func (s *Server) getRates(c echo.Context) error {
	ctx := c.Request().Context()

	base := c.QueryParam("from")
	if base == "" {
		var err error
		if base, err = s.store.StandardCurrency(ctx); err != nil {
			return err
		}
	}

	table := s.rates.Rates(ctx, base)
	resp := map[string]any{"table": table}

	to := c.QueryParam("to")
	var amount float64
	if err := echo.QueryParamsBinder(c).Float64("amount", &amount).BindError(); err == nil && to != "" {
		if converted, ok := rates.Convert(amount, base, to, table); ok {
			resp["converted"] = converted
		}
	}

	return c.JSON(http.StatusOK, resp)
}
