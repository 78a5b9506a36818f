package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mbp16/travelnote/internal/models"
)

type tripRequest struct {
	Name      string `json:"name"`
	StartDate int64  `json:"startDate"`
	EndDate   int64  `json:"endDate"`
	Currency  string `json:"currency"`
}

func (s *Server) listTrips(c echo.Context) error {
	trips, err := s.store.ListTrips(c.Request().Context())
	if err != nil {
		return err
	}
	if trips == nil {
		trips = []models.Trip{}
	}
	return c.JSON(http.StatusOK, trips)
}

func (s *Server) createTrip(c echo.Context) error {
	var req tripRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid trip payload")
	}
	if req.Name == "" || req.Currency == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "trip needs a name and a currency")
	}

	ctx := c.Request().Context()
	trip := &models.Trip{Name: req.Name, StartDate: req.StartDate, EndDate: req.EndDate, Currency: req.Currency}
	if err := s.store.CreateTrip(ctx, trip); err != nil {
		return err
	}
	// Creating a trip selects it, like the app does.
	if err := s.store.SetActiveTripID(ctx, trip.ID); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, trip)
}

func (s *Server) getTrip(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	trip, err := s.store.GetTrip(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, trip)
}

func (s *Server) updateTrip(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var req tripRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid trip payload")
	}

	trip := &models.Trip{ID: id, Name: req.Name, StartDate: req.StartDate, EndDate: req.EndDate, Currency: req.Currency}
	if err := s.store.UpdateTrip(c.Request().Context(), trip); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, trip)
}

func (s *Server) deleteTrip(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := s.store.DeleteTrip(ctx, id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	// Deleting the selected trip clears the selection.
	if active, err := s.store.ActiveTripID(ctx); err == nil && active == id {
		if err := s.store.SetActiveTripID(ctx, 0); err != nil {
			return err
		}
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) getActiveTrip(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := s.store.ActiveTripID(ctx)
	if err != nil {
		return err
	}
	if id == 0 {
		return c.JSON(http.StatusOK, map[string]any{"trip": nil})
	}
	trip, err := s.store.GetTrip(ctx, id)
	if err != nil {
		// Selection points at a deleted trip; treat as no selection.
		return c.JSON(http.StatusOK, map[string]any{"trip": nil})
	}
	return c.JSON(http.StatusOK, map[string]any{"trip": trip})
}

func (s *Server) setActiveTrip(c echo.Context) error {
	var req struct {
		TripID int64 `json:"tripId"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	ctx := c.Request().Context()
	if req.TripID != 0 {
		if _, err := s.store.GetTrip(ctx, req.TripID); err != nil {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
	}
	if err := s.store.SetActiveTripID(ctx, req.TripID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
