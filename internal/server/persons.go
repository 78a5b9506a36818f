package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mbp16/travelnote/internal/ledger"
	"github.com/mbp16/travelnote/internal/models"
)

func (s *Server) listPersons(c echo.Context) error {
	tripID, err := idParam(c)
	if err != nil {
		return err
	}
	persons, err := s.store.ListPersonsByTrip(c.Request().Context(), tripID)
	if err != nil {
		return err
	}
	if persons == nil {
		persons = []models.Person{}
	}
	return c.JSON(http.StatusOK, persons)
}

func (s *Server) createPerson(c echo.Context) error {
	tripID, err := idParam(c)
	if err != nil {
		return err
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil || req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "person needs a name")
	}

	ctx := c.Request().Context()
	if _, err := s.store.GetTrip(ctx, tripID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	person := &models.Person{TripID: tripID, Name: req.Name}
	if err := s.store.CreatePerson(ctx, person); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, person)
}

func (s *Server) updatePerson(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil || req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "person needs a name")
	}

	person := &models.Person{ID: id, Name: req.Name}
	if err := s.store.UpdatePerson(c.Request().Context(), person); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, person)
}

func (s *Server) deletePerson(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	if err := s.store.DeletePerson(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

type cashEntryRequest struct {
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	CreatedAt   int64   `json:"createdAt"`
}

func (s *Server) listCashEntries(c echo.Context) error {
	personID, err := idParam(c)
	if err != nil {
		return err
	}
	entries, err := s.store.ListCashEntriesByPerson(c.Request().Context(), personID)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []models.CashEntry{}
	}
	return c.JSON(http.StatusOK, entries)
}

func (s *Server) createCashEntry(c echo.Context) error {
	personID, err := idParam(c)
	if err != nil {
		return err
	}
	var req cashEntryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid cash entry payload")
	}

	entry := &models.CashEntry{
		PersonID:    personID,
		Amount:      req.Amount,
		Description: req.Description,
		CreatedAt:   req.CreatedAt,
	}
	if err := s.store.CreateCashEntry(c.Request().Context(), entry); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, entry)
}

func (s *Server) updateCashEntry(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var req cashEntryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid cash entry payload")
	}

	entry := &models.CashEntry{
		ID:          id,
		Amount:      req.Amount,
		Description: req.Description,
		CreatedAt:   req.CreatedAt,
	}
	if err := s.store.UpdateCashEntry(c.Request().Context(), entry); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, entry)
}

func (s *Server) deleteCashEntry(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	if err := s.store.DeleteCashEntry(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// listTransactions returns a person's merged cash-in and payment-out feed,
// newest first. Needs the trip's expenses, so the person is resolved through
// their trip via the query parameter.
func (s *Server) listTransactions(c echo.Context) error {
	personID, err := idParam(c)
	if err != nil {
		return err
	}
	var tripID int64
	if err := echo.QueryParamsBinder(c).Int64("tripId", &tripID).BindError(); err != nil || tripID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "tripId query parameter required")
	}

	ctx := c.Request().Context()
	entries, err := s.store.ListCashEntriesByPerson(ctx, personID)
	if err != nil {
		return err
	}
	expenses, err := s.store.ListExpensesByTrip(ctx, tripID)
	if err != nil {
		return err
	}

	feed := ledger.Transactions(personID, entries, expenses)
	if feed == nil {
		feed = []ledger.Transaction{}
	}
	return c.JSON(http.StatusOK, feed)
}
