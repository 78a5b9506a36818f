package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mbp16/travelnote/internal/ledger"
	"github.com/mbp16/travelnote/internal/metrics"
	"github.com/mbp16/travelnote/internal/models"
)

type expenseRequest struct {
	Title       string   `json:"title"`
	TotalAmount float64  `json:"totalAmount"`
	Description string   `json:"description"`
	PhotoURIs   []string `json:"photoUris"`
	CreatedAt   int64    `json:"createdAt"`
	Payments    []struct {
		PersonID int64   `json:"personId"`
		Amount   float64 `json:"amount"`
		Method   string  `json:"method"`
	} `json:"payments"`
	Shares []struct {
		PersonID    int64   `json:"personId"`
		Amount      float64 `json:"amount"`
		Description string  `json:"description"`
	} `json:"expenseUsers"`
}

func (r *expenseRequest) toModel(id, tripID int64) (*models.Expense, error) {
	expense := &models.Expense{
		ID:          id,
		TripID:      tripID,
		Title:       r.Title,
		TotalAmount: r.TotalAmount,
		Description: r.Description,
		PhotoURIs:   r.PhotoURIs,
		CreatedAt:   r.CreatedAt,
	}
	for _, pay := range r.Payments {
		method, err := models.ParsePaymentMethod(pay.Method)
		if err != nil {
			return nil, err
		}
		expense.Payments = append(expense.Payments, models.Payment{
			PersonID: pay.PersonID,
			Amount:   pay.Amount,
			Method:   method,
		})
	}
	for _, share := range r.Shares {
		expense.Shares = append(expense.Shares, models.Share{
			PersonID:    share.PersonID,
			Amount:      share.Amount,
			Description: share.Description,
		})
	}
	return expense, nil
}

func (s *Server) listExpenses(c echo.Context) error {
	tripID, err := idParam(c)
	if err != nil {
		return err
	}
	expenses, err := s.store.ListExpensesByTrip(c.Request().Context(), tripID)
	if err != nil {
		return err
	}
	if expenses == nil {
		expenses = []models.Expense{}
	}
	return c.JSON(http.StatusOK, expenses)
}

func (s *Server) createExpense(c echo.Context) error {
	tripID, err := idParam(c)
	if err != nil {
		return err
	}
	var req expenseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid expense payload")
	}
	if req.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "expense needs a title")
	}

	expense, err := req.toModel(0, tripID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	if _, err := s.store.GetTrip(ctx, tripID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	if err := s.store.CreateExpense(ctx, expense); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, expense)
}

func (s *Server) getExpense(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	expense, err := s.store.GetExpense(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, expense)
}

func (s *Server) updateExpense(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var req expenseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid expense payload")
	}

	ctx := c.Request().Context()
	existing, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	expense, err := req.toModel(id, existing.TripID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := s.store.UpdateExpense(ctx, expense); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, expense)
}

func (s *Server) deleteExpense(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	if err := s.store.DeleteExpense(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// balanceRow flattens a person's cash position and ledger net into one
// display row.
type balanceRow struct {
	Person        models.Person `json:"person"`
	TotalCash     float64       `json:"totalCash"`
	CashSpent     float64       `json:"cashSpent"`
	CardSpent     float64       `json:"cardSpent"`
	RemainingCash float64       `json:"remainingCash"`
	Net           float64       `json:"net"`
}

type balancesResponse struct {
	Balances  []balanceRow      `json:"balances"`
	Transfers []ledger.Transfer `json:"transfers"`
	Residual  float64           `json:"residual"`
}

// getBalances recomputes the whole trip ledger from scratch: cash positions,
// net positions, and the settlement transfer list.
func (s *Server) getBalances(c echo.Context) error {
	tripID, err := idParam(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	persons, err := s.store.ListPersonsByTrip(ctx, tripID)
	if err != nil {
		return err
	}
	entries, err := s.store.ListCashEntriesByTrip(ctx, tripID)
	if err != nil {
		return err
	}
	expenses, err := s.store.ListExpensesByTrip(ctx, tripID)
	if err != nil {
		return err
	}

	balances := ledger.Balances(persons, entries, expenses)
	nets := ledger.NetBalances(persons, expenses)
	transfers := ledger.Settle(nets)
	metrics.Settlements.Inc()

	rows := make([]balanceRow, len(balances))
	for i, b := range balances {
		rows[i] = balanceRow{
			Person:        b.Person,
			TotalCash:     b.TotalCash,
			CashSpent:     b.CashSpent,
			CardSpent:     b.CardSpent,
			RemainingCash: b.RemainingCash(),
			Net:           nets[i].Net,
		}
	}
	if transfers == nil {
		transfers = []ledger.Transfer{}
	}

	return c.JSON(http.StatusOK, balancesResponse{
		Balances:  rows,
		Transfers: transfers,
		Residual:  ledger.Residual(nets),
	})
}
