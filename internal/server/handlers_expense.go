package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tabkeeper/tabkeeper/internal/models"
	"github.com/tabkeeper/tabkeeper/internal/service"
	"github.com/tabkeeper/tabkeeper/internal/storage"
)

// ExpenseHandler translates HTTP requests into expense service calls.
type ExpenseHandler struct {
	expenses *service.ExpenseService
}

func NewExpenseHandler(expenses *service.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenses: expenses}
}

type participantPayload struct {
	UserID     int64   `json:"user_id" binding:"required"`
	PaidAmount float64 `json:"paid_amount"`
	DueAmount  float64 `json:"due_amount"`
}

type addExpenseRequest struct {
	Description  string               `json:"description" binding:"required"`
	Participants []participantPayload `json:"participants" binding:"required"`
}

type updateExpenseRequest struct {
	Description  *string              `json:"description"`
	Participants []participantPayload `json:"participants"`
}

type participationResponse struct {
	UserID     int64   `json:"user_id"`
	PaidAmount float64 `json:"paid_amount"`
	DueAmount  float64 `json:"due_amount"`
}

type expenseResponse struct {
	ID           int64                   `json:"id"`
	GroupID      int64                   `json:"group_id"`
	Description  string                  `json:"description"`
	TotalAmount  float64                 `json:"total_amount"`
	CreatedAt    int64                   `json:"created_at"`
	Participants []participationResponse `json:"participants"`
}

type debtResponse struct {
	DebtorID   int64   `json:"debtor_id"`
	CreditorID int64   `json:"creditor_id"`
	AmountOwed float64 `json:"amount_owed"`
}

type expensePageResponse struct {
	Expenses []expenseResponse `json:"expenses"`
	Total    int64             `json:"total"`
	Offset   int64             `json:"offset"`
}

func toParticipants(payloads []participantPayload) []service.Participant {
	if payloads == nil {
		return nil
	}
	participants := make([]service.Participant, len(payloads))
	for i, p := range payloads {
		participants[i] = service.Participant{
			UserID:     p.UserID,
			PaidAmount: p.PaidAmount,
			DueAmount:  p.DueAmount,
		}
	}
	return participants
}

func toExpenseResponse(expense *models.Expense) expenseResponse {
	resp := expenseResponse{
		ID:           expense.ID,
		GroupID:      expense.GroupID,
		Description:  expense.Description,
		TotalAmount:  expense.TotalAmount,
		CreatedAt:    expense.CreatedAt,
		Participants: []participationResponse{},
	}
	for _, p := range expense.Participants {
		resp.Participants = append(resp.Participants, participationResponse{
			UserID:     p.UserID,
			PaidAmount: p.PaidAmount,
			DueAmount:  p.DueAmount,
		})
	}
	return resp
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

// AddExpense handles POST /v1/groups/:id/expenses.
func (h *ExpenseHandler) AddExpense(c *gin.Context) {
	groupID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req addExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	expense, err := h.expenses.AddExpense(c.Request.Context(), groupID, req.Description, toParticipants(req.Participants))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toExpenseResponse(expense))
}

// UpdateExpense handles PATCH /v1/expenses/:id.
func (h *ExpenseHandler) UpdateExpense(c *gin.Context) {
	expenseID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req updateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	expense, err := h.expenses.UpdateExpense(c.Request.Context(), expenseID, service.ExpenseUpdate{
		Description:  req.Description,
		Participants: toParticipants(req.Participants),
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, toExpenseResponse(expense))
}

// GetExpense handles GET /v1/expenses/:id.
func (h *ExpenseHandler) GetExpense(c *gin.Context) {
	expenseID, ok := pathID(c, "id")
	if !ok {
		return
	}

	expense, err := h.expenses.GetExpense(c.Request.Context(), expenseID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, toExpenseResponse(expense))
}

// ListExpenses handles GET /v1/groups/:id/expenses.
func (h *ExpenseHandler) ListExpenses(c *gin.Context) {
	groupID, ok := pathID(c, "id")
	if !ok {
		return
	}

	opts := storage.ListExpensesOptions{
		Ascending: c.Query("sort") == "asc",
	}
	opts.Limit, _ = strconv.ParseInt(c.DefaultQuery("limit", "0"), 10, 64)
	opts.Offset, _ = strconv.ParseInt(c.DefaultQuery("offset", "0"), 10, 64)

	page, err := h.expenses.ListExpenses(c.Request.Context(), groupID, opts)
	if err != nil {
		abortWithError(c, err)
		return
	}

	resp := expensePageResponse{Expenses: []expenseResponse{}, Total: page.Total, Offset: page.Offset}
	for _, e := range page.Expenses {
		resp.Expenses = append(resp.Expenses, toExpenseResponse(e))
	}
	c.JSON(http.StatusOK, resp)
}

// GetDebts handles GET /v1/groups/:id/debts.
func (h *ExpenseHandler) GetDebts(c *gin.Context) {
	groupID, ok := pathID(c, "id")
	if !ok {
		return
	}

	edges, err := h.expenses.GetDebts(c.Request.Context(), groupID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	debts := make([]debtResponse, 0, len(edges))
	for _, e := range edges {
		debts = append(debts, debtResponse{
			DebtorID:   e.DebtorID,
			CreditorID: e.CreditorID,
			AmountOwed: e.AmountOwed,
		})
	}
	c.JSON(http.StatusOK, gin.H{"debts": debts})
}
