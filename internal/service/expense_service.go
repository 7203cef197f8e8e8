// Package service implements the application services on top of the store.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/tabkeeper/tabkeeper/internal/metrics"
	"github.com/tabkeeper/tabkeeper/internal/models"
	"github.com/tabkeeper/tabkeeper/internal/settlement"
	"github.com/tabkeeper/tabkeeper/internal/storage"
)

var (
	// ErrNoParticipants rejects an expense with an empty participant list.
	ErrNoParticipants = errors.New("expense must have at least one participant")

	// ErrNegativeAmount rejects negative paid or due amounts.
	ErrNegativeAmount = errors.New("amounts must not be negative")

	// ErrUnbalancedExpense rejects a participant list whose paid and due
	// sums differ. This validation runs before any write; the settlement
	// engine relies on it.
	ErrUnbalancedExpense = errors.New("total paid must equal total due")

	// ErrUnknownMember reports a participant id with no user account. The
	// surrounding transaction rolls back; no partial expense or ledger
	// writes survive.
	ErrUnknownMember = errors.New("unknown member in participant list")
)

// amountEpsilon tolerates float rounding when comparing paid and due sums.
const amountEpsilon = 1e-6

// Participant is one member's contribution in an incoming expense payload.
type Participant struct {
	UserID     int64
	PaidAmount float64
	DueAmount  float64
}

// ExpenseUpdate carries the mutable fields of an expense. Nil means "leave
// unchanged"; a description-only update never touches the ledger.
type ExpenseUpdate struct {
	Description  *string
	Participants []Participant
}

// ExpensePage is a page of a group's expenses.
type ExpensePage struct {
	Expenses []*models.Expense
	Total    int64
	Offset   int64
}

// ExpenseService orchestrates expense mutations: it persists the expense and
// its participation rows, recomputes the group's cumulative balances and
// rewrites the debt ledger, all within one transaction.
type ExpenseService struct {
	store storage.Store
}

// NewExpenseService creates a new ExpenseService with the given storage backend.
func NewExpenseService(store storage.Store) *ExpenseService {
	return &ExpenseService{store: store}
}

// validateParticipants enforces the upstream balance precondition: at least
// one participant, no negative amounts, paid and due sums equal.
func validateParticipants(participants []Participant) error {
	if len(participants) == 0 {
		return ErrNoParticipants
	}
	var paid, due float64
	for _, p := range participants {
		if p.PaidAmount < 0 || p.DueAmount < 0 {
			return fmt.Errorf("%w: user %d", ErrNegativeAmount, p.UserID)
		}
		paid += p.PaidAmount
		due += p.DueAmount
	}
	if math.Abs(paid-due) > amountEpsilon {
		return fmt.Errorf("%w: paid %.2f, due %.2f", ErrUnbalancedExpense, paid, due)
	}
	return nil
}

func totalPaid(participants []Participant) float64 {
	var total float64
	for _, p := range participants {
		total += p.PaidAmount
	}
	return total
}

// requireUsers fails the transaction when any participant id has no account.
func requireUsers(ctx context.Context, tx storage.Queries, participants []Participant) error {
	ids := make([]int64, len(participants))
	for i, p := range participants {
		ids[i] = p.UserID
	}
	users, err := tx.GetUsersByIDs(ctx, ids)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, ok := users[id]; !ok {
			return fmt.Errorf("%w: user %d", ErrUnknownMember, id)
		}
	}
	return nil
}

// rewriteLedger settles the given balances and replaces the group's debt
// edges with the result. The old edges are gone no matter what the new
// computation emits; the ledger is derived state, never merged.
func rewriteLedger(ctx context.Context, tx storage.Queries, groupID int64, balances []models.MemberBalance) error {
	start := time.Now()

	edges, err := settlement.Settle(balances)
	if err != nil {
		metrics.SettlementRecomputes.WithLabelValues("error").Inc()
		return err
	}
	if err := tx.DeleteDebts(ctx, groupID); err != nil {
		return err
	}
	if err := tx.InsertDebts(ctx, groupID, edges); err != nil {
		return err
	}

	metrics.SettlementRecomputes.WithLabelValues("ok").Inc()
	metrics.SettlementEdges.Observe(float64(len(edges)))
	metrics.SettlementDuration.Observe(time.Since(start).Seconds())

	slog.Debug("Ledger rewritten",
		"group_id", groupID,
		"members", len(balances),
		"edges", len(edges),
	)
	return nil
}

// AddExpense creates an expense with its participation rows and rebuilds the
// group's debt ledger, atomically.
func (s *ExpenseService) AddExpense(ctx context.Context, groupID int64, description string, participants []Participant) (*models.Expense, error) {
	if err := validateParticipants(participants); err != nil {
		return nil, err
	}

	expense := &models.Expense{
		GroupID:     groupID,
		Description: description,
		TotalAmount: totalPaid(participants),
	}

	err := s.store.Transact(ctx, func(tx storage.Queries) error {
		group, err := tx.GetGroup(ctx, groupID)
		if err != nil {
			return err
		}
		if err := requireUsers(ctx, tx, participants); err != nil {
			return err
		}

		if err := tx.CreateExpense(ctx, expense); err != nil {
			return err
		}

		// Cumulative balances must be read before this expense's
		// participation rows exist; the new contribution is added
		// arithmetically on top of the prior sums instead of re-querying
		// after insert.
		balances := make([]models.MemberBalance, len(participants))
		for i, p := range participants {
			paid, due, err := tx.SumParticipation(ctx, groupID, p.UserID)
			if err != nil {
				return err
			}
			balances[i] = models.MemberBalance{
				UserID: p.UserID,
				Paid:   paid + p.PaidAmount,
				Due:    due + p.DueAmount,
			}
		}

		if err := rewriteLedger(ctx, tx, groupID, balances); err != nil {
			return err
		}

		// Participation rows exist only for members who paid something;
		// everyone else is represented through the ledger alone.
		for _, p := range participants {
			if p.PaidAmount <= 0 {
				continue
			}
			row := models.Participation{
				ExpenseID:  expense.ID,
				UserID:     p.UserID,
				PaidAmount: p.PaidAmount,
				DueAmount:  p.DueAmount,
			}
			if err := tx.CreateParticipation(ctx, &row); err != nil {
				return err
			}
			expense.Participants = append(expense.Participants, row)
		}

		// Anyone who shares an expense belongs in the group.
		for _, p := range participants {
			if err := tx.AddGroupMember(ctx, group.ID, p.UserID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		slog.Error("AddExpense failed", "group_id", groupID, "error", err)
		return nil, err
	}

	slog.Info("Expense added",
		"expense_id", expense.ID,
		"group_id", groupID,
		"total", expense.TotalAmount,
		"participants", len(participants),
	)
	return expense, nil
}

// UpdateExpense mutates an expense in place. A description-only update
// leaves participation rows and the ledger untouched. When participant
// amounts are given, existing rows are rewritten, the total recomputed and
// the group's ledger rebuilt from the updated cumulative balances.
//
// A participant with no row on this expense is skipped: no row is created
// and no error raised, mirroring the create-time rule that only paying
// members get rows.
func (s *ExpenseService) UpdateExpense(ctx context.Context, expenseID int64, update ExpenseUpdate) (*models.Expense, error) {
	if update.Participants != nil {
		if err := validateParticipants(update.Participants); err != nil {
			return nil, err
		}
	}

	var expense *models.Expense
	err := s.store.Transact(ctx, func(tx storage.Queries) error {
		var err error
		expense, err = tx.GetExpense(ctx, expenseID)
		if err != nil {
			return err
		}

		if update.Description != nil {
			expense.Description = *update.Description
		}

		if update.Participants == nil {
			if update.Description == nil {
				return nil
			}
			return tx.UpdateExpense(ctx, expense)
		}

		if err := requireUsers(ctx, tx, update.Participants); err != nil {
			return err
		}

		expense.TotalAmount = totalPaid(update.Participants)
		if err := tx.UpdateExpense(ctx, expense); err != nil {
			return err
		}

		for _, p := range update.Participants {
			row, err := tx.GetParticipation(ctx, p.UserID, expenseID)
			if errors.Is(err, storage.ErrNotFound) {
				slog.Debug("Skipping participant without row",
					"expense_id", expenseID,
					"user_id", p.UserID,
				)
				continue
			}
			if err != nil {
				return err
			}
			row.PaidAmount = p.PaidAmount
			row.DueAmount = p.DueAmount
			if err := tx.UpdateParticipation(ctx, row); err != nil {
				return err
			}
		}

		// The rows above are already rewritten, so the cumulative sums can
		// be re-queried directly; same-connection reads inside the
		// transaction see their own writes.
		balances := make([]models.MemberBalance, len(update.Participants))
		for i, p := range update.Participants {
			paid, due, err := tx.SumParticipation(ctx, expense.GroupID, p.UserID)
			if err != nil {
				return err
			}
			balances[i] = models.MemberBalance{UserID: p.UserID, Paid: paid, Due: due}
		}

		return rewriteLedger(ctx, tx, expense.GroupID, balances)
	})
	if err != nil {
		slog.Error("UpdateExpense failed", "expense_id", expenseID, "error", err)
		return nil, err
	}

	expense.Participants, err = s.store.ListParticipations(ctx, expenseID)
	if err != nil {
		return nil, err
	}

	slog.Info("Expense updated", "expense_id", expenseID, "group_id", expense.GroupID)
	return expense, nil
}

// GetExpense returns the expense with its participation rows.
func (s *ExpenseService) GetExpense(ctx context.Context, expenseID int64) (*models.Expense, error) {
	expense, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	expense.Participants, err = s.store.ListParticipations(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	return expense, nil
}

// ListExpenses returns a page of the group's expenses ordered by creation time.
func (s *ExpenseService) ListExpenses(ctx context.Context, groupID int64, opts storage.ListExpensesOptions) (*ExpensePage, error) {
	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	expenses, total, err := s.store.ListExpenses(ctx, groupID, opts)
	if err != nil {
		return nil, err
	}
	return &ExpensePage{Expenses: expenses, Total: total, Offset: opts.Offset}, nil
}

// GetDebts returns the group's current debt ledger. Pure projection, no
// computation.
func (s *ExpenseService) GetDebts(ctx context.Context, groupID int64) ([]models.DebtEdge, error) {
	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	return s.store.ListDebts(ctx, groupID)
}
