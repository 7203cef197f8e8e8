package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tabkeeper/tabkeeper/internal/models"
	"github.com/tabkeeper/tabkeeper/internal/storage"
)

// CreateExpense inserts a new expense row. Participation rows are written
// separately so the orchestrator controls when they become visible.
func (q *queries) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	res, err := q.db.ExecContext(ctx,
		"INSERT INTO expenses (group_id, description, total_amount, created_at) VALUES (?, ?, ?, ?)",
		expense.GroupID, expense.Description, expense.TotalAmount, expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	expense.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read expense id: %w", err)
	}
	return nil
}

// GetExpense retrieves an expense by ID, without participation rows.
func (q *queries) GetExpense(ctx context.Context, id int64) (*models.Expense, error) {
	expense := &models.Expense{}
	err := q.db.QueryRowContext(ctx,
		"SELECT id, group_id, description, total_amount, created_at FROM expenses WHERE id = ?",
		id,
	).Scan(&expense.ID, &expense.GroupID, &expense.Description, &expense.TotalAmount, &expense.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("expense %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return expense, nil
}

// UpdateExpense rewrites the expense's description and total amount.
func (q *queries) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	res, err := q.db.ExecContext(ctx,
		"UPDATE expenses SET description = ?, total_amount = ? WHERE id = ?",
		expense.Description, expense.TotalAmount, expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("expense %d: %w", expense.ID, storage.ErrNotFound)
	}
	return nil
}

// ListExpenses returns a page of the group's expenses ordered by creation
// time, plus the total count before paging.
func (q *queries) ListExpenses(ctx context.Context, groupID int64, opts storage.ListExpensesOptions) ([]*models.Expense, int64, error) {
	var total int64
	err := q.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM expenses WHERE group_id = ?",
		groupID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count expenses: %w", err)
	}

	order := "DESC"
	if opts.Ascending {
		order = "ASC"
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = -1 // SQLite: no limit, required when OFFSET is present
	}

	rows, err := q.db.QueryContext(ctx,
		"SELECT id, group_id, description, total_amount, created_at FROM expenses WHERE group_id = ? ORDER BY created_at "+order+", id "+order+" LIMIT ? OFFSET ?",
		groupID, limit, opts.Offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		expense := &models.Expense{}
		if err := rows.Scan(&expense.ID, &expense.GroupID, &expense.Description, &expense.TotalAmount, &expense.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	return expenses, total, nil
}

// CreateParticipation inserts one participation row.
func (q *queries) CreateParticipation(ctx context.Context, p *models.Participation) error {
	res, err := q.db.ExecContext(ctx,
		"INSERT INTO participations (expense_id, user_id, paid_amount, due_amount) VALUES (?, ?, ?, ?)",
		p.ExpenseID, p.UserID, p.PaidAmount, p.DueAmount,
	)
	if err != nil {
		return fmt.Errorf("failed to insert participation: %w", err)
	}

	p.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read participation id: %w", err)
	}
	return nil
}

// GetParticipation retrieves the row for (userID, expenseID).
func (q *queries) GetParticipation(ctx context.Context, userID, expenseID int64) (*models.Participation, error) {
	p := &models.Participation{}
	err := q.db.QueryRowContext(ctx,
		"SELECT id, expense_id, user_id, paid_amount, due_amount FROM participations WHERE user_id = ? AND expense_id = ?",
		userID, expenseID,
	).Scan(&p.ID, &p.ExpenseID, &p.UserID, &p.PaidAmount, &p.DueAmount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("participation of user %d in expense %d: %w", userID, expenseID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participation: %w", err)
	}
	return p, nil
}

// UpdateParticipation rewrites the row's paid and due amounts.
func (q *queries) UpdateParticipation(ctx context.Context, p *models.Participation) error {
	_, err := q.db.ExecContext(ctx,
		"UPDATE participations SET paid_amount = ?, due_amount = ? WHERE id = ?",
		p.PaidAmount, p.DueAmount, p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update participation: %w", err)
	}
	return nil
}

// ListParticipations returns all participation rows of an expense.
func (q *queries) ListParticipations(ctx context.Context, expenseID int64) ([]models.Participation, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT id, expense_id, user_id, paid_amount, due_amount FROM participations WHERE expense_id = ? ORDER BY id",
		expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list participations: %w", err)
	}
	defer rows.Close()

	var participations []models.Participation
	for rows.Next() {
		var p models.Participation
		if err := rows.Scan(&p.ID, &p.ExpenseID, &p.UserID, &p.PaidAmount, &p.DueAmount); err != nil {
			return nil, fmt.Errorf("failed to scan participation: %w", err)
		}
		participations = append(participations, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participations: %w", err)
	}

	return participations, nil
}

// SumParticipation aggregates the user's paid and due amounts across all
// expenses of the group. No rows yields (0, 0).
func (q *queries) SumParticipation(ctx context.Context, groupID, userID int64) (float64, float64, error) {
	var paid, due float64
	err := q.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(p.paid_amount), 0), COALESCE(SUM(p.due_amount), 0)
		 FROM participations p
		 INNER JOIN expenses e ON e.id = p.expense_id
		 WHERE e.group_id = ? AND p.user_id = ?`,
		groupID, userID,
	).Scan(&paid, &due)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to sum participations: %w", err)
	}
	return paid, due, nil
}
