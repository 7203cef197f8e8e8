package sqlite

import (
	"context"
	"fmt"

	"github.com/tabkeeper/tabkeeper/internal/models"
)

// DeleteDebts removes every debt edge of the group. The ledger is derived
// state; it is always cleared and rewritten as a whole, never patched.
func (q *queries) DeleteDebts(ctx context.Context, groupID int64) error {
	_, err := q.db.ExecContext(ctx, "DELETE FROM debts WHERE group_id = ?", groupID)
	if err != nil {
		return fmt.Errorf("failed to delete debts: %w", err)
	}
	return nil
}

// InsertDebts bulk-inserts freshly computed edges for the group.
func (q *queries) InsertDebts(ctx context.Context, groupID int64, edges []models.DebtEdge) error {
	for i := range edges {
		edge := &edges[i]
		edge.GroupID = groupID
		res, err := q.db.ExecContext(ctx,
			"INSERT INTO debts (group_id, debtor_id, creditor_id, amount_owed) VALUES (?, ?, ?, ?)",
			edge.GroupID, edge.DebtorID, edge.CreditorID, edge.AmountOwed,
		)
		if err != nil {
			return fmt.Errorf("failed to insert debt: %w", err)
		}
		edge.ID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read debt id: %w", err)
		}
	}
	return nil
}

// ListDebts returns the group's current debt edges.
func (q *queries) ListDebts(ctx context.Context, groupID int64) ([]models.DebtEdge, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT id, group_id, debtor_id, creditor_id, amount_owed FROM debts WHERE group_id = ? ORDER BY id",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list debts: %w", err)
	}
	defer rows.Close()

	var edges []models.DebtEdge
	for rows.Next() {
		var e models.DebtEdge
		if err := rows.Scan(&e.ID, &e.GroupID, &e.DebtorID, &e.CreditorID, &e.AmountOwed); err != nil {
			return nil, fmt.Errorf("failed to scan debt: %w", err)
		}
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate debts: %w", err)
	}

	return edges, nil
}
