// Package settlement converts members' cumulative paid/due positions into a
// set of directed debtor-to-creditor obligations.
//
// The engine is a pure function over in-memory balances so it can be tested
// without a database. Persistence of the resulting edges (clearing the old
// ledger, writing the new one) is the service layer's job.
//
// The recompute set is only the members named in the expense being mutated.
// A member who appears solely in older, untouched expenses of the group keeps
// whatever edges were last computed while they were included. This is a
// deliberate scope limitation, not an oversight; widening it to every member
// the group has ever seen would change observable ledgers.
package settlement

import (
	"errors"
	"fmt"

	"github.com/tabkeeper/tabkeeper/internal/models"
)

// ErrUnbalanced reports that the creditor pool ran dry while a debtor still
// had deficit left, i.e. total surplus < total deficit. Request validation
// guarantees every expense is internally balanced, so cumulative positions
// always sum to zero and this can only be an internal invariant violation.
var ErrUnbalanced = errors.New("settlement: total creditor surplus less than total debtor deficit")

// epsilon guards float comparisons; amounts this small are treated as zero.
const epsilon = 1e-9

type creditor struct {
	userID  int64
	surplus float64
}

type debtor struct {
	userID  int64
	deficit float64
}

// Settle partitions the given balances into creditors (net > 0) and debtors
// (net < 0), preserving input order, and greedily allocates each debtor's
// deficit against the first creditor still holding surplus. Members with a
// zero net position appear in no edge.
//
// When a creditor's surplus is smaller than the debtor's remaining deficit,
// the creditor receives exactly its surplus and is removed from the pool;
// the debtor carries the rest to the next creditor. Every emitted amount is
// positive, each debtor's emitted total equals its deficit, and each
// creditor's received total equals its surplus.
//
// Returned edges carry debtor, creditor and amount; the caller scopes them
// to a group before writing.
func Settle(balances []models.MemberBalance) ([]models.DebtEdge, error) {
	var creditors []creditor
	var debtors []debtor
	for _, b := range balances {
		switch net := b.Net(); {
		case net > epsilon:
			creditors = append(creditors, creditor{userID: b.UserID, surplus: net})
		case net < -epsilon:
			debtors = append(debtors, debtor{userID: b.UserID, deficit: -net})
		}
	}

	var edges []models.DebtEdge
	for _, d := range debtors {
		remaining := d.deficit
		for remaining > epsilon {
			if len(creditors) == 0 {
				return nil, fmt.Errorf("%w (debtor %d has %.2f uncovered)", ErrUnbalanced, d.userID, remaining)
			}

			c := &creditors[0]
			amount := remaining
			if c.surplus < remaining {
				amount = c.surplus
			}

			edges = append(edges, models.DebtEdge{
				DebtorID:   d.userID,
				CreditorID: c.userID,
				AmountOwed: amount,
			})

			c.surplus -= amount
			remaining -= amount
			if c.surplus <= epsilon {
				creditors = creditors[1:]
			}
		}
	}

	return edges, nil
}
