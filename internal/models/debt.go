package models

// DebtEdge states that, within one group, the debtor currently owes the
// creditor the given amount. The edge set of a group is a materialized view
// of its participation history: it is deleted and rebuilt wholesale every
// time any expense in the group is added or updated, never patched in place.
type DebtEdge struct {
	ID         int64
	GroupID    int64
	DebtorID   int64
	CreditorID int64

	// AmountOwed is always > 0; settled pairs have no edge at all.
	AmountOwed float64
}

// MemberBalance is a user's cumulative position within a group: the sums of
// their paid and due amounts across all participation rows. It is derived
// on demand and never persisted.
type MemberBalance struct {
	UserID int64
	Paid   float64
	Due    float64
}

// Net returns the member's net position: positive means the group owes the
// member (creditor), negative means the member owes the group (debtor).
func (b MemberBalance) Net() float64 {
	return b.Paid - b.Due
}
