package models

// Expense represents one logged expense within a group.
type Expense struct {
	// ID is the database-assigned identifier.
	ID int64

	// GroupID is the group this expense belongs to.
	GroupID int64

	// Description is the human-readable description of the expense.
	Description string

	// TotalAmount is the sum of all participants' paid amounts.
	// Derived on every create/update, never supplied by the caller.
	TotalAmount float64

	// CreatedAt is the Unix timestamp when the expense was created.
	CreatedAt int64

	// Participants are the participation rows attached to this expense.
	// Populated when reading a composed expense view.
	Participants []Participation
}

// Participation records one user's contribution to one expense: what they
// paid towards it and what their share of it is. Rows exist only for users
// who paid a positive amount when the expense was created; users covered
// entirely by others show up in the debt ledger instead.
type Participation struct {
	ID         int64
	ExpenseID  int64
	UserID     int64
	PaidAmount float64
	DueAmount  float64
}
