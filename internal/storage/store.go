// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/tabkeeper/tabkeeper/internal/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ListExpensesOptions controls paging and ordering of expense listings.
type ListExpensesOptions struct {
	// Limit caps the number of returned expenses; 0 means no limit.
	Limit int64

	// Offset skips that many expenses from the start of the ordering.
	Offset int64

	// Ascending orders by creation time oldest-first; default is newest-first.
	Ascending bool
}

// UserStore persists user accounts.
type UserStore interface {
	// CreateUser inserts a new user, populating ID and timestamps.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail returns the user with the given email, or ErrNotFound.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID returns the user with the given id, or ErrNotFound.
	GetUserByID(ctx context.Context, id int64) (*models.User, error)

	// GetUsersByIDs returns the users that exist among ids, keyed by id.
	// Missing ids are simply absent from the map.
	GetUsersByIDs(ctx context.Context, ids []int64) (map[int64]*models.User, error)
}

// GroupStore persists groups and their membership.
type GroupStore interface {
	// CreateGroup inserts a new group with its member list, populating ID
	// and CreatedAt.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup returns the group with its member ids, or ErrNotFound.
	GetGroup(ctx context.Context, id int64) (*models.Group, error)

	// RenameGroup updates the group's name. Name is the only mutable field.
	RenameGroup(ctx context.Context, id int64, name string) error

	// AddGroupMember adds a user to the group; adding an existing member
	// is a no-op.
	AddGroupMember(ctx context.Context, groupID, userID int64) error
}

// ExpenseStore persists expenses and their participation rows.
type ExpenseStore interface {
	// CreateExpense inserts a new expense, populating ID and CreatedAt.
	// Participation rows are written separately.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense returns the expense without its participation rows, or
	// ErrNotFound.
	GetExpense(ctx context.Context, id int64) (*models.Expense, error)

	// UpdateExpense rewrites the expense's description and total amount.
	UpdateExpense(ctx context.Context, expense *models.Expense) error

	// ListExpenses returns a page of the group's expenses ordered by
	// creation time, plus the total count before paging.
	ListExpenses(ctx context.Context, groupID int64, opts ListExpensesOptions) ([]*models.Expense, int64, error)

	// CreateParticipation inserts one participation row, populating ID.
	CreateParticipation(ctx context.Context, p *models.Participation) error

	// GetParticipation returns the row for (userID, expenseID), or ErrNotFound.
	GetParticipation(ctx context.Context, userID, expenseID int64) (*models.Participation, error)

	// UpdateParticipation rewrites the row's paid and due amounts.
	UpdateParticipation(ctx context.Context, p *models.Participation) error

	// ListParticipations returns all participation rows of an expense.
	ListParticipations(ctx context.Context, expenseID int64) ([]models.Participation, error)

	// SumParticipation aggregates the user's paid and due amounts across all
	// expenses of the group. A user with no rows yields (0, 0), not an error.
	SumParticipation(ctx context.Context, groupID, userID int64) (paid, due float64, err error)
}

// DebtStore persists the derived debt ledger of a group.
type DebtStore interface {
	// DeleteDebts removes every debt edge of the group.
	DeleteDebts(ctx context.Context, groupID int64) error

	// InsertDebts bulk-inserts the freshly computed edges for the group.
	InsertDebts(ctx context.Context, groupID int64, edges []models.DebtEdge) error

	// ListDebts returns the group's current debt edges.
	ListDebts(ctx context.Context, groupID int64) ([]models.DebtEdge, error)
}

// Queries groups every entity operation. It is implemented both by the
// store itself (auto-committed calls) and by the transaction handle passed
// to Transact.
type Queries interface {
	UserStore
	GroupStore
	ExpenseStore
	DebtStore
}

// Store is the interface the service layer depends on. The abstraction
// allows swapping storage backends (SQLite, PostgreSQL, ...) without
// touching the services.
type Store interface {
	Queries

	// Transact executes fn atomically: if fn returns an error every write
	// made through its Queries is rolled back and the error is propagated
	// unchanged.
	Transact(ctx context.Context, fn func(tx Queries) error) error

	// Close releases any resources held by the store.
	Close() error
}
