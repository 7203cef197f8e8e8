package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/tabkeeper/tabkeeper/internal/models"
	"github.com/tabkeeper/tabkeeper/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func createTestUsers(t *testing.T, store *SQLiteStore, n int) []int64 {
	t.Helper()

	ctx := context.Background()
	ids := make([]int64, n)
	for i := 0; i < n; i++ {
		user := &models.User{
			Email:        fmt.Sprintf("user%d@example.com", i+1),
			DisplayName:  fmt.Sprintf("User %d", i+1),
			PasswordHash: "x",
		}
		if err := store.CreateUser(ctx, user); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
		ids[i] = user.ID
	}
	return ids
}

func TestSQLiteStoreUsers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateUser assigns id and timestamps", func(t *testing.T) {
		user := &models.User{Email: "alice@example.com", DisplayName: "Alice", PasswordHash: "hash"}
		if err := store.CreateUser(ctx, user); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
		if user.ID == 0 {
			t.Error("Expected user ID to be assigned")
		}
		if user.CreatedAt == 0 {
			t.Error("Expected CreatedAt to be set")
		}
	})

	t.Run("GetUserByEmail round trip", func(t *testing.T) {
		user, err := store.GetUserByEmail(ctx, "alice@example.com")
		if err != nil {
			t.Fatalf("GetUserByEmail failed: %v", err)
		}
		if user.DisplayName != "Alice" {
			t.Errorf("DisplayName = %q, want Alice", user.DisplayName)
		}
	})

	t.Run("GetUserByID returns ErrNotFound for missing user", func(t *testing.T) {
		_, err := store.GetUserByID(ctx, 9999)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("GetUsersByIDs omits missing ids", func(t *testing.T) {
		alice, err := store.GetUserByEmail(ctx, "alice@example.com")
		if err != nil {
			t.Fatalf("GetUserByEmail failed: %v", err)
		}

		users, err := store.GetUsersByIDs(ctx, []int64{alice.ID, 9999})
		if err != nil {
			t.Fatalf("GetUsersByIDs failed: %v", err)
		}
		if len(users) != 1 {
			t.Fatalf("Expected 1 user, got %d", len(users))
		}
		if _, ok := users[alice.ID]; !ok {
			t.Error("Expected Alice in result")
		}
	})
}

func TestSQLiteStoreGroups(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	users := createTestUsers(t, store, 3)

	t.Run("CreateGroup with members", func(t *testing.T) {
		group := &models.Group{Name: "Flat 12", CreatedBy: users[0], Members: users[:2]}
		if err := store.CreateGroup(ctx, group); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}
		if group.ID == 0 {
			t.Error("Expected group ID to be assigned")
		}

		got, err := store.GetGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if got.Name != "Flat 12" || got.CreatedBy != users[0] {
			t.Errorf("GetGroup = %+v", got)
		}
		if len(got.Members) != 2 {
			t.Errorf("Members = %v, want 2 entries", got.Members)
		}
	})

	t.Run("AddGroupMember is idempotent", func(t *testing.T) {
		group := &models.Group{Name: "Trip", CreatedBy: users[0], Members: users[:1]}
		if err := store.CreateGroup(ctx, group); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}

		for i := 0; i < 2; i++ {
			if err := store.AddGroupMember(ctx, group.ID, users[2]); err != nil {
				t.Fatalf("AddGroupMember failed: %v", err)
			}
		}

		got, err := store.GetGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if len(got.Members) != 2 {
			t.Errorf("Members = %v, want 2 entries", got.Members)
		}
	})

	t.Run("RenameGroup missing group returns ErrNotFound", func(t *testing.T) {
		err := store.RenameGroup(ctx, 9999, "nope")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestSQLiteStoreExpenses(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	users := createTestUsers(t, store, 2)

	group := &models.Group{Name: "G", CreatedBy: users[0], Members: users}
	if err := store.CreateGroup(ctx, group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	t.Run("Create and get expense", func(t *testing.T) {
		expense := &models.Expense{GroupID: group.ID, Description: "groceries", TotalAmount: 42.5}
		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		if expense.ID == 0 || expense.CreatedAt == 0 {
			t.Errorf("Expected id and created_at to be set: %+v", expense)
		}

		got, err := store.GetExpense(ctx, expense.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if got.Description != "groceries" || got.TotalAmount != 42.5 {
			t.Errorf("GetExpense = %+v", got)
		}
	})

	t.Run("ListExpenses pages and counts", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			expense := &models.Expense{
				GroupID:     group.ID,
				Description: fmt.Sprintf("e%d", i),
				TotalAmount: float64(i),
				CreatedAt:   int64(1000 + i),
			}
			if err := store.CreateExpense(ctx, expense); err != nil {
				t.Fatalf("CreateExpense failed: %v", err)
			}
		}

		expenses, total, err := store.ListExpenses(ctx, group.ID, storage.ListExpensesOptions{Limit: 2, Ascending: true})
		if err != nil {
			t.Fatalf("ListExpenses failed: %v", err)
		}
		if total != 4 { // groceries + e0..e2
			t.Errorf("total = %d, want 4", total)
		}
		if len(expenses) != 2 {
			t.Fatalf("Expected 2 expenses, got %d", len(expenses))
		}
		if expenses[0].CreatedAt > expenses[1].CreatedAt {
			t.Errorf("Expected ascending order, got %d then %d", expenses[0].CreatedAt, expenses[1].CreatedAt)
		}
	})

	t.Run("Participation sums per group and user", func(t *testing.T) {
		e1 := &models.Expense{GroupID: group.ID, Description: "a", TotalAmount: 30}
		e2 := &models.Expense{GroupID: group.ID, Description: "b", TotalAmount: 20}
		for _, e := range []*models.Expense{e1, e2} {
			if err := store.CreateExpense(ctx, e); err != nil {
				t.Fatalf("CreateExpense failed: %v", err)
			}
		}

		rows := []models.Participation{
			{ExpenseID: e1.ID, UserID: users[0], PaidAmount: 30, DueAmount: 15},
			{ExpenseID: e2.ID, UserID: users[0], PaidAmount: 20, DueAmount: 10},
		}
		for i := range rows {
			if err := store.CreateParticipation(ctx, &rows[i]); err != nil {
				t.Fatalf("CreateParticipation failed: %v", err)
			}
		}

		paid, due, err := store.SumParticipation(ctx, group.ID, users[0])
		if err != nil {
			t.Fatalf("SumParticipation failed: %v", err)
		}
		if paid != 50 || due != 25 {
			t.Errorf("SumParticipation = (%v, %v), want (50, 25)", paid, due)
		}
	})

	t.Run("SumParticipation with no rows yields zeros", func(t *testing.T) {
		paid, due, err := store.SumParticipation(ctx, group.ID, users[1])
		if err != nil {
			t.Fatalf("SumParticipation failed: %v", err)
		}
		if paid != 0 || due != 0 {
			t.Errorf("SumParticipation = (%v, %v), want (0, 0)", paid, due)
		}
	})

	t.Run("GetParticipation missing pair returns ErrNotFound", func(t *testing.T) {
		_, err := store.GetParticipation(ctx, users[1], 9999)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestSQLiteStoreDebts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	users := createTestUsers(t, store, 3)

	group := &models.Group{Name: "G", CreatedBy: users[0], Members: users}
	if err := store.CreateGroup(ctx, group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	edges := []models.DebtEdge{
		{DebtorID: users[0], CreditorID: users[1], AmountOwed: 10},
		{DebtorID: users[2], CreditorID: users[1], AmountOwed: 5},
	}
	if err := store.InsertDebts(ctx, group.ID, edges); err != nil {
		t.Fatalf("InsertDebts failed: %v", err)
	}

	got, err := store.ListDebts(ctx, group.ID)
	if err != nil {
		t.Fatalf("ListDebts failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 edges, got %d", len(got))
	}
	if got[0].GroupID != group.ID || got[0].AmountOwed != 10 {
		t.Errorf("edge = %+v", got[0])
	}

	if err := store.DeleteDebts(ctx, group.ID); err != nil {
		t.Fatalf("DeleteDebts failed: %v", err)
	}
	got, err = store.ListDebts(ctx, group.ID)
	if err != nil {
		t.Fatalf("ListDebts failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Expected no edges after delete, got %d", len(got))
	}
}

func TestTransactRollsBackOnError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	users := createTestUsers(t, store, 1)

	group := &models.Group{Name: "G", CreatedBy: users[0], Members: users}
	if err := store.CreateGroup(ctx, group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	boom := errors.New("boom")
	err := store.Transact(ctx, func(tx storage.Queries) error {
		expense := &models.Expense{GroupID: group.ID, Description: "doomed", TotalAmount: 1}
		if err := tx.CreateExpense(ctx, expense); err != nil {
			return err
		}
		if err := tx.InsertDebts(ctx, group.ID, []models.DebtEdge{
			{DebtorID: users[0], CreditorID: users[0], AmountOwed: 1},
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Transact error = %v, want boom", err)
	}

	_, total, err := store.ListExpenses(ctx, group.ID, storage.ListExpensesOptions{})
	if err != nil {
		t.Fatalf("ListExpenses failed: %v", err)
	}
	if total != 0 {
		t.Errorf("Expected no expenses after rollback, got %d", total)
	}

	debts, err := store.ListDebts(ctx, group.ID)
	if err != nil {
		t.Fatalf("ListDebts failed: %v", err)
	}
	if len(debts) != 0 {
		t.Errorf("Expected no debts after rollback, got %d", len(debts))
	}
}
