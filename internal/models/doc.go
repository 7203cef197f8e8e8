// Package models defines the core domain models for Tabkeeper.
//
// All models are row-shaped: they carry database-assigned int64 ids and
// reference each other through explicit foreign-key fields, never through
// embedded object graphs. Traversal always goes back through the store.
//
//   - User: a registered account
//   - Group: a set of users sharing expenses
//   - Expense: one logged expense within a group
//   - Participation: one user's paid/due contribution to one expense
//   - DebtEdge: a directed debtor-owes-creditor record, fully derived from
//     participation history and rebuilt on every expense mutation
//   - MemberBalance: a user's cumulative position in a group (never persisted)
package models
