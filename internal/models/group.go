package models

// Group represents a set of users who share expenses. All debt edges are
// scoped to one group; the same two users can owe each other independently
// in different groups.
type Group struct {
	// ID is the database-assigned identifier.
	ID int64

	// Name is the display name of the group (e.g., "Flat 12", "Ski Trip").
	Name string

	// CreatedBy is the user id of the group owner.
	CreatedBy int64

	// Members are the user ids belonging to this group.
	Members []int64

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}
