package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tabkeeper/tabkeeper/internal/models"
	"github.com/tabkeeper/tabkeeper/internal/storage"
)

// GroupService manages groups and their membership.
type GroupService struct {
	store storage.Store
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store) *GroupService {
	return &GroupService{store: store}
}

// CreateGroup creates a group owned by createdBy, who becomes its first member.
func (s *GroupService) CreateGroup(ctx context.Context, name string, createdBy int64) (*models.Group, error) {
	group := &models.Group{
		Name:      name,
		CreatedBy: createdBy,
		Members:   []int64{createdBy},
	}

	err := s.store.Transact(ctx, func(tx storage.Queries) error {
		if _, err := tx.GetUserByID(ctx, createdBy); err != nil {
			return err
		}
		return tx.CreateGroup(ctx, group)
	})
	if err != nil {
		slog.Error("CreateGroup failed", "name", name, "error", err)
		return nil, err
	}

	slog.Info("Group created", "group_id", group.ID, "name", group.Name, "created_by", createdBy)
	return group, nil
}

// GetGroup retrieves a group with its member list.
func (s *GroupService) GetGroup(ctx context.Context, groupID int64) (*models.Group, error) {
	return s.store.GetGroup(ctx, groupID)
}

// RenameGroup updates the group's name, its only mutable field.
func (s *GroupService) RenameGroup(ctx context.Context, groupID int64, name string) (*models.Group, error) {
	if err := s.store.RenameGroup(ctx, groupID, name); err != nil {
		slog.Error("RenameGroup failed", "group_id", groupID, "error", err)
		return nil, err
	}
	slog.Info("Group renamed", "group_id", groupID, "name", name)
	return s.store.GetGroup(ctx, groupID)
}

// AddMember adds an existing user to the group.
func (s *GroupService) AddMember(ctx context.Context, groupID, userID int64) error {
	err := s.store.Transact(ctx, func(tx storage.Queries) error {
		if _, err := tx.GetGroup(ctx, groupID); err != nil {
			return err
		}
		if _, err := tx.GetUserByID(ctx, userID); err != nil {
			return fmt.Errorf("%w: user %d", ErrUnknownMember, userID)
		}
		return tx.AddGroupMember(ctx, groupID, userID)
	})
	if err != nil {
		slog.Error("AddMember failed", "group_id", groupID, "user_id", userID, "error", err)
		return err
	}

	slog.Info("Member added", "group_id", groupID, "user_id", userID)
	return nil
}
