package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"tenant-control-plane/backend/internal/db"
	"tenant-control-plane/backend/internal/platform/domainerr"
	"tenant-control-plane/backend/internal/platform/events"
	"tenant-control-plane/backend/internal/rbac/domain"
	"tenant-control-plane/backend/internal/rbac/engine"
	"tenant-control-plane/backend/internal/rbac/repository"
)

// Service is the RBAC command and query handler. Permission checks load the
// user's resolved assignments for the scope and delegate the decision to the
// evaluator; the service itself never interprets permission strings.
type Service struct {
	roles       repository.RoleStore
	assignments repository.RoleAssignmentStore
	evaluator   engine.Evaluator
	tx          db.TxRunner
	publisher   events.Publisher
}

// NewService returns an RBAC service.
func NewService(
	roles repository.RoleStore,
	assignments repository.RoleAssignmentStore,
	evaluator engine.Evaluator,
	tx db.TxRunner,
	publisher events.Publisher,
) *Service {
	return &Service{
		roles:       roles,
		assignments: assignments,
		evaluator:   evaluator,
		tx:          tx,
		publisher:   publisher,
	}
}

// CreateRole creates a tenant-defined role in scope. Name uniqueness within
// the scope is pre-checked; the storage constraint catches the race.
func (s *Service) CreateRole(ctx context.Context, name, description string, scope domain.Scope) (*domain.Role, error) {
	taken, err := s.roles.NameExistsInScope(ctx, name, scope)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, &domainerr.Error{
			Kind:   domainerr.KindConflict,
			Entity: "role",
			Field:  "name",
			Value:  name,
			Msg:    "role name is already in use within this scope",
		}
	}
	role, err := domain.New(uuid.New().String(), name, description, scope, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.roles.Create(ctx, role); err != nil {
		return nil, err
	}
	events.BestEffort(ctx, s.publisher, role.DrainEvents())
	return role, nil
}

// GetRole returns the role for id with permissions loaded.
func (s *Service) GetRole(ctx context.Context, id string) (*domain.Role, error) {
	return s.loadRole(ctx, id)
}

// ListRoles lists the roles defined in scope.
func (s *Service) ListRoles(ctx context.Context, scope domain.Scope) ([]*domain.Role, error) {
	return s.roles.GetByScope(ctx, scope)
}

// UpdateRole renames the role and replaces its description.
func (s *Service) UpdateRole(ctx context.Context, id, name, description string) (*domain.Role, error) {
	role, err := s.loadRole(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := role.Update(name, description, time.Now().UTC()); err != nil {
		return nil, err
	}
	return s.saveRole(ctx, role)
}

// AddPermission grants action to the role.
func (s *Service) AddPermission(ctx context.Context, roleID, action string) (*domain.Role, error) {
	role, err := s.loadRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if err := role.AddPermission(action, time.Now().UTC()); err != nil {
		return nil, err
	}
	return s.saveRole(ctx, role)
}

// RemovePermission revokes action from the role.
func (s *Service) RemovePermission(ctx context.Context, roleID, action string) (*domain.Role, error) {
	role, err := s.loadRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if err := role.RemovePermission(action, time.Now().UTC()); err != nil {
		return nil, err
	}
	return s.saveRole(ctx, role)
}

// DeleteRole removes a tenant-defined role. Assignments referencing it are
// left in place and resolve to nothing.
func (s *Service) DeleteRole(ctx context.Context, id string) error {
	role, err := s.loadRole(ctx, id)
	if err != nil {
		return err
	}
	if err := role.Delete(time.Now().UTC()); err != nil {
		return err
	}
	if err := s.roles.Delete(ctx, role.ID); err != nil {
		return err
	}
	events.BestEffort(ctx, s.publisher, role.DrainEvents())
	return nil
}

// AssignRole grants roleID to userID within scope. The role must exist; a
// duplicate grant is a conflict.
func (s *Service) AssignRole(ctx context.Context, roleID, userID string, scope domain.Scope, assignedBy string) (*domain.RoleAssignment, error) {
	role, err := s.loadRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	exists, err := s.assignments.Exists(ctx, role.ID, userID, scope)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &domainerr.Error{
			Kind:   domainerr.KindConflict,
			Entity: "role_assignment",
			Field:  "role_id",
			Value:  role.ID,
			Msg:    "user already has this role in this scope",
		}
	}
	a, err := domain.NewAssignment(uuid.New().String(), role.ID, userID, scope, assignedBy, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.assignments.Create(ctx, a); err != nil {
		return nil, err
	}
	events.BestEffort(ctx, s.publisher, a.DrainEvents())
	return a, nil
}

// RevokeAssignment removes the assignment for id.
func (s *Service) RevokeAssignment(ctx context.Context, id string) error {
	a, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if a == nil {
		return domainerr.NotFound("role_assignment", id)
	}
	a.Revoke(time.Now().UTC())
	if err := s.assignments.Delete(ctx, a.ID); err != nil {
		return err
	}
	events.BestEffort(ctx, s.publisher, a.DrainEvents())
	return nil
}

// HasPermission reports whether userID holds action within scope. A user
// with no assignments has no permissions.
func (s *Service) HasPermission(ctx context.Context, userID string, scope domain.Scope, action string) (bool, error) {
	resolved, err := s.assignments.GetByUserAndScope(ctx, userID, scope)
	if err != nil {
		return false, err
	}
	return s.evaluator.HasPermission(ctx, resolved, action)
}

// ListPermissions returns the distinct union of the user's permissions
// within scope, sorted.
func (s *Service) ListPermissions(ctx context.Context, userID string, scope domain.Scope) ([]string, error) {
	resolved, err := s.assignments.GetByUserAndScope(ctx, userID, scope)
	if err != nil {
		return nil, err
	}
	return s.evaluator.ListPermissions(ctx, resolved)
}

func (s *Service) loadRole(ctx context.Context, id string) (*domain.Role, error) {
	role, err := s.roles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, domainerr.NotFound("role", id)
	}
	return role, nil
}

func (s *Service) saveRole(ctx context.Context, role *domain.Role) (*domain.Role, error) {
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		return s.roles.Update(ctx, role)
	})
	if err != nil {
		return nil, err
	}
	events.BestEffort(ctx, s.publisher, role.DrainEvents())
	return role, nil
}
