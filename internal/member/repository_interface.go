package member

import "context"

type Repository interface {
	Create(ctx context.Context, m *Member) (*Member, error)
	FindByEmail(ctx context.Context, email string) (*Member, error)
	FindByID(ctx context.Context, id string) (*Member, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	List(ctx context.Context) ([]Member, error)
	ListByRole(ctx context.Context, role string) ([]Member, error)
	SetRole(ctx context.Context, id, role string) error
	UpdatePersonalInfo(ctx context.Context, id string, upd PersonalInfoUpdate) (*Member, error)
	// EnsureExists inserts m unless a member with the same id is present.
	EnsureExists(ctx context.Context, m *Member) error
}
