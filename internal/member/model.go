package member

import "time"

type Member struct {
	ID               string    `db:"id" json:"id"`
	Name             string    `db:"name" json:"name"`
	Email            string    `db:"email" json:"email"`
	Phone            string    `db:"phone" json:"phone,omitempty"`
	PasswordHash     string    `db:"password_hash" json:"-"`
	Role             string    `db:"role" json:"role"`
	DateOfBirth      string    `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender           string    `db:"gender" json:"gender,omitempty"`
	BloodType        string    `db:"blood_type" json:"blood_type,omitempty"`
	HeightCM         *float64  `db:"height_cm" json:"height_cm,omitempty"`
	WeightKG         *float64  `db:"weight_kg" json:"weight_kg,omitempty"`
	Address          string    `db:"address" json:"address,omitempty"`
	EmergencyContact string    `db:"emergency_contact" json:"emergency_contact,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type GrantAdminRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// CreateMemberRequest is an admin entering a walk-in member. The profile has
// no password until the member registers with the identity provider.
type CreateMemberRequest struct {
	Name             string `json:"name" validate:"required,min=2,max=100"`
	Email            string `json:"email" validate:"required,email"`
	Phone            string `json:"phone" validate:"omitempty,max=20"`
	DateOfBirth      string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Gender           string `json:"gender" validate:"omitempty,max=20"`
	Address          string `json:"address" validate:"omitempty,max=200"`
	EmergencyContact string `json:"emergency_contact" validate:"omitempty,max=50"`
}

// PersonalInfoUpdate changes only the fields that are present.
type PersonalInfoUpdate struct {
	Phone            *string  `json:"phone" validate:"omitempty,max=20"`
	DateOfBirth      *string  `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Gender           *string  `json:"gender" validate:"omitempty,max=20"`
	BloodType        *string  `json:"blood_type" validate:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	HeightCM         *float64 `json:"height_cm" validate:"omitempty,gt=0,lt=300"`
	WeightKG         *float64 `json:"weight_kg" validate:"omitempty,gt=0,lt=500"`
	Address          *string  `json:"address" validate:"omitempty,max=200"`
	EmergencyContact *string  `json:"emergency_contact" validate:"omitempty,max=50"`
}

func (u PersonalInfoUpdate) IsEmpty() bool {
	return u.Phone == nil && u.DateOfBirth == nil && u.Gender == nil && u.BloodType == nil &&
		u.HeightCM == nil && u.WeightKG == nil && u.Address == nil && u.EmergencyContact == nil
}

type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Member       Member `json:"member"`
}
