package domain

import "time"

const (
	UserRoleParticipant  = "participant"
	UserRoleOrganisateur = "organisateur"
)

type User struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Name      string    `json:"name"`
	Role      string    `json:"role"` // "participant" or "organisateur"
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) IsOrganizer() bool {
	return u.Role == UserRoleOrganisateur
}
