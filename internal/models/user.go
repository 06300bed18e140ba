package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleAdmin    = 1
	RoleCustomer = 2

	StatusActive      = 1
	StatusDeactivated = 2
)

// User es la cuenta persistida. El hash nunca sale en JSON.
type User struct {
	ID           primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name         string             `json:"name" bson:"name"`
	Email        string             `json:"email" bson:"email"`
	PasswordHash string             `json:"-" bson:"password"`
	StatusID     int                `json:"status_id" bson:"status_id"`
	RoleID       int                `json:"role_id" bson:"role_id"`
	ProfileImage string             `json:"profileImage" bson:"profileImage"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" bson:"updated_at"`
}

func (u *User) IsAdmin() bool       { return u.RoleID == RoleAdmin }
func (u *User) IsDeactivated() bool { return u.StatusID == StatusDeactivated }

// PublicUser es la vista sin datos sensibles que se devuelve al cliente
type PublicUser struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	StatusID     int    `json:"status_id"`
	RoleID       int    `json:"role_id"`
	ProfileImage string `json:"profileImage"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:           u.ID.Hex(),
		Name:         u.Name,
		Email:        u.Email,
		StatusID:     u.StatusID,
		RoleID:       u.RoleID,
		ProfileImage: u.ProfileImage,
	}
}

// UserUpdate son los campos que puede cambiar un administrador.
// Para el perfil propio solo se usan Name, Password y ProfileImage.
type UserUpdate struct {
	Name         *string `json:"name,omitempty"`
	Email        *string `json:"email,omitempty"`
	Password     *string `json:"password,omitempty"`
	StatusID     *int    `json:"status_id,omitempty"`
	RoleID       *int    `json:"role_id,omitempty"`
	ProfileImage *string `json:"profileImage,omitempty"`

	// PasswordHash lo rellena el servicio; Password nunca llega al repositorio
	PasswordHash *string `json:"-"`
}

func (u UserUpdate) IsEmpty() bool {
	return u.Name == nil && u.Email == nil && u.Password == nil &&
		u.StatusID == nil && u.RoleID == nil && u.ProfileImage == nil
}
