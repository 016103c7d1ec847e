package models

import (
	"time"

	"github.com/gofrs/uuid"
)

type Credentials struct {
	UserID       uuid.UUID
	PasswordHash string
}

type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"-"`
}

// Identity is the authenticated caller, resolved by the auth middleware
// and attached to the request context.
type Identity struct {
	ID    uuid.UUID
	Email string
	Name  string
}

type Creator struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

type Review struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"userId"`
	UserName string    `json:"userName"` // snapshot at creation time
	Rating   int       `json:"rating"`
	Comment  string    `json:"comment"`
}

type Recipe struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Ingredients  []string  `json:"ingredients"`
	Instructions string    `json:"instructions"`
	Time         string    `json:"time"`
	CoverImage   string    `json:"coverimage"`
	CreatedBy    Creator   `json:"createdBy"`
	Likes        []string  `json:"likes"`
	Reviews      []Review  `json:"reviews"`
	CreatedAt    time.Time `json:"createdAt"`
}
