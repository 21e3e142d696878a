package models

import (
	"time"
)

type Game struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Platform    string    `json:"platform"`
	Genre       string    `json:"genre,omitempty"`
	Developer   string    `json:"developer,omitempty"`
	ReleaseDate *Date     `json:"releaseDate,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// GameCreate carries the fields accepted when a game is registered.
type GameCreate struct {
	Title       string `json:"title" validate:"required,title"`
	Platform    string `json:"platform" validate:"required,platform"`
	Genre       string `json:"genre,omitempty" validate:"omitempty,genre"`
	Developer   string `json:"developer,omitempty" validate:"omitempty,developer"`
	ReleaseDate *Date  `json:"releaseDate,omitempty"`
}

// GameUpdate is a patch: nil fields are left untouched.
type GameUpdate struct {
	Title       *string `json:"title,omitempty" validate:"omitnil,title"`
	Platform    *string `json:"platform,omitempty" validate:"omitnil,platform"`
	Genre       *string `json:"genre,omitempty" validate:"omitnil,genre"`
	Developer   *string `json:"developer,omitempty" validate:"omitnil,developer"`
	ReleaseDate *Date   `json:"releaseDate,omitempty"`
}

func (u GameUpdate) IsEmpty() bool {
	return u.Title == nil && u.Platform == nil && u.Genre == nil &&
		u.Developer == nil && u.ReleaseDate == nil
}

// Apply copies the non-nil fields of u onto g.
func (u GameUpdate) Apply(g *Game) {
	if u.Title != nil {
		g.Title = *u.Title
	}
	if u.Platform != nil {
		g.Platform = *u.Platform
	}
	if u.Genre != nil {
		g.Genre = *u.Genre
	}
	if u.Developer != nil {
		g.Developer = *u.Developer
	}
	if u.ReleaseDate != nil {
		d := *u.ReleaseDate
		g.ReleaseDate = &d
	}
}
