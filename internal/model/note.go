package model

import "time"

type Note struct {
	ID         ID        `json:"id"`
	SessionID  ID        `json:"session_id"`
	PomodoroID ID        `json:"pomodoro_id"`
	Text       string    `json:"note"`
	CreatedAt  time.Time `json:"created_at"`
}

type Tag struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TagPalette is the set of colors assigned to new tags.
var TagPalette = []string{
	"#3498db",
	"#2ecc71",
	"#e74c3c",
	"#f39c12",
	"#9b59b6",
	"#1abc9c",
	"#d35400",
	"#34495e",
	"#16a085",
	"#c0392b",
}
