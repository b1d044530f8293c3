package entity

import "time"

// Application is one membership application row. IDs are ksuid strings
// assigned at submission time.
type Application struct {
	ID              string    `db:"id" json:"id"`
	Email           string    `db:"email" json:"email"`
	FirstName       string    `db:"first_name" json:"first_name"`
	LastName        string    `db:"last_name" json:"last_name"`
	School          string    `db:"school" json:"school"`
	Class           string    `db:"class" json:"class"`
	Birthdate       time.Time `db:"birthdate" json:"birthdate"`
	Phone           string    `db:"phone" json:"phone"`
	DiscordUsername string    `db:"discord_username" json:"discord_username"`
	StudentID       string    `db:"student_id" json:"student_id"`
	Superpowers     string    `db:"superpowers" json:"superpowers"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
