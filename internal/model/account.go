// Package model defines the data structures used throughout the application.
package model

import "time"

// Account is a registered user. Email is the login handle and is stored
// trimmed and lower-cased, so two spellings of one address map to the same
// account.
//
// PasswordHash is the full bcrypt output (salt and cost included). It is
// tagged json:"-" so it can never leak through an API response, even if a
// handler encodes the whole struct by mistake.
type Account struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}
