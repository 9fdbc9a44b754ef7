// Package models defines server-side data models.
package models

// Admin is an operator account allowed to sign in.
type Admin struct {
	ID           string `db:"id"`
	Name         string `db:"name"`
	Email        string `db:"email"`
	PasswordHash string `db:"password_hash"`
}
