package repository

import (
	"lanhall/internal/database"
)

type Repositories struct {
	Store    *Store
	Seats    *SeatRepository
	Accounts *AccountRepository
}

func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		Store:    NewStore(db),
		Seats:    NewSeatRepository(db),
		Accounts: NewAccountRepository(db),
	}
}
