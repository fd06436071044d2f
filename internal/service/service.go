package service

import (
	"lanhall/internal/billing"
	"lanhall/internal/repository"
)

type Services struct {
	Registry *RegistryService
	Sessions *SessionService
	Accounts *AccountService
}

func NewServices(repos *repository.Repositories, events Publisher, presence Presence, archive Archive, tariff billing.Tariff, now billing.Clock) *Services {
	return &Services{
		Registry: NewRegistryService(repos.Store, repos.Seats, events, presence, tariff, now),
		Sessions: NewSessionService(repos.Store, events, presence, archive, tariff, now),
		Accounts: NewAccountService(repos.Accounts),
	}
}
