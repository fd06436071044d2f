package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"time"

	"lanhall/internal/config"
	"lanhall/internal/database"
	apperr "lanhall/internal/errors"
	"lanhall/internal/logger"
	"lanhall/internal/models"
	"lanhall/internal/repository"
	"lanhall/internal/service"

	"github.com/joho/godotenv"
)

const (
	DefaultRows        = 4
	DefaultSeatsPerRow = 8
)

// seed provisions a floor grid of seats plus an operator account and a
// demo member, so a fresh environment is playable immediately.
func main() {
	var (
		rows        int
		seatsPerRow int
		balance     int64
	)
	flag.IntVar(&rows, "rows", DefaultRows, "Number of seat rows")
	flag.IntVar(&seatsPerRow, "seats-per-row", DefaultSeatsPerRow, "Seats per row")
	flag.Int64Var(&balance, "member-balance", 100000, "Starting balance for the demo member")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, "text")

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	repos := repository.NewRepositories(db)
	accounts := service.NewAccountService(repos.Accounts)
	ctx := context.Background()

	start := time.Now()
	created := seedSeats(ctx, repos.Seats, rows, seatsPerRow)
	seedAccounts(ctx, accounts, balance)

	slog.Info("Seeding completed",
		"seats_created", created,
		"duration", time.Since(start).String())
}

func seedSeats(ctx context.Context, seats *repository.SeatRepository, rows, seatsPerRow int) int {
	created := 0
	for y := 0; y < rows; y++ {
		for x := 0; x < seatsPerRow; x++ {
			seat := &models.Seat{
				Name:  fmt.Sprintf("%c%d", 'A'+y, x+1),
				GridX: x,
				GridY: y,
			}
			err := seats.Create(ctx, seat)
			switch {
			case errors.Is(err, apperr.ErrConflict):
				// Already seeded, keep going
			case err != nil:
				logger.Fatal("Failed to create seat", "name", seat.Name, "error", err)
			default:
				created++
			}
		}
	}
	return created
}

func seedAccounts(ctx context.Context, accounts *service.AccountService, memberBalance int64) {
	bootstrap := []models.CreateAccountRequest{
		{
			Email:       "operator@lanhall.local",
			Password:    "operator123",
			DisplayName: "Floor Operator",
			Role:        models.RoleOperator,
		},
		{
			Email:       "demo@lanhall.local",
			Password:    "demo123",
			DisplayName: "Demo Member",
			Role:        models.RoleMember,
			Balance:     memberBalance,
		},
	}

	for _, req := range bootstrap {
		if _, err := accounts.Create(ctx, &req); err != nil {
			if errors.Is(err, apperr.ErrConflict) {
				slog.Info("Account already exists", "email", req.Email)
				continue
			}
			logger.Fatal("Failed to create account", "email", req.Email, "error", err)
		}
		slog.Info("Created account", "email", req.Email, "role", req.Role)
	}
}
