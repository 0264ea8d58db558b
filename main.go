package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"lotto/cmd"
	"lotto/database"

	log "github.com/sirupsen/logrus"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "migrate":
			if err := handleMigrationCommand(); err != nil {
				log.Fatal("Migration error: ", err)
			}
			return
		case "add-player", "place-bet", "cancel-bet":
			if err := handleAdminCommand(os.Args[1], os.Args[2:]); err != nil {
				log.Fatal("Admin command error: ", err)
			}
			return
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx); err != nil {
		log.Fatal("Application error: ", err)
	}
}

func handleMigrationCommand() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: lotto migrate [up|down|status] [args...]")
	}

	command := os.Args[2]
	switch command {
	case "up":
		return database.MigrateUp()
	case "down":
		steps := "1"
		if len(os.Args) > 3 {
			steps = os.Args[3]
		}
		return database.MigrateDown(steps)
	case "status":
		return database.MigrateStatus()
	default:
		return fmt.Errorf("unknown migration command: %s", command)
	}
}

func handleAdminCommand(command string, args []string) error {
	ctx := context.Background()

	switch command {
	case "add-player":
		return cmd.AddPlayer(ctx, args)
	case "place-bet":
		return cmd.PlaceBet(ctx, args)
	case "cancel-bet":
		return cmd.CancelBet(ctx, args)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}
