package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/GandharvMahajan/AutoExamChecker/internal/config"
	"github.com/GandharvMahajan/AutoExamChecker/internal/database"
	"github.com/GandharvMahajan/AutoExamChecker/internal/logger"
	"github.com/GandharvMahajan/AutoExamChecker/internal/repository"
	"github.com/GandharvMahajan/AutoExamChecker/internal/service"
	"golang.org/x/term"
)

const minPasswordLength = 6

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	store := repository.NewPostgresStore(pool)
	defer store.Close()

	// ─── Initialize Service ────────────────────────────────────────────
	authService := service.NewAuthService(cfg)
	accountService := service.NewAccountService(store, authService, cfg, log)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create Admin Account ===")

	fmt.Print("Enter Name: ")
	name, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)
	if name == "" {
		fmt.Println("Error: Name is required")
		return
	}

	fmt.Print("Enter Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)
	if !strings.Contains(email, "@") {
		fmt.Println("Error: A valid email is required")
		return
	}

	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fmt.Println("Error reading password")
		return
	}
	password := string(bytePassword)
	if len(password) < minPasswordLength {
		fmt.Printf("Error: Password must be at least %d characters\n", minPasswordLength)
		return
	}

	// ─── Logic ─────────────────────────────────────────────────────────
	account, created, err := accountService.CreateAdmin(ctx, name, email, password)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create admin")
	}

	if created {
		fmt.Printf("\nSuccess! Admin '%s' (%s) created with ID: %d\n", account.Name, account.Email, account.ID)
		return
	}
	fmt.Printf("\nAccount %s (ID %d) already existed and is now an admin. Its password was not changed.\n", account.Email, account.ID)
}
