// Command createadmin bootstraps the first administrator account.
//
// Usage:
//
//	createadmin <username> <email> <password>
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"weather-display-backend/internal/auth"
	"weather-display-backend/internal/config"
	"weather-display-backend/internal/database"
	"weather-display-backend/internal/models"
	"weather-display-backend/internal/repository"

	"go.uber.org/zap"
)

func main() {
	if len(os.Args) != 4 {
		fmt.Fprintln(os.Stderr, "usage: createadmin <username> <email> <password>")
		os.Exit(2)
	}
	username, email, password := os.Args[1], os.Args[2], os.Args[3]

	cfg := config.LoadConfig()
	db := database.Connect(cfg)
	userRepo := repository.NewUserRepo(db)
	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost, zap.NewNop())

	hash, err := hasher.Hash(password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	}
	if err := userRepo.CreateUser(context.Background(), user); err != nil {
		log.Fatalf("Failed to create admin user: %v", err)
	}

	fmt.Printf("Admin user %q created (id=%d)\n", user.Username, user.ID)
}
