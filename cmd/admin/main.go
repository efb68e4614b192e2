// Package main provides account role utilities for SocialNest.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"socialnest/internal/bootstrap"
	"socialnest/internal/config"
	"socialnest/internal/models"
	"socialnest/internal/repository"
)

const pageSize = 100

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage:")
		fmt.Println("  go run ./cmd/admin set-role <username> <user|moderator|admin>  - Change a user's role")
		fmt.Println("  go run ./cmd/admin list-staff                                 - List admins and moderators")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer func() { _ = rt.Store.Close() }()

	switch command := os.Args[1]; command {
	case "set-role":
		if len(os.Args) < 4 {
			fmt.Println("Usage: go run ./cmd/admin set-role <username> <user|moderator|admin>")
			os.Exit(1)
		}
		setRole(ctx, rt.Store, os.Args[2], os.Args[3])

	case "list-staff":
		listStaff(ctx, rt.Store)

	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}
}

func setRole(ctx context.Context, store repository.Store, username, rawRole string) {
	role, ok := models.ParseRole(rawRole)
	if !ok {
		fmt.Printf("Unknown role %q\n", rawRole)
		os.Exit(1)
	}

	user, err := store.Users().GetByUsername(ctx, username)
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			fmt.Printf("User %s not found\n", username)
			os.Exit(1)
		}
		log.Fatalf("Storage error: %v", err)
	}

	if user.Role == role {
		fmt.Printf("User %s (ID: %d) already has role %s\n", user.Username, user.ID, role)
		return
	}

	if err := store.Users().SetRole(ctx, user.ID, role); err != nil {
		log.Fatalf("Failed to update role: %v", err)
	}
	fmt.Printf("✓ User %s (ID: %d) is now %s\n", user.Username, user.ID, role)
}

func listStaff(ctx context.Context, store repository.Store) {
	found := 0
	for offset := 0; ; offset += pageSize {
		users, err := store.Users().List(ctx, pageSize, offset)
		if err != nil {
			log.Fatalf("Storage error: %v", err)
		}
		for _, u := range users {
			if u.IsPrivileged() {
				fmt.Printf("  ID: %d, Username: %s, Role: %s\n", u.ID, u.Username, u.Role)
				found++
			}
		}
		if len(users) < pageSize {
			break
		}
	}
	if found == 0 {
		fmt.Println("No admins or moderators found")
	}
}
