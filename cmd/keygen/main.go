package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/arnavshah/care-shift-calendar/pkg/auth"
	"github.com/arnavshah/care-shift-calendar/pkg/models"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env from project root
	_ = godotenv.Load("../.env")

	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./cmd/keygen <staffID> [worker|coordinator]")
		os.Exit(1)
	}

	staffID, err := strconv.Atoi(os.Args[1])
	if err != nil {
		fmt.Printf("Error: staff id must be a number: %v\n", err)
		os.Exit(1)
	}

	role := models.RoleWorker
	if len(os.Args) > 2 {
		if role, err = models.ParseRole(os.Args[2]); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Println("Error: JWT_SECRET not found in .env")
		os.Exit(1)
	}

	token, err := auth.NewAuthenticator(secret, 24*time.Hour, "", "").CreateToken(staffID, role)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Session token for staff %d (%s):\n%s\n", staffID, role, token)
}
