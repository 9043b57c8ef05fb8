package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/franciscosanchezn/insight-hub-api/internal/config"
	"github.com/franciscosanchezn/insight-hub-api/internal/database"
	"github.com/franciscosanchezn/insight-hub-api/internal/models"
	"github.com/franciscosanchezn/insight-hub-api/internal/services"
)

func main() {
	// Parse command line flags
	username := flag.String("username", "admin", "Admin username")
	password := flag.String("password", "", "Admin password (required)")
	email := flag.String("email", "", "Admin email, lets the matching Google account publish notices")
	name := flag.String("name", "Administrator", "Display name")
	flag.Parse()

	if *password == "" {
		log.Fatal("-password is required")
	}

	_ = godotenv.Load()
	conf, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	db, err := database.InitDatabase(database.DatabaseConfig{
		Driver:   conf.DBDriver,
		URL:      conf.DatabaseURL,
		Host:     conf.DBHost,
		Port:     conf.DBPort,
		User:     conf.DBUser,
		Password: conf.DBPassword,
		Name:     conf.DBName,
		SSLMode:  conf.DBSSLMode,
		Path:     conf.DBPath,
	})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal(err)
	}

	admin := &models.Admin{Username: *username, Name: *name, Active: true}
	if *email != "" {
		admin.Email = email
	}
	if err := admin.SetPassword(*password); err != nil {
		log.Fatal("Failed to hash password:", err)
	}

	err = services.NewAdminService(db).CreateAdmin(context.Background(), admin)
	if errors.Is(err, services.ErrAlreadyExists) {
		fmt.Printf("Admin '%s' already exists!\n", *username)
		return
	}
	if err != nil {
		log.Fatal("Failed to create admin:", err)
	}

	fmt.Printf("✓ Admin '%s' created (ID: %d)\n", admin.Username, admin.ID)
	fmt.Println("\nSign in with:")
	fmt.Printf("curl -X POST http://localhost:8080/admin/login \\\n")
	fmt.Printf("  -H 'Content-Type: application/json' \\\n")
	fmt.Printf("  -d '{\"username\":\"%s\",\"password\":\"<password>\"}'\n", *username)
}
