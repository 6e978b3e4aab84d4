package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/firegroundsoftware/shiftbid-api-go/pkg/auth"
	"github.com/firegroundsoftware/shiftbid-api-go/pkg/database"
)

// Seeds a fresh database with a demo station layout and roster so a new
// deployment can run a bid session immediately.
func main() {
	// Load .env from project root
	_ = godotenv.Load("../.env")
	_ = godotenv.Load(".env")

	db := database.InitDB()
	if err := auth.EnsureAdminExists(db); err != nil {
		fmt.Println("Error: could not ensure admin user:", err)
		os.Exit(1)
	}

	stations := []database.Station{
		{Name: "Station 1", Number: 1, Address: "101 Main St", IsActive: true, CapacityA: 4, CapacityB: 4, CapacityC: 4},
		{Name: "Station 2", Number: 2, Address: "2200 Oak Ave", IsActive: true, CapacityA: 3, CapacityB: 3, CapacityC: 3},
		{Name: "Station 3", Number: 3, Address: "47 Ridge Rd", IsActive: true, CapacityA: 2, CapacityB: 2, CapacityC: 2},
	}
	for _, st := range stations {
		if err := db.Where(database.Station{Name: st.Name}).FirstOrCreate(&st).Error; err != nil {
			fmt.Println("Error: could not seed station:", err)
			os.Exit(1)
		}
	}

	users := []struct {
		username  string
		fullName  string
		seniority float64
	}{
		{"jmartinez", "J. Martinez", 24.5},
		{"kowens", "K. Owens", 19.0},
		{"dpatel", "D. Patel", 12.5},
		{"lnguyen", "L. Nguyen", 8.0},
		{"tbrooks", "T. Brooks", 3.5},
	}
	password := os.Getenv("SEED_PASSWORD")
	if password == "" {
		password = "changeme"
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		fmt.Println("Error: could not hash seed password:", err)
		os.Exit(1)
	}
	for _, u := range users {
		rec := database.User{
			Username:       u.username,
			PasswordHash:   hash,
			FullName:       u.fullName,
			SeniorityScore: u.seniority,
		}
		if err := db.Where(database.User{Username: u.username}).FirstOrCreate(&rec).Error; err != nil {
			fmt.Println("Error: could not seed user:", err)
			os.Exit(1)
		}
	}

	fmt.Printf("Seeded %d stations and %d users\n", len(stations), len(users))
}
