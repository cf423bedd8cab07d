package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/angelmondragon/costumerental-backend/pkg/auth"
	"github.com/angelmondragon/costumerental-backend/pkg/config"
	"github.com/angelmondragon/costumerental-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// token mints a staff access token signed with the configured JWT secret.
func main() {
	_ = godotenv.Load()

	staff := flag.String("staff", "", "staff id (uuid); a new one is generated when empty")
	name := flag.String("name", "", "staff display name")
	role := flag.String("role", string(enums.StaffRoleClerk), "staff role: clerk|manager")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	staffID := uuid.New()
	if *staff != "" {
		staffID, err = uuid.Parse(*staff)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -staff: %v\n", err)
			os.Exit(1)
		}
	}
	staffRole, err := enums.ParseStaffRole(*role)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	token, err := auth.MintAccessToken(cfg.JWT, time.Now(), auth.AccessTokenPayload{
		StaffID:   staffID,
		StaffName: *name,
		Role:      staffRole,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "mint token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
