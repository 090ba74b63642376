package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"quicklift/internal/domain/user"
	"quicklift/internal/jwt"
)

func main() {
	var (
		userID   = flag.String("user-id", "", "UUID of the user (subject)")
		role     = flag.String("role", "RIDER", "User role: RIDER | DRIVER | ADMIN")
		driverID = flag.String("driver-id", "", "Driver record UUID (DRIVER tokens only)")
		secret   = flag.String("secret", "", "JWT HMAC secret (HS256)")
		ttl      = flag.Duration("ttl", 2*time.Hour, "Token lifetime")
	)
	flag.Parse()

	if *userID == "" || *secret == "" {
		fmt.Fprintln(os.Stderr, "usage: token --user-id=<uuid> --role=RIDER --secret='<secret>' [--driver-id=<uuid>] [--ttl=2h]")
		os.Exit(2)
	}

	parsedRole, err := user.ParseRole(*role)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	mgr := jwt.NewManager(*secret, *ttl)
	token, claims, err := mgr.IssueUserToken(*userID, parsedRole, *driverID)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	fmt.Println("TOKEN:")
	fmt.Println(token)
	fmt.Println("\nCLAIMS:")
	fmt.Printf("  sub:  %s\n", claims.Subject)
	fmt.Printf("  role: %s\n", claims.Role)
	if claims.DriverID != "" {
		fmt.Printf("  drv:  %s\n", claims.DriverID)
	}
	fmt.Printf("  iat:  %s\n", claims.IssuedAt.Time.UTC().Format(time.RFC3339))
	fmt.Printf("  exp:  %s\n", claims.ExpiresAt.Time.UTC().Format(time.RFC3339))
}
