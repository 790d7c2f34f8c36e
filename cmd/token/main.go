// Command token mints a development JWT for exercising the API
// locally. Production tokens come from the campus identity provider.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/campuswell/wellness-api/pkg/auth"
)

func main() {
	email := flag.String("email", "", "identity email claim")
	role := flag.String("role", auth.RoleStudent, "role claim (student or admin)")
	secret := flag.String("secret", "", "JWT signing secret")
	expiry := flag.Duration("expiry", 24*time.Hour, "token lifetime")
	flag.Parse()

	if *email == "" || *secret == "" {
		fmt.Fprintln(os.Stderr, "usage: token -email user@example.edu -secret <secret> [-role admin]")
		os.Exit(2)
	}

	svc := auth.NewJWTService(*secret, *expiry)
	token, err := svc.GenerateToken(*email, *role)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
