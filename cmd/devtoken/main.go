// Command devtoken mints an access token for local testing.  It signs with
// JWT_SECRET from the same configuration the server reads.
//
//	go run ./cmd/devtoken -sub alice
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/iliyamo/event-attendance/internal/config"
	"github.com/iliyamo/event-attendance/internal/utils"
)

func main() {
	sub := flag.String("sub", "", "user id placed in the token subject")
	ttl := flag.Duration("ttl", 0, "token lifetime (default ACCESS_TOKEN_TTL)")
	flag.Parse()

	if *sub == "" {
		fmt.Fprintln(os.Stderr, "devtoken: -sub is required")
		os.Exit(2)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "devtoken:", err)
		os.Exit(1)
	}
	lifetime := cfg.AccessTTL
	if *ttl > 0 {
		lifetime = *ttl
	}
	tok, err := utils.NewAccessToken(cfg.JWTSecret, *sub, lifetime)
	if err != nil {
		fmt.Fprintln(os.Stderr, "devtoken:", err)
		os.Exit(1)
	}
	fmt.Println(tok.Token)
	fmt.Fprintf(os.Stderr, "expires %s\n", tok.Exp.Format(time.RFC3339))
}
