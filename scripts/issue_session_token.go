package main

import (
	"fmt"
	"log"
	"os"

	"github.com/your-org/template-store/internal/config"
	"github.com/your-org/template-store/internal/pkg/auth"
)

// Prints a cart session token signed with the configured JWT secret, for
// exercising the cart API with curl:
//
//	go run scripts/issue_session_token.go [session-id]
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Error loading config:", err)
	}

	sessions := auth.NewSessionManager(cfg)

	var sessionID, token string
	if len(os.Args) > 1 {
		sessionID = os.Args[1]
		token, err = sessions.GenerateToken(sessionID)
	} else {
		sessionID, token, err = sessions.NewSession()
	}
	if err != nil {
		log.Fatal("Error generating token:", err)
	}

	if _, err := sessions.ValidateToken(token); err != nil {
		log.Fatal("Token verification failed:", err)
	}

	fmt.Printf("Session: %s\n", sessionID)
	fmt.Printf("Token: %s\n", token)
	fmt.Printf("curl -H 'Authorization: Bearer %s' http://localhost:%s/api/v1/cart\n", token, cfg.Server.Port)
}
