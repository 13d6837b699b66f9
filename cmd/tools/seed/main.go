// Command seed creates identity records for local testing and prints a
// signed token for each, standing in for the credential-issuance service.
package main

import (
	"chat-relay/auth"
	"chat-relay/repositories"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
)

type Config struct {
	BadgerFilepath string        `env:"BADGER_FILEPATH,required=true"`
	JWTSecret      string        `env:"JWT_SECRET,required=true"`
	TokenDuration  time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
}

func main() {
	username := flag.String("username", "", "username of the identity to create")
	password := flag.String("password", "", "plain password to hash and store")
	avatar := flag.String("avatar", "", "optional avatar URL")
	flag.Parse()

	if *username == "" || *password == "" {
		log.Fatal("both -username and -password are required")
	}

	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	identities := repositories.NewIdentityRepository(db)
	id, err := identities.CreateIdentity(*username, *password, *avatar)
	if err != nil {
		log.Fatalf("Failed to create identity: %v", err)
	}

	token, err := auth.GenerateToken(id, config.JWTSecret, config.TokenDuration)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}

	fmt.Printf("identity: %s\n", id)
	fmt.Printf("token:    %s\n", token)
}
