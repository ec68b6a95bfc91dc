package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"cedra_variant_editor/internal/auth"
	"cedra_variant_editor/internal/config"
)

// Génère un token admin pour appeler l'éditeur en local
func main() {
	userID := flag.String("user", "local-admin", "user_id placé dans le token")
	email := flag.String("email", "admin@localhost", "email placé dans le token")
	ttl := flag.Duration("ttl", 8*time.Hour, "Durée de validité")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration invalide : %v\n", err)
		os.Exit(1)
	}

	token, err := auth.GenerateJWT([]byte(cfg.JWTSecret), *userID, *email, "admin", *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Génération du token : %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
