package main

import (
	"fmt"
	"log"

	"taskhub/internal/config"
	"taskhub/internal/database"
	"taskhub/internal/server"
)

func main() {
	cfg := config.Load()
	database.Init(cfg.DBDSN, cfg.AdminEmail, cfg.AdminPassword)

	r := server.NewRouter(cfg)

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("starting server on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
