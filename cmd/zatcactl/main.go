package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/jhoicas/zatca-einvoice/internal/cli"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Aviso: no se pudo cargar .env: %v", err)
	}
	cli.Execute()
}
