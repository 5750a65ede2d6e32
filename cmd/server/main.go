package main

import (
	"flag"
	"os"

	"github.com/hafsabajwa/chatApp/internal/app"
	"github.com/hafsabajwa/chatApp/internal/config"
)

var configPath = flag.String("config", "config.json", "server configuration file")

func main() {
	flag.Parse()
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		*configPath = envPath
	}

	cfg := config.MustReadConfig(*configPath)

	application, err := app.NewApp(cfg)
	if err != nil {
		panic(err)
	}

	if err := application.Start(); err != nil {
		panic(err)
	}
}
