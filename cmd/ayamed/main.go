// Command ayamed runs the IRC daemon.
package main

import (
	"flag"
	"log"

	"github.com/ayameircd/ayame/internal/ircd"
	"github.com/ayameircd/ayame/internal/tomlconfig"
)

func main() {
	log.SetFlags(0)

	configPath := flag.String("config", "ayame.toml", "path to the TOML configuration file")
	flag.Parse()

	cfg, err := tomlconfig.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	server, err := ircd.NewServer(cfg)
	if err != nil {
		log.Fatal(err)
	}

	if err := server.Run(); err != nil {
		log.Fatal(err)
	}

	log.Printf("server shutdown cleanly")
}
