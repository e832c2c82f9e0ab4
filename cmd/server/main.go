// Package main is the entry point for the arp32 API server
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/james-see/arp32/pkg/api"
)

func main() {
	port := flag.Int("port", 8080, "Server port")
	flag.Parse()

	base := fmt.Sprintf("http://localhost:%d", *port)
	fmt.Printf("Starting arp32 API server on port %d...\n", *port)
	fmt.Println("Endpoints:")
	for _, e := range api.Endpoints() {
		fmt.Printf("  %s\n", e)
	}
	fmt.Printf("Swagger docs available at %s/swagger/index.html\n", base)

	if err := api.StartServer(*port); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
