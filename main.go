package main

import (
	"embed"
	"log"
	"os"

	"github.com/devtamer/pdf-redactor-for-mac/cli"
	"github.com/devtamer/pdf-redactor-for-mac/server"
)

//go:embed all:templates
var viewsFs embed.FS

//go:embed static
var staticFs embed.FS

// Default configuration for the CLI
var config = &cli.DefaultConfig

func startServer() {
	server.Run(config, viewsFs, staticFs)
}

func main() {
	log.SetPrefix("[pdfredact]: ")
	log.SetFlags(log.Lshortfile)

	// Parse the command line arguments
	ctx := cli.DefineFlags(config, startServer)
	subcmd, err := ctx.Parse(os.Args)
	if err != nil {
		log.Fatalln(err)
	}

	// If the subcommand is nil, print the usage and exit
	if subcmd == nil {
		ctx.PrintUsage(os.Stdout)
		os.Exit(1)
	}

	// Run the subcommand
	subcmd.Handler()
}
