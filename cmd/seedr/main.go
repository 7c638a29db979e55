package main

import (
	"flag"
	"fmt"
	"os"

	seedr "github.com/equilibrar/migratr/internal/seedr"
)

func main() {
	if len(os.Args) < 2 {
		printHelp()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "generate":
		genCmd := flag.NewFlagSet("generate", flag.ExitOnError)
		configPath := genCmd.String("config", "", "Path to seed config file")
		genCmd.Parse(os.Args[2:])
		if *configPath == "" {
			fmt.Println("Error: --config is required for 'generate'")
			genCmd.Usage()
			os.Exit(1)
		}
		fmt.Printf("Running 'generate' with config: %s\n", *configPath)
		seedr.Generate(configPath)

	case "schema":
		schemaCmd := flag.NewFlagSet("schema", flag.ExitOnError)
		driver := schemaCmd.String("driver", "mysql", "Target driver: mysql|postgres")
		output := schemaCmd.String("output", "schema.sql", "Output file")
		schemaCmd.Parse(os.Args[2:])
		seedr.Schema(*driver, *output)

	case "help", "--help", "-h":
		printHelp()
	default:
		fmt.Printf("Unknown subcommand: %s\n\n", os.Args[1])
		printHelp()
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println(`Usage: seedr <subcommand> --config <path>`)
	fmt.Println()
	fmt.Println("Subcommands:")
	fmt.Println("  generate --config <path>              Generate synthetic legacy CSV exports")
	fmt.Println("  schema   --driver <d> --output <path> Write the target schema DDL")
	fmt.Println("  help                                  Show this help message")
}
