package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"toolhost/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "toolhost",
	Short: "Tool catalog with session working memory",
	Long:  "Hosts a catalog of model-callable tools with per-session fact registry and list memory.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetFlags(log.LstdFlags | log.Lshortfile)

		// Load .env file (ignore error if file doesn't exist)
		if err := godotenv.Load(); err == nil {
			log.Println("✅ .env file loaded successfully")
		}

		// Initialize structured logging (JSON in production, text in dev)
		logging.Init(os.Getenv("ENVIRONMENT"), os.Getenv("LOG_LEVEL"))
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
