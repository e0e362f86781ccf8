package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	_ "github.com/redmonkez12/go-auth-service/docs" // Swagger docs
	"github.com/redmonkez12/go-auth-service/internal/config"
)

// @title           Go Auth Service
// @version         1.0
// @description     Minimal authentication service: register, login, current user and stateless logout.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8000
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

// Version information set at build time.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	cmd := NewRootCmd()
	cmd.Version = fmt.Sprintf("%s (commit: %s)", version, commit)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd creates the root command. Running it without a subcommand starts the server.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "authsvc",
		Short:        "Authentication service",
		Long:         `Authentication service with register, login, current user and logout endpoints backed by PostgreSQL.`,
		SilenceUsage: true,
		RunE:         runServe,
	}

	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}
}

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Apply all pending database migrations to the configured PostgreSQL database.`,
		RunE:  runMigrate,
	}
}
