package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"cafelist/internal/auth"
	"cafelist/internal/config"
	"cafelist/internal/dashboard"
	"cafelist/internal/stats"
	"cafelist/internal/storage"
	"cafelist/internal/web"
)

// Version should be injected via ldflags. Default for dev.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "cafelist",
	Short: "A cafe listing web application",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	serveCmd.Flags().String("port", "", "port to listen on (overrides config)")
	serveCmd.Flags().String("db", "", "sqlite database path (overrides config)")
	serveCmd.Flags().String("config", "", "path to yaml config file")
	serveCmd.Flags().Bool("dashboard", false, "show a live terminal dashboard")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			log.Fatalf("Error loading config: %v", err)
		}
		if port, _ := cmd.Flags().GetString("port"); port != "" {
			cfg.Port = port
		}
		if db, _ := cmd.Flags().GetString("db"); db != "" {
			cfg.DatabasePath = db
		}

		store, err := storage.Open(cfg.DatabasePath)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}

		session := auth.NewSessionManager(cfg.SessionHashKey, cfg.SessionBlockKey, cfg.SecureCookies)
		collector := stats.New()

		router, err := web.NewRouter(cfg, web.NewHandler(store, session), collector)
		if err != nil {
			log.Fatalf("Failed to build router: %v", err)
		}

		// Shutdown context for the dashboard.
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sigChan
			cancel()
			os.Exit(0)
		}()

		addr := "localhost:" + cfg.Port

		if showDashboard, _ := cmd.Flags().GetBool("dashboard"); showDashboard {
			go func() {
				if err := router.Run(":" + cfg.Port); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			if err := dashboard.Run(ctx, collector, addr); err != nil {
				log.Printf("Dashboard error: %v", err)
			}
			return
		}

		log.Printf("Starting server on port %s", cfg.Port)
		if err := router.Run(":" + cfg.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(Version)
	},
}
