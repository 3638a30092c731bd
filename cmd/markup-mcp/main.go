package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/pdf-markup-mcp/internal/config"
	"github.com/ironsheep/pdf-markup-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("pdf-markup-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("pdf-markup-mcp - MCP server for scale-calibrated PDF markup")
			fmt.Println()
			fmt.Println("Usage: pdf-markup-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  MARKUP_LOG_LEVEL=info             Log level (debug, info, warn, error)")
			fmt.Println("  MARKUP_UNIT=mm                    Unit used for calibrated lengths")
			fmt.Println("  MARKUP_EXPORT_MULTIPLIER=4        Overlay resolution for high quality export")
			fmt.Println("  MARKUP_VIEWPORT_WIDTH=1600        Viewport the page is fitted into")
			fmt.Println("  MARKUP_VIEWPORT_HEIGHT=900")
			fmt.Println("  MARKUP_OUTPUT_DIR=.               Default export directory")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	cfg := config.Load()

	// stdout is the MCP channel
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(cfg.LogLevel)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log := logger.WithField("version", Version)

	log.WithFields(logrus.Fields{
		"build":  BuildTime,
		"commit": GitCommit,
		"unit":   cfg.Unit,
	}).Debug("starting")

	srv, err := server.New(cfg, Version, log)
	if err != nil {
		log.WithError(err).Fatal("failed to start server")
	}
	if err := srv.Run(); err != nil {
		log.WithError(err).Fatal("server error")
	}
}
