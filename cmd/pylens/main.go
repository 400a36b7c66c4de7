package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/pylens/pylens/internal/config"
	"github.com/pylens/pylens/internal/coordinator"
	"github.com/pylens/pylens/internal/mcp"
	"github.com/pylens/pylens/internal/version"
)

// loadConfigWithOverrides loads configuration and applies CLI flag overrides
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	configPath := c.String("config")

	if rootFlag := c.String("root"); rootFlag != "" && configPath == "pylens.toml" {
		configPath = filepath.Join(rootFlag, "pylens.toml")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}

	if rootFlag := c.String("root"); rootFlag != "" {
		absRoot, err := filepath.Abs(rootFlag)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve root path %q: %w", rootFlag, err)
		}
		cfg.Project.Root = absRoot
	}
	if c.IsSet("no-watch") {
		cfg.Watch.Enabled = !c.Bool("no-watch")
	}

	return cfg, nil
}

func main() {
	// Missing .env is fine; it only supplies optional overrides.
	_ = godotenv.Load()

	app := &cli.App{
		Name:                   "pylens",
		Usage:                  "Live Python code analysis for AI assistants",
		Version:                version.Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path",
				Value:   "pylens.toml",
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Project root directory (overrides config)",
			},
			&cli.BoolFlag{
				Name:  "no-watch",
				Usage: "Disable file watching",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve analysis tools over MCP stdio",
				Action: serveCommand,
			},
			{
				Name:      "analyze",
				Usage:     "Analyze a project and print symbols and dependencies as JSON",
				ArgsUsage: "[path]",
				Action:    analyzeCommand,
			},
			{
				Name:      "lint",
				Usage:     "Lint a project and print diagnostics as JSON",
				ArgsUsage: "[path]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "summary",
						Aliases: []string{"s"},
						Usage:   "Print aggregate counts instead of individual diagnostics",
					},
				},
				Action: lintCommand,
			},
			{
				Name:      "docs",
				Usage:     "List a project's documentation files as JSON",
				ArgsUsage: "[path]",
				Action:    docsCommand,
			},
			{
				Name:  "version",
				Usage: "Print version information",
				Action: func(c *cli.Context) error {
					fmt.Println(version.FullInfo())
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func serveCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	diag := mcp.NewDiagnosticLogger(true)
	defer diag.Close()

	coord, err := coordinator.New(cfg, diag.Logger())
	if err != nil {
		return fmt.Errorf("failed to create coordinator: %w", err)
	}
	defer coord.Close()

	if cfg.Project.Root != "" {
		if _, err := coord.Register(c.Context, cfg.Project.Root, cfg.Project.Name); err != nil {
			diag.Errorf("failed to register configured project: %v", err)
		}
	}

	server := mcp.NewServer(coord, diag)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Run(ctx)
	}()

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		diag.Printf("Received signal %v, shutting down", sig)
		cancel()
		select {
		case <-errChan:
		case <-time.After(2 * time.Second):
		}
		return nil
	}
}

// oneShotProject registers the argument (or configured root, or the current
// directory) with a watch-free coordinator for one-off CLI commands.
func oneShotProject(c *cli.Context) (*coordinator.Coordinator, string, error) {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return nil, "", err
	}
	cfg.Watch.Enabled = false

	root := c.Args().First()
	if root == "" {
		root = cfg.Project.Root
	}
	if root == "" {
		root, err = os.Getwd()
		if err != nil {
			return nil, "", err
		}
	}

	coord, err := coordinator.New(cfg, nil)
	if err != nil {
		return nil, "", err
	}

	info, err := coord.Register(c.Context, root, cfg.Project.Name)
	if err != nil {
		coord.Close()
		return nil, "", err
	}
	return coord, info.Name, nil
}

func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func analyzeCommand(c *cli.Context) error {
	coord, name, err := oneShotProject(c)
	if err != nil {
		return err
	}
	defer coord.Close()

	symbols, err := coord.Symbols(name, "", "")
	if err != nil {
		return err
	}
	deps, err := coord.Dependencies(name, false)
	if err != nil {
		return err
	}
	return printJSON(map[string]interface{}{
		"symbols":      symbols,
		"dependencies": deps,
	})
}

func lintCommand(c *cli.Context) error {
	coord, name, err := oneShotProject(c)
	if err != nil {
		return err
	}
	defer coord.Close()

	if c.Bool("summary") {
		summary, err := coord.LintSummary(name)
		if err != nil {
			return err
		}
		return printJSON(summary)
	}

	diags, err := coord.Diagnostics(name, "", "")
	if err != nil {
		return err
	}
	return printJSON(map[string]interface{}{
		"diagnostics": diags,
		"count":       len(diags),
	})
}

func docsCommand(c *cli.Context) error {
	coord, name, err := oneShotProject(c)
	if err != nil {
		return err
	}
	defer coord.Close()

	documents, err := coord.Docs(name)
	if err != nil {
		return err
	}
	return printJSON(map[string]interface{}{
		"documentation": documents,
		"count":         len(documents),
	})
}
