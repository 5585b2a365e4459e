package main

import (
	"context"
	"errors"
	goflag "flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"bmad-board/internal/config"
	"bmad-board/internal/handlers"
	"bmad-board/internal/helpers"
	"bmad-board/internal/models"
	"bmad-board/internal/repositories"
	"bmad-board/internal/router"
	"bmad-board/internal/services"
)

const shutdownTimeout = 5 * time.Second

var (
	configFile  string
	docsDir     string
	outputFile  string
	showStories bool

	cfg *config.Config
)

func main() {
	defer klog.Flush()

	var rootCmd = &cobra.Command{
		Use:   "bmad-board",
		Short: "BMAD Board - project boards from BMAD planning artifacts",
		Long: `BMAD Board reads the markdown and YAML artifacts of a BMAD project
(PRD, architecture, epics, stories, sprint status) and reconciles them
into a single project model with epics, stories and progress.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: loadConfig,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file path (default: bmad-board.yaml in the working directory)")
	config.RegisterFlags(rootCmd.PersistentFlags())

	klogFlags := goflag.NewFlagSet("klog", goflag.ExitOnError)
	klog.InitFlags(klogFlags)
	rootCmd.PersistentFlags().AddGoFlagSet(klogFlags)

	var parseCmd = &cobra.Command{
		Use:   "parse <project>",
		Short: "Parse a project and print it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runParse,
	}
	parseCmd.Flags().StringVarP(&docsDir, "docs", "d", "", "Artifacts directory to use instead of the conventional locations")
	parseCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write the JSON to this file instead of stdout")
	rootCmd.AddCommand(parseCmd)

	var showCmd = &cobra.Command{
		Use:   "show <project>",
		Short: "Show a project board in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}
	showCmd.Flags().StringVarP(&docsDir, "docs", "d", "", "Artifacts directory to use instead of the conventional locations")
	showCmd.Flags().BoolVarP(&showStories, "stories", "s", false, "List the stories of every epic")
	rootCmd.AddCommand(showCmd)

	var statsCmd = &cobra.Command{
		Use:   "stats <project>",
		Short: "Show progress statistics of a project",
		Args:  cobra.ExactArgs(1),
		RunE:  runStats,
	}
	statsCmd.Flags().StringVarP(&docsDir, "docs", "d", "", "Artifacts directory to use instead of the conventional locations")
	rootCmd.AddCommand(statsCmd)

	var exportCmd = &cobra.Command{
		Use:   "export <project>",
		Short: "Export a validated project JSON and a markdown summary",
		Args:  cobra.ExactArgs(1),
		RunE:  runExport,
	}
	exportCmd.Flags().StringVarP(&docsDir, "docs", "d", "", "Artifacts directory to use instead of the conventional locations")
	rootCmd.AddCommand(exportCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "scan <root>",
		Short: "Find BMAD projects below a directory",
		Args:  cobra.ExactArgs(1),
		RunE:  runScan,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "detect <path>",
		Short: "Check whether a directory is a BMAD project",
		Args:  cobra.ExactArgs(1),
		RunE:  runDetect,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "candidates <path>",
		Short: "List possible artifacts directories of a project",
		Args:  cobra.ExactArgs(1),
		RunE:  runCandidates,
	})

	var watchCmd = &cobra.Command{
		Use:   "watch <project>",
		Short: "Watch a project and re-parse it when artifacts change",
		Args:  cobra.ExactArgs(1),
		RunE:  runWatch,
	}
	watchCmd.Flags().StringVarP(&docsDir, "docs", "d", "", "Artifacts directory to use instead of the conventional locations")
	rootCmd.AddCommand(watchCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file to the working directory",
		Args:  cobra.NoArgs,
		RunE:  runInit,
	})

	if err := rootCmd.Execute(); err != nil {
		helpers.PrintError("Error: %v", err)
		klog.Flush()
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "init" {
		cfg = config.Default()
		return nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	cfg, err = config.LoadConfig(configFile, cwd, cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	return nil
}

// parseWithSpinner parses a project, showing a spinner on interactive terminals
func parseWithSpinner(ctx context.Context, parser *services.ParserService, projectPath string) (*models.Project, error) {
	if !helpers.IsTerminal() {
		return parser.ParseProject(ctx, projectPath, docsDir)
	}

	spinner, _ := pterm.DefaultSpinner.Start("Parsing " + projectPath)
	project, err := parser.ParseProject(ctx, projectPath, docsDir)
	if spinner != nil {
		if err != nil {
			spinner.Fail("Parse failed")
		} else {
			spinner.Success(fmt.Sprintf("Parsed %s", project.Name))
		}
	}
	return project, err
}

func runParse(cmd *cobra.Command, args []string) error {
	parser := services.NewParserService(cfg)

	project, err := parser.ParseProject(cmd.Context(), args[0], docsDir)
	if err != nil {
		return fmt.Errorf("failed to parse project: %w", err)
	}

	if outputFile != "" {
		if err := helpers.SaveJSON(project, outputFile); err != nil {
			return fmt.Errorf("failed to save project: %w", err)
		}
		helpers.PrintSuccess("Project saved to: %s", outputFile)
		return nil
	}

	data, err := helpers.MarshalJSON(project)
	if err != nil {
		return fmt.Errorf("failed to encode project: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	project, err := parseWithSpinner(cmd.Context(), services.NewParserService(cfg), args[0])
	if err != nil {
		return fmt.Errorf("failed to parse project: %w", err)
	}
	return services.DisplayProject(project, showStories)
}

func runStats(cmd *cobra.Command, args []string) error {
	project, err := parseWithSpinner(cmd.Context(), services.NewParserService(cfg), args[0])
	if err != nil {
		return fmt.Errorf("failed to parse project: %w", err)
	}
	services.DisplayStats(project, services.ComputeStats(project))
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	parser := services.NewParserService(cfg)

	project, err := parseWithSpinner(cmd.Context(), parser, args[0])
	if err != nil {
		return fmt.Errorf("failed to parse project: %w", err)
	}

	result, err := parser.SaveProject(project, cfg.Output.Dir)
	if err != nil {
		return err
	}

	helpers.PrintSuccess("Project saved to: %s", result.JSONPath)
	helpers.PrintSuccess("Summary saved to: %s", result.SummaryPath)
	return nil
}

func runScan(_ *cobra.Command, args []string) error {
	discovery := services.NewDiscoveryService(repositories.NewArtifactRepository())

	projects, err := discovery.ScanForProjects(args[0], cfg.Scan.MaxDepth)
	if err != nil {
		return fmt.Errorf("failed to scan: %w", err)
	}

	services.DisplayPaths(fmt.Sprintf("BMAD projects in %s (depth %d)", args[0], cfg.Scan.MaxDepth), projects)
	return nil
}

func runDetect(_ *cobra.Command, args []string) error {
	discovery := services.NewDiscoveryService(repositories.NewArtifactRepository())
	path := args[0]

	if !discovery.IsBmadProject(path) {
		helpers.PrintWarning("%s is not a BMAD project", path)
		return nil
	}

	helpers.PrintSuccess("%s is a BMAD project", path)
	if dir, ok := discovery.FindDocsDir(path); ok {
		helpers.PrintInfo("Artifacts: %s", dir)
	}
	return nil
}

func runCandidates(_ *cobra.Command, args []string) error {
	discovery := services.NewDiscoveryService(repositories.NewArtifactRepository())
	services.DisplayPaths(fmt.Sprintf("Artifacts directory candidates for %s", args[0]), discovery.FindDocsCandidates(args[0]))
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	projectPath := args[0]
	parser := services.NewParserService(cfg)

	project, err := parser.ParseProject(cmd.Context(), projectPath, docsDir)
	if err != nil {
		return fmt.Errorf("failed to parse project: %w", err)
	}
	services.DisplayStats(project, services.ComputeStats(project))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	changes := make(chan models.ChangeEvent, 1)
	watcher := services.NewWatchService(cfg.Debounce(), func(event models.ChangeEvent) {
		select {
		case changes <- event:
		default:
		}
	})
	defer watcher.StopAll()

	if err := watcher.Start(project.ID, project.BmadDocsPath); err != nil {
		return err
	}
	helpers.PrintInfo("Watching %s (Ctrl+C to stop)", project.BmadDocsPath)

	for {
		select {
		case <-ctx.Done():
			helpers.PrintInfo("Stopped watching")
			return nil
		case event := <-changes:
			helpers.PrintInfo("%s: %s", event.Kind, event.Path)
			updated, err := parser.ParseProject(ctx, projectPath, docsDir)
			if err != nil {
				helpers.PrintError("Re-parse failed: %v", err)
				continue
			}
			stats := services.ComputeStats(updated)
			helpers.PrintProgress(stats.ProgressPercentage, fmt.Sprintf("%d/%d stories done", stats.StoriesByStatus[string(models.StoryDone)], stats.TotalStories))
		}
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	repo := repositories.NewArtifactRepository()
	hub := handlers.NewEventHub()
	watcher := services.NewWatchService(cfg.Debounce(), hub.Publish)
	defer watcher.StopAll()

	engine := router.Setup(cfg,
		handlers.NewProjectHandler(cfg, services.NewParserService(cfg), services.NewDiscoveryService(repo)),
		handlers.NewDocumentHandler(repo),
		handlers.NewWatchHandler(watcher),
		handlers.NewEventHandler(hub),
	)

	server := &http.Server{Addr: cfg.Server.Addr, Handler: engine}
	server.RegisterOnShutdown(hub.Close)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		helpers.PrintInfo("Serving on http://%s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	helpers.PrintInfo("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}

func runInit(_ *cobra.Command, _ []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	path, err := config.WriteDefault(cwd)
	if err != nil {
		return err
	}
	helpers.PrintSuccess("Configuration written to: %s", path)
	return nil
}
