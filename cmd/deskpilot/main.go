package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/deskpilot/deskpilot/pkg/automator"
	"github.com/deskpilot/deskpilot/pkg/catalog"
	"github.com/deskpilot/deskpilot/pkg/config"
	"github.com/deskpilot/deskpilot/pkg/llm"
	"github.com/deskpilot/deskpilot/pkg/prompts"
	"github.com/deskpilot/deskpilot/pkg/protocol"
)

var (
	configFile string
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "deskpilot",
		Short: "LLM-driven desktop automation agent",
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to the config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	runCmd := &cobra.Command{
		Use:   "run [request]",
		Short: "Run one automation session for a natural-language request",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSession,
	}
	rootCmd.AddCommand(runCmd)

	catalogCmd := &cobra.Command{
		Use:   "catalog [application]",
		Short: "List the commands available for an application",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listCatalog,
	}
	rootCmd.AddCommand(catalogCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("deskpilot failed")
		os.Exit(1)
	}
}

func setupLogging(cfg *config.AppConfig) {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Log.Format == "console" {
		log.Logger = log.Output(logWriter(os.Stderr))
	}
}

// logWriter picks human-readable console output only when the destination is
// a terminal; piped or redirected output stays JSON lines.
func logWriter(out *os.File) io.Writer {
	if isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd()) {
		return zerolog.ConsoleWriter{Out: out}
	}
	return out
}

func runSession(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	setupLogging(cfg)

	engine, err := llm.NewOpenAIEngine(llm.OpenAISettings{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
	})
	if err != nil {
		return err
	}

	registry, err := catalog.Builtin()
	if err != nil {
		return err
	}
	templates, err := prompts.Builtin()
	if err != nil {
		return err
	}

	word := automator.NewWordReceiver("Document1.docx")
	excel := automator.NewExcelReceiver("Book1.xlsx")
	ppt := automator.NewPowerPointReceiver("Presentation1.pptx", 3)
	router := automator.NewRouter(automator.DefaultRetryPolicy(), word, excel, ppt)

	inspector := &automator.StaticInspector{
		Items: map[string][]automator.ControlItem{
			protocol.DesktopContext: {
				{Label: "1", Text: "WINWORD.EXE", ControlType: "Window"},
				{Label: "2", Text: "EXCEL.EXE", ControlType: "Window"},
				{Label: "3", Text: "POWERPNT.EXE", ControlType: "Window"},
			},
			"WINWORD.EXE":  {{Label: "1", Text: "Document body", ControlType: "Document"}},
			"EXCEL.EXE":    {{Label: "1", Text: "Grid", ControlType: "Table"}},
			"POWERPNT.EXE": {{Label: "1", Text: "Slide area", ControlType: "Pane"}},
		},
	}

	orchestrator := protocol.New(
		protocol.WithEngine(engine),
		protocol.WithCatalog(registry),
		protocol.WithTemplates(templates),
		protocol.WithAutomation(router),
		protocol.WithInspector(inspector),
		protocol.WithBashRunner(&protocol.ExecRunner{}),
		protocol.WithInteraction(newConsoleInteraction()),
		protocol.WithVisual(cfg.Agent.Visual),
		protocol.WithMultiAction(cfg.Agent.MultiAction),
		protocol.WithMaxRetries(cfg.Agent.MaxRetries),
		protocol.WithMaxTurns(cfg.Agent.MaxTurns),
	)

	result, err := orchestrator.Run(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return err
	}

	fmt.Printf("session %s ended: %s\n", result.SessionID, result.State)
	if result.Comment != "" {
		fmt.Printf("comment: %s\n", result.Comment)
	}
	return nil
}

func listCatalog(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	setupLogging(cfg)

	registry, err := catalog.Builtin()
	if err != nil {
		return err
	}

	if len(args) > 0 {
		for spec := range registry.ListFor(args[0]) {
			fmt.Printf("%s\n    %s\n", spec.Signature(), spec.Summary)
		}
		return nil
	}
	for _, spec := range registry.List() {
		fmt.Printf("%s\n    %s\n", spec.Signature(), spec.Summary)
	}
	return nil
}
