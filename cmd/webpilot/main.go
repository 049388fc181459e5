// Package main provides the WebPilot terminal host. It takes a goal,
// walks the plan through approval, and prints the event stream while
// the engine drives the browser.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/webpilot-ai/webpilot/pkg/actions"
	"github.com/webpilot-ai/webpilot/pkg/browser"
	"github.com/webpilot-ai/webpilot/pkg/config"
	"github.com/webpilot-ai/webpilot/pkg/graph"
	"github.com/webpilot-ai/webpilot/pkg/llm/openai"
	"github.com/webpilot-ai/webpilot/pkg/orchestrator"
	"github.com/webpilot-ai/webpilot/pkg/perception"
	"github.com/webpilot-ai/webpilot/pkg/types"
	"github.com/webpilot-ai/webpilot/pkg/ui"
)

const version = "0.1.0"

type cliFlags struct {
	configFile  string
	goal        string
	model       string
	apiKey      string
	baseURL     string
	headed      bool
	autoApprove bool
	timeout     time.Duration
	showVersion bool
}

func main() {
	flags := parseFlags()

	if flags.showVersion {
		fmt.Printf("WebPilot v%s\n", version)
		return
	}
	if flags.goal == "" {
		fmt.Fprintln(os.Stderr, "a goal is required: webpilot -goal \"...\"")
		flag.Usage()
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n\nShutting down gracefully...")
		cancel()
	}()

	if err := run(ctx, flags); err != nil {
		fmt.Fprintf(os.Stderr, "webpilot: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() *cliFlags {
	flags := &cliFlags{}

	flag.StringVar(&flags.configFile, "config", "webpilot.yaml", "Path to configuration file (YAML)")
	flag.StringVar(&flags.goal, "goal", "", "Goal to accomplish (required)")
	flag.StringVar(&flags.model, "model", "", "LLM model, overrides the config file")
	flag.StringVar(&flags.apiKey, "api-key", "", "API key, overrides OPENAI_API_KEY")
	flag.StringVar(&flags.baseURL, "base-url", "", "API base URL for OpenAI-compatible endpoints")
	flag.BoolVar(&flags.headed, "headed", false, "Run the browser with a visible window")
	flag.BoolVar(&flags.autoApprove, "approve", false, "Approve the proposed plan without asking")
	flag.DurationVar(&flags.timeout, "timeout", 15*time.Minute, "Overall execution timeout")
	flag.BoolVar(&flags.showVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "WebPilot - Autonomous Web Browsing Agent\n\n")
		fmt.Fprintf(os.Stderr, "Usage: webpilot [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  webpilot -goal \"Find the cheapest flight from SFO to JFK next Tuesday\"\n")
		fmt.Fprintf(os.Stderr, "  webpilot -goal \"What is the latest Go release?\" -approve\n")
	}

	flag.Parse()
	return flags
}

func run(ctx context.Context, flags *cliFlags) error {
	cfg, err := config.Load(flags.configFile)
	if err != nil {
		return err
	}
	applyFlags(cfg, flags)

	if cfg.LLM.APIKey == "" {
		return fmt.Errorf("no API key: pass -api-key or set OPENAI_API_KEY")
	}

	providerOpts := []openai.Option{openai.WithModel(cfg.LLM.Model)}
	if cfg.LLM.BaseURL != "" {
		providerOpts = append(providerOpts, openai.WithBaseURL(cfg.LLM.BaseURL))
	}
	provider, err := openai.NewProvider(cfg.LLM.APIKey, providerOpts...)
	if err != nil {
		return fmt.Errorf("failed to create LLM provider: %w", err)
	}

	manager := browser.NewManager(cfg.Browser)
	defer func() {
		if err := manager.Shutdown(); err != nil {
			fmt.Fprintf(os.Stderr, "browser shutdown: %v\n", err)
		}
	}()

	orch := orchestrator.New(orchestrator.Options{
		Provider:  provider,
		Perceiver: perception.NewService(),
		Registry:  actions.NewRegistry(),
		Sessions:  orchestrator.BrowserSessions(manager),
		Agent:     cfg.Agent,
	})

	ctx, cancel := context.WithTimeout(ctx, flags.timeout)
	defer cancel()

	fmt.Println(ui.Banner())
	fmt.Println()

	done := make(chan struct{})
	go func() {
		defer close(done)
		printEvents(ctx, orch)
	}()

	if err := orch.Start(ctx, flags.goal); err != nil {
		return err
	}

	// Non-browsing goals answer directly with no plan to approve.
	if plan := orch.Plan(); plan != nil && plan.Status == graph.PlanStatusPending {
		if err := negotiatePlan(ctx, orch, flags.autoApprove); err != nil {
			return err
		}
	}

	select {
	case <-orch.Done():
	case <-ctx.Done():
		orch.Stop()
		<-orch.Done()
	}

	// Let the printer drain what is left in the buffer.
	cancel()
	<-done
	fmt.Println()
	return nil
}

func applyFlags(cfg *config.Config, flags *cliFlags) {
	if flags.model != "" {
		cfg.LLM.Model = flags.model
	}
	if flags.apiKey != "" {
		cfg.LLM.APIKey = flags.apiKey
	}
	if flags.baseURL != "" {
		cfg.LLM.BaseURL = flags.baseURL
	}
	if flags.headed {
		cfg.Browser.Headless = false
	}
}

// negotiatePlan asks the user to approve the proposed plan, revising it
// on any feedback other than yes or no.
func negotiatePlan(ctx context.Context, orch *orchestrator.Orchestrator, autoApprove bool) error {
	if autoApprove {
		return orch.ApprovePlan(ctx)
	}

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print(ui.Prompt("Approve plan? [y/n, or describe changes]: "))
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read approval: %w", err)
		}

		switch answer := strings.TrimSpace(line); strings.ToLower(answer) {
		case "y", "yes":
			return orch.ApprovePlan(ctx)
		case "n", "no":
			return fmt.Errorf("plan rejected")
		case "":
			continue
		default:
			if err := orch.RevisePlan(ctx, answer); err != nil {
				return err
			}
		}
	}
}

// printEvents renders the stream until ctx is canceled, then drains the
// buffer. Stream deltas print inline; a final result ends the line.
func printEvents(ctx context.Context, orch *orchestrator.Orchestrator) {
	streaming := false
	print := func(e *types.Event) {
		if streaming && e.Type != types.EventTypeResultStream {
			fmt.Println()
			streaming = false
		}
		if e.Type == types.EventTypeResultStream {
			streaming = true
		}
		fmt.Print(ui.RenderEvent(e))
	}

	for {
		select {
		case e := <-orch.Events():
			print(e)
		case <-ctx.Done():
			for {
				select {
				case e := <-orch.Events():
					print(e)
				default:
					if streaming {
						fmt.Println()
					}
					return
				}
			}
		}
	}
}
