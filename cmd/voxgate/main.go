package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/voxenlabs/voxgate/pkg/chats/message"
	"github.com/voxenlabs/voxgate/pkg/chats/role"
	"github.com/voxenlabs/voxgate/pkg/gateway"
)

func main() {
	// Handle subcommands before flag parsing.
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "models":
			modelsCmd := flag.NewFlagSet("models", flag.ExitOnError)
			modelsCmd.Usage = func() {
				fmt.Fprintf(os.Stderr, "Usage: voxgate models [flags]\n\nList the models a provider can serve.\n\nFlags:\n")
				modelsCmd.PrintDefaults()
			}
			cfgPath := modelsCmd.String("config", "voxgate.json", "path to configuration file")
			envFile := modelsCmd.String("env", ".env", "path to .env file (ignored if missing)")
			provider := modelsCmd.String("provider", "", "provider to list (default: the configured default)")
			_ = modelsCmd.Parse(os.Args[2:])

			if err := runModels(*cfgPath, *envFile, *provider); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}

			return
		case "test":
			testCmd := flag.NewFlagSet("test", flag.ExitOnError)
			testCmd.Usage = func() {
				fmt.Fprintf(os.Stderr, "Usage: voxgate test [flags]\n\nSend a probe message to a provider to verify reachability and credentials.\n\nFlags:\n")
				testCmd.PrintDefaults()
			}
			cfgPath := testCmd.String("config", "voxgate.json", "path to configuration file")
			envFile := testCmd.String("env", ".env", "path to .env file (ignored if missing)")
			provider := testCmd.String("provider", "", "provider to test (default: the configured default)")
			apiKey := testCmd.String("api-key", "", "API key to test with (default: the configured one)")
			model := testCmd.String("model", "", "model to test with (default: the provider's default)")
			_ = testCmd.Parse(os.Args[2:])

			if err := runTest(*cfgPath, *envFile, *provider, *apiKey, *model); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}

			return
		case "use":
			useCmd := flag.NewFlagSet("use", flag.ExitOnError)
			useCmd.Usage = func() {
				fmt.Fprintf(os.Stderr, "Usage: voxgate use -provider <name> [flags]\n\nSwitch the default provider, creating or updating its entry.\n\nFlags:\n")
				useCmd.PrintDefaults()
			}
			cfgPath := useCmd.String("config", "voxgate.json", "path to configuration file")
			envFile := useCmd.String("env", ".env", "path to .env file (ignored if missing)")
			provider := useCmd.String("provider", "", "provider to switch to (required)")
			apiKey := useCmd.String("api-key", "", "API key for the provider")
			baseURL := useCmd.String("base-url", "", "base URL override")
			model := useCmd.String("model", "", "default model override")
			_ = useCmd.Parse(os.Args[2:])

			if err := runUse(*cfgPath, *envFile, *provider, *apiKey, *baseURL, *model); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}

			return
		}
	}

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: voxgate [flags] <message>\n       voxgate <command> [flags]\n\nFlags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nCommands:\n  models  List the models a provider can serve\n  test    Probe a provider's reachability and credentials\n  use     Switch the default provider\n")
	}

	cfgPath := flag.String("config", "voxgate.json", "path to configuration file")
	envFile := flag.String("env", ".env", "path to .env file (ignored if missing)")
	provider := flag.String("provider", "", "provider override for this request")
	apiKey := flag.String("api-key", "", "API key override for this request")
	model := flag.String("model", "", "model override for this request")
	system := flag.String("system", "", "system prompt")
	verbose := flag.Bool("verbose", false, "log each candidate attempt")
	flag.Parse()

	text := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if text == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*cfgPath, *envFile, *provider, *apiKey, *model, *system, text, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func openGateway(cfgPath, envFile string, verbose bool) (*gateway.Gateway, error) {
	if err := gateway.LoadEnvFile(envFile); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	level := slog.LevelError
	if verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	store, err := gateway.Open(cfgPath)
	if err != nil {
		return nil, err
	}

	return gateway.New(store, gateway.WithLogger(log)), nil
}

func run(cfgPath, envFile, provider, apiKey, model, system, text string, verbose bool) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g, err := openGateway(cfgPath, envFile, verbose)
	if err != nil {
		return err
	}

	var msgs []message.Message
	if system != "" {
		msgs = append(msgs, message.New(role.System, system))
	}
	msgs = append(msgs, message.New(role.User, text))

	res := g.Chat(ctx, gateway.ChatRequest{
		Messages:         msgs,
		ProviderOverride: provider,
		ModelOverride:    model,
		APIKeyOverride:   apiKey,
	})

	fmt.Println(res.ReplyText)
	if verbose {
		fmt.Fprintf(os.Stderr, "provider=%s model=%s succeeded=%t\n", res.ProviderUsed, res.ModelUsed, res.Succeeded)
	}

	return nil
}

func runModels(cfgPath, envFile, provider string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g, err := openGateway(cfgPath, envFile, false)
	if err != nil {
		return err
	}

	if provider == "" {
		provider = g.Snapshot().DefaultProvider
	}

	for _, m := range g.ListAvailableModels(ctx, provider) {
		fmt.Println(m.Name)
	}

	return nil
}

func runTest(cfgPath, envFile, provider, apiKey, model string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g, err := openGateway(cfgPath, envFile, false)
	if err != nil {
		return err
	}

	if provider == "" {
		provider = g.Snapshot().DefaultProvider
	}

	res := g.TestConnection(ctx, provider, apiKey, model)
	fmt.Println(res.Message)

	if !res.Success {
		os.Exit(1)
	}

	return nil
}

func runUse(cfgPath, envFile, provider, apiKey, baseURL, model string) error {
	if provider == "" {
		return fmt.Errorf("-provider is required")
	}

	g, err := openGateway(cfgPath, envFile, false)
	if err != nil {
		return err
	}

	cfg, err := g.UpdateConfig(provider, gateway.ProviderSettings{
		APIKey:       apiKey,
		BaseURL:      baseURL,
		DefaultModel: model,
	})
	if err != nil {
		return err
	}

	fmt.Printf("default provider is now %s\n", cfg.DefaultProvider)

	return nil
}
