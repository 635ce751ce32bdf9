package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"

	"smartwaste/internal/config"
	"smartwaste/internal/helper"
	"smartwaste/internal/metrics"
	"smartwaste/internal/models"
	"smartwaste/internal/rag"
	"smartwaste/internal/web"
)

const (
	defaultConfigFilePath = "./configs/config.yaml"
	credentialEnv         = "OPENAI_API_KEY"
)

func main() {
	configFilePath := flag.String("config", defaultConfigFilePath, "Path to the config file")
	query := flag.String("query", "", "Question to ask about the project")
	serve := flag.Bool("serve", false, "Serve the dashboard web application")
	addr := flag.String("addr", "", "Listen address, overrides server.addr")
	asJSON := flag.Bool("json", false, "Print the -query response as JSON")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFilePath)
	if err != nil {
		setupLogger("info")
		log.Fatal().Err(err).Msg("Error loading config")
	}
	setupLogger(cfg.Log.Level)
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	log.Debug().
		Str("index", cfg.Index.Path).
		Str("collection", cfg.Index.Collection).
		Str("chat_model", cfg.ChatLLM.Model).
		Str("embedding_model", cfg.EmbedLLM.Model).
		Msg("Loaded config")

	if *serve && *query != "" {
		log.Fatal().Msg("Please provide either -serve or -query, but not both")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case *serve:
		if err := runServer(ctx, cfg); err != nil {
			log.Fatal().Err(err).Msg("Server error")
		}
	case *query != "":
		os.Exit(askQuestion(ctx, cfg, *query, *asJSON))
	default:
		log.Fatal().Msg("Please provide either -serve to run the web application or -query to ask a question")
	}
}

func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Caller().Logger()
}

func runServer(ctx context.Context, cfg *config.Config) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc := rag.New(cfg, metrics.New(reg))
	defer svc.Close()

	router, err := web.NewRouter(cfg, svc, reg)
	if err != nil {
		return fmt.Errorf("failed to build router: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("Serving SmartWaste")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info().Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// askQuestion runs one query from the command line and returns the exit code.
func askQuestion(ctx context.Context, cfg *config.Config, query string, asJSON bool) int {
	credential, err := readCredential()
	if err != nil {
		log.Error().Err(err).Msg("Error reading credential")
		return 1
	}

	svc := rag.New(cfg, nil)
	defer svc.Close()

	res := svc.Ask(ctx, credential, query)
	if res.Kind != rag.KindAnswer {
		fmt.Fprintln(os.Stderr, res.Message())
		return 1
	}

	if asJSON {
		if err := helper.PrettyPrint(os.Stdout, res.Response); err != nil {
			return 1
		}
		return 0
	}
	printResponse(res.Response)
	return 0
}

func printResponse(response *models.PromptResponse) {
	log.Info().Msg("Query: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", response.Query)

	log.Info().Msg("Source: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", response.Source)

	log.Info().Msg("Assistant: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", response.Content)
}

// readCredential takes the key from the environment, or prompts for it
// without echo when stdin is a terminal.
func readCredential() (string, error) {
	if v := os.Getenv(credentialEnv); v != "" {
		return v, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", nil
		}
		return strings.TrimSpace(line), nil
	}

	fmt.Fprint(os.Stderr, "Clave API de OpenAI: ")
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read credential: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}
