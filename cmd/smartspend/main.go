package main

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/smartspend/smartspend/internal/receipt"
	"github.com/smartspend/smartspend/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

// defaultModels is the Gemini fallback list, tried in order on every
// credential: newest first, stable alias second, then the backups.
var defaultModels = []string{
	"gemini-2.5-flash",
	"gemini-flash-latest",
	"gemini-2.0-flash-exp",
	"gemini-1.5-pro-latest",
}

// discoverGeminiKeys collects API keys from the environment: GEMINI_API_KEY
// plus the numbered GEMINI_KEY_1..GEMINI_KEY_49 rotation slots. Order is
// preserved; the dispatcher exhausts a key's models before moving on.
func discoverGeminiKeys() []string {
	var keys []string

	if key := strings.TrimSpace(os.Getenv("GEMINI_API_KEY")); len(key) >= 10 {
		keys = append(keys, key)
	}

	for i := 1; i < 50; i++ {
		key := strings.TrimSpace(os.Getenv(fmt.Sprintf("GEMINI_KEY_%d", i)))
		if len(key) >= 10 {
			keys = append(keys, key)
		}
	}

	return keys
}

// resolveModels picks the fallback list for the chosen backend. The Gemini
// list is user-configurable CSV; Ollama runs the single local model named by
// its own flag.
func resolveModels(backend, geminiModels, ollamaModel string) []string {
	if backend == "ollama" {
		return []string{strings.TrimSpace(ollamaModel)}
	}

	var list []string
	for _, m := range strings.Split(geminiModels, ",") {
		if m = strings.TrimSpace(m); m != "" {
			list = append(list, m)
		}
	}
	return list
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	// Credentials usually live in a .env next to the binary
	godotenv.Load()

	fs := ff.NewFlagSet("smartspend")
	var (
		port         = fs.IntLong("port", 8080, "HTTP server port")
		dbPath       = fs.StringLong("db", "smartspend.db", "Database file path")
		storagePath  = fs.StringLong("storage", "./uploads", "Upload storage directory path")
		historyPath  = fs.StringLong("history", "", "Legacy history document path (optional)")
		backend      = fs.StringLong("backend", "gemini", "Extraction backend: 'gemini' or 'ollama'")
		geminiModels = fs.StringLong("gemini-models", strings.Join(defaultModels, ","), "Comma-separated Gemini model fallback list")
		ollamaURL    = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel  = fs.StringLong("ollama-model", "llava:latest", "Ollama vision model")
		showVersion  = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("SMARTSPEND"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	modelList := resolveModels(*backend, *geminiModels, *ollamaModel)

	slog.Info("Initializing database...")
	db, err := receipt.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()

	var generators []scanning.Generator
	switch *backend {
	case "gemini":
		keys := discoverGeminiKeys()
		if len(keys) == 0 {
			slog.Error("No Gemini API keys configured. Set GEMINI_API_KEY or GEMINI_KEY_1..GEMINI_KEY_49 environment variables")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini backend...", "keys", len(keys), "models", len(modelList))
		generators, err = scanning.NewGeminiGenerators(ctx, keys)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
	case "ollama":
		slog.Info("Initializing Ollama backend...", "url", *ollamaURL, "models", len(modelList))
		ollama, err := scanning.NewOllama(*ollamaURL)
		if err != nil {
			slog.Error("Failed to initialize Ollama", "error", err)
			os.Exit(1)
		}
		generators = []scanning.Generator{ollama}
	default:
		slog.Error("Invalid backend", "backend", *backend, "valid", "gemini or ollama")
		os.Exit(1)
	}

	dispatcher, err := scanning.NewDispatcher(generators, modelList)
	if err != nil {
		slog.Error("Failed to initialize dispatcher", "error", err)
		os.Exit(1)
	}
	defer dispatcher.Close()

	slog.Info("Initializing storage...")
	store, err := receipt.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	service := receipt.NewService(db, dispatcher, store)
	if *historyPath != "" {
		service = service.WithHistory(receipt.NewHistoryFile(*historyPath))
	}

	server := receipt.NewServer(service)

	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
