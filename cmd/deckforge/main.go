package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"deckforge/internal/config"
	"deckforge/internal/convert"
	"deckforge/internal/generate"
	"deckforge/internal/logging"
	"deckforge/internal/merge"
	"deckforge/internal/render"
	"deckforge/internal/runner"
	"deckforge/internal/sink"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var version = "0.3.0"

var (
	// Global flags
	verbose    bool
	configPath string
	apiKey     string

	// Convert flags
	outPath            string
	gcsBucket          string
	gcsKeyPrefix       string
	modelName          string
	maxAttempts        int
	execTimeout        time.Duration
	saveBuilderScripts bool
	saveScreenshot     bool

	// Merge flags
	mergeOut string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "deckforge",
	Short: "deckforge - HTML slide to PowerPoint converter",
	Long: `deckforge converts HTML slides into PowerPoint decks.

It screenshots each HTML file in a headless browser, asks a multimodal
model to write a python-pptx builder script that reproduces the slide,
executes the script, and feeds any failure back to the model for repair
until an artifact is produced or the attempt budget runs out.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// convertCmd converts one or more HTML files to .pptx decks
var convertCmd = &cobra.Command{
	Use:   "convert [html-file...]",
	Short: "Convert HTML slide files to PowerPoint decks",
	Long: `Converts each HTML file to a .pptx deck.

By default the deck is written next to its source (slide_1.html becomes
slide_1.pptx). With --gcs-bucket the deck is uploaded to Google Cloud
Storage under a random object name instead.

Examples:
  deckforge convert slide_1.html
  deckforge convert slides/*.html --gcs-bucket my-decks --key-prefix q3/
  deckforge convert slide_1.html --out report.pptx --save-builder-scripts`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

// mergeCmd combines several decks into one
var mergeCmd = &cobra.Command{
	Use:   "merge [pptx-file...]",
	Short: "Merge several .pptx decks into one",
	Long: `Appends the slides of every deck after the first onto the first,
preserving argument order, and writes the combined deck to --out.

Example:
  deckforge merge slide_1.pptx slide_2.pptx slide_3.pptx --out deck.pptx`,
	Args: cobra.MinimumNArgs(2),
	RunE: runMerge,
}

// versionCmd prints the version
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the deckforge version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("deckforge %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: .deckforge/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Gemini API key (or set GEMINI_API_KEY env)")

	convertCmd.Flags().StringVarP(&outPath, "out", "o", "", "Output path (single input only; default: input name with .pptx)")
	convertCmd.Flags().StringVar(&gcsBucket, "gcs-bucket", "", "Upload decks to this GCS bucket instead of writing locally")
	convertCmd.Flags().StringVar(&gcsKeyPrefix, "key-prefix", "", "Object key prefix for GCS uploads")
	convertCmd.Flags().StringVar(&modelName, "model", "", "Gemini model to use")
	convertCmd.Flags().IntVar(&maxAttempts, "max-attempts", 0, "Generation attempt budget per slide")
	convertCmd.Flags().DurationVar(&execTimeout, "timeout", 0, "Builder script execution timeout")
	convertCmd.Flags().BoolVar(&saveBuilderScripts, "save-builder-scripts", false, "Keep every generated builder script next to the input")
	convertCmd.Flags().BoolVar(&saveScreenshot, "save-screenshot", false, "Keep the rendered screenshot next to the input")

	mergeCmd.Flags().StringVarP(&mergeOut, "out", "o", "merged.pptx", "Output path for the merged deck")

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig resolves the layered configuration: defaults, then file,
// then environment, then command-line flags.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = filepath.Join(".deckforge", "config.yaml")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if apiKey != "" {
		cfg.Gemini.APIKey = apiKey
	}
	if modelName != "" {
		cfg.Gemini.Model = modelName
	}
	if maxAttempts > 0 {
		cfg.Repair.MaxAttempts = maxAttempts
	}
	if execTimeout > 0 {
		cfg.Execution.Timeout = execTimeout.String()
	}
	if gcsBucket != "" {
		cfg.Upload.Bucket = gcsBucket
	}
	if gcsKeyPrefix != "" {
		cfg.Upload.KeyPrefix = gcsKeyPrefix
	}
	if saveBuilderScripts {
		cfg.Repair.SaveBuilderScripts = true
	}
	if saveScreenshot {
		cfg.Repair.SaveScreenshot = true
	}
	if verbose {
		cfg.Logging.Debug = true
	}
	return cfg, nil
}

// runConvert converts each HTML argument to a deck
func runConvert(cmd *cobra.Command, args []string) error {
	if outPath != "" && len(args) > 1 {
		return fmt.Errorf("--out accepts a single input file, got %d", len(args))
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		logger.Info("Received shutdown signal")
		cancel()
	}()

	log := logging.New(logging.Options{
		Dir:        cfg.Logging.Dir,
		Debug:      cfg.Logging.Debug,
		Level:      cfg.Logging.Level,
		Categories: cfg.Logging.Categories,
	})
	defer log.CloseAll()
	cliLog := log.Get(logging.CategoryCLI)

	gen, err := generate.NewClient(ctx, cfg.Gemini, log.Get(logging.CategoryGenerate))
	if err != nil {
		return err
	}
	logger.Info("Generator ready", zap.String("model", gen.ModelName()))

	capturer := render.NewCapturer(render.Config{
		ViewportWidth:  cfg.Render.ViewportWidth,
		ViewportHeight: cfg.Render.ViewportHeight,
		NavTimeout:     cfg.GetNavTimeout(),
		SettleDelay:    cfg.GetSettleDelay(),
		BrowserBin:     cfg.Render.BrowserBin,
	}, log.Get(logging.CategoryRender))
	defer capturer.Close()

	runCfg := runner.DefaultConfig()
	runCfg.DefaultTimeout = cfg.GetExecutionTimeout()
	runCfg.MaxOutputBytes = cfg.Execution.MaxOutputBytes
	if len(cfg.Execution.AllowedEnvVars) > 0 {
		runCfg.AllowedEnvironment = cfg.Execution.AllowedEnvVars
	}
	direct := runner.NewDirectRunner(runCfg, log.Get(logging.CategoryExecute))

	factory := func(htmlPath, artifactPath, workDir string) convert.Executor {
		return runner.NewBuilderExecutor(direct, cfg.Execution.PythonBinary,
			htmlPath, artifactPath, workDir, log.Get(logging.CategoryExecute))
	}

	dest, closeSink, err := buildSink(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeSink()

	session := convert.NewSession(capturer, gen, factory, dest, convert.Options{
		MaxAttempts:        cfg.Repair.MaxAttempts,
		SaveBuilderScripts: cfg.Repair.SaveBuilderScripts,
		SaveScreenshot:     cfg.Repair.SaveScreenshot,
	}, log)

	failures := 0
	for _, htmlPath := range args {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		result, err := session.Convert(ctx, htmlPath)
		if err != nil {
			failures++
			cliLog.Error("Conversion failed for %s: %v", htmlPath, err)
			logger.Error("Conversion failed",
				zap.String("input", htmlPath),
				zap.Error(err))
			fmt.Fprintf(os.Stderr, "FAILED %s: %v\n", htmlPath, err)
			continue
		}
		logger.Info("Conversion complete",
			zap.String("input", htmlPath),
			zap.String("output", result.Location),
			zap.Int("attempts", result.Attempts),
			zap.Int32("tokens", result.Usage.TotalTokens))
		fmt.Printf("%s -> %s (%d attempt(s), %d tokens)\n",
			htmlPath, result.Location, result.Attempts, result.Usage.TotalTokens)
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d conversion(s) failed", failures, len(args))
	}
	return nil
}

// buildSink selects local delivery or GCS upload based on config.
func buildSink(ctx context.Context, cfg *config.Config, log *logging.Log) (convert.Sink, func(), error) {
	if cfg.Upload.Bucket == "" {
		local := &sink.LocalSink{Dest: outPath, Log: log.Get(logging.CategorySink)}
		return local, func() {}, nil
	}
	gcs, err := sink.NewGCSSink(ctx, cfg.Upload.Bucket, cfg.Upload.KeyPrefix,
		cfg.Upload.CredentialsFile, log.Get(logging.CategorySink))
	if err != nil {
		return nil, nil, fmt.Errorf("GCS sink: %w", err)
	}
	return gcs, func() { _ = gcs.Close() }, nil
}

// runMerge merges the argument decks into one
func runMerge(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := logging.New(logging.Options{
		Dir:        cfg.Logging.Dir,
		Debug:      cfg.Logging.Debug,
		Level:      cfg.Logging.Level,
		Categories: cfg.Logging.Categories,
	})
	defer log.CloseAll()

	base, others := args[0], args[1:]
	if err := merge.Merge(base, others, mergeOut, log.Get(logging.CategoryMerge)); err != nil {
		return err
	}

	logger.Info("Merge complete",
		zap.String("output", mergeOut),
		zap.Int("decks", len(args)))
	fmt.Printf("Merged %d decks into %s\n", len(args), mergeOut)
	return nil
}
