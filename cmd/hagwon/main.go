package main

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jwchung/hagwon/internal/clock"
	"github.com/jwchung/hagwon/internal/handler"
	appI18n "github.com/jwchung/hagwon/internal/i18n"
	"github.com/jwchung/hagwon/internal/model"
	"github.com/jwchung/hagwon/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "hagwon",
		Short: "Homework assessment and compliance engine for tutoring classes",
	}

	serve := serveCmd()
	root.AddCommand(serve, reportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `hagwon --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP submission server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "hagwon.db", "SQLite database path")
	f.StringSliceP("keys", "k", nil, "Paths to answer-key JSON files (repeatable)")
	f.Int("cutover-hour", clock.DefaultCutoverHour, "Local hour at which a new homework day begins")
	f.Int("utc-offset", clock.DefaultOffsetHours, "Fixed regional UTC offset in hours")
	f.StringP("lang", "l", "en", "Message language (en, ko)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Export a student compliance report as JSON",
		RunE:  runReport,
	}
	f := cmd.Flags()
	f.String("db", "hagwon.db", "SQLite database path")
	f.Int64("student", 0, "Student ID (required)")
	f.String("category", "", "Assessment category (required)")
	f.String("from", "", "Range start in YYYY-MM-DD format (required)")
	f.String("to", "", "Range end in YYYY-MM-DD format (required)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")

	_ = cmd.MarkFlagRequired("student")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("HAGWON")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("hagwon")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/hagwon")
	v.AddConfigPath("/etc/hagwon")
	v.AddConfigPath("/data")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := loadKeys(db, v.GetStringSlice("keys")); err != nil {
		return fmt.Errorf("load answer keys: %w", err)
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	clk := clock.New(v.GetInt("cutover-hour"), v.GetInt("utc-offset"))

	h := handler.New(db, clk)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"cutover_hour", v.GetInt("cutover-hour"),
		"utc_offset", v.GetInt("utc-offset"),
		"lang", lang,
	)
	return http.ListenAndServe(addr, r)
}

func runReport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	category, err := model.ParseCategory(v.GetString("category"))
	if err != nil {
		return err
	}

	report, err := db.BuildStudentReport(
		v.GetInt64("student"), category, v.GetString("from"), v.GetString("to"),
	)
	if err != nil {
		return fmt.Errorf("build report: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)

	return nil
}

// loadKeys imports answer-key JSON files at startup. Files already imported
// are skipped by content hash; files edited since their import are skipped
// with a warning, since re-importing would change how existing attempts
// would grade.
func loadKeys(db *store.Store, paths []string) error {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		hash := sha256sum(data)
		storedHash, err := db.GetImportedFileHash(path)
		if err != nil {
			return fmt.Errorf("check import status for %s: %w", path, err)
		}

		if storedHash == hash {
			slog.Info("key file unchanged, skipping", "path", path)
			continue
		}
		if storedHash != "" {
			slog.Warn("key file changed since last import, skipping to avoid re-scoring existing attempts",
				"path", path)
			continue
		}

		var imports []model.KeyImport
		if err := json.Unmarshal(data, &imports); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}

		for _, ki := range imports {
			key := model.AnswerKey{
				Category:     ki.Category,
				TargetID:     ki.TargetID,
				Answers:      ki.Answers,
				BonusIndices: ki.BonusIndices,
			}
			if err := key.Validate(); err != nil {
				return fmt.Errorf("invalid key in %s: %w", path, err)
			}
			if _, err := db.CreateAnswerKey(key); err != nil {
				return fmt.Errorf("insert key from %s: %w", path, err)
			}
		}

		if err := db.SetImportedFileHash(path, hash); err != nil {
			return fmt.Errorf("record import for %s: %w", path, err)
		}
		slog.Info("imported answer keys", "path", path, "count", len(imports))
	}

	return nil
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
