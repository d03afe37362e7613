// bridgelower adds bridge methods and devirtualizes statically bound calls
// in a class/method IR, so that overrides whose native representation
// differs from the signatures they override stay reachable through virtual
// dispatch.
//
// Modes:
//   - analyze: one-shot lowering of a JSON unit (--input) or of Go packages
//     (--packages); writes the lowered unit to stdout
//   - serve:   newline-delimited JSON request/response loop on stdin/stdout
package main

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/goguard/bridgelower/lower"
)

// Version is reported by the version command and keys cache entries.
const Version = "0.1.0"

// Request is one line of the serve protocol.
type Request struct {
	Command string          `json:"command"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response answers one Request.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// LowerParams are the params of the lower command.
type LowerParams struct {
	Unit json.RawMessage `json:"unit"`
}

// LowerGoParams are the params of the lower-go command.
type LowerGoParams struct {
	Dir      string   `json:"dir"`
	Patterns []string `json:"patterns"`
}

var rootCmd = &cobra.Command{
	Use:           "bridgelower",
	Short:         "bridgelower: bridge methods and call devirtualization for class IR",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// analyzeCmd lowers one unit and writes it to stdout. FlatBuffers output is
// framed as [4 bytes LE length][payload]; logs go to stderr.
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Lower one unit and emit it to stdout",
	RunE:  runAnalyze,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run JSON request/response loop on stdin/stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup(cmd)
		if err != nil {
			return err
		}
		return runServe(cmd.Context(), os.Stdin, os.Stdout, cfg, log)
	},
}

var (
	configFlag          string
	logLevelFlag        string
	inputFlag           string
	packagesFlag        []string
	dirFlag             string
	formatFlag          string
	cacheDirFlag        string
	maxCacheEntriesFlag int
	parallelismFlag     int
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Path to config file (default ./"+DefaultConfigFile+" if present)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().IntVar(&parallelismFlag, "parallelism", 0, "Classes lowered concurrently (0 = GOMAXPROCS)")

	analyzeCmd.Flags().StringVar(&inputFlag, "input", "", "JSON unit to lower (instead of Go packages)")
	analyzeCmd.Flags().StringSliceVar(&packagesFlag, "packages", []string{"./..."}, "Go package patterns to lower")
	analyzeCmd.Flags().StringVar(&dirFlag, "dir", ".", "Directory Go package patterns are resolved in")
	analyzeCmd.Flags().StringVar(&formatFlag, "format", "", "Output format: flatbuffers, json, text")
	analyzeCmd.Flags().StringVar(&cacheDirFlag, "cache-dir", "", "Directory for the output cache (empty = no cache)")
	analyzeCmd.Flags().IntVar(&maxCacheEntriesFlag, "max-cache-entries", 0, "Max cached entries before LRU eviction")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "bridgelower: %v\n", err)
		os.Exit(1)
	}
}

// setup loads the config and applies the flags that were set on cmd.
func setup(cmd *cobra.Command) (*Config, *slog.Logger, error) {
	cfg, err := LoadConfig(configFlag)
	if err != nil {
		return nil, nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevelFlag
	}
	if flags.Changed("parallelism") {
		cfg.Lowering.Parallelism = parallelismFlag
	}
	if flags.Changed("format") {
		cfg.Output.Format = formatFlag
	}
	if flags.Changed("cache-dir") {
		cfg.Cache.Dir = cacheDirFlag
	}
	if flags.Changed("max-cache-entries") {
		cfg.Cache.MaxEntries = maxCacheEntriesFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, newLogger(cfg.Log.Level), nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	if cfg.Output.Format == FormatFlatBuffers && isTerminal(os.Stdout) {
		return errors.New("refusing to write binary FlatBuffers to a terminal; redirect stdout or pass --format text")
	}

	src := Source{InputPath: inputFlag, Dir: dirFlag, Patterns: packagesFlag}
	payload, err := LowerWithCache(cmd.Context(), src, cfg, log)
	if err != nil {
		reportConsistency(log, err)
		return fmt.Errorf("lower: %w", err)
	}
	if cfg.Output.Format == FormatFlatBuffers {
		return writeFramed(os.Stdout, payload)
	}
	_, err = os.Stdout.Write(payload)
	return err
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// reportConsistency logs the class and method an internal error names.
func reportConsistency(log *slog.Logger, err error) {
	var ce *lower.ConsistencyError
	if errors.As(err, &ce) {
		log.Error("internal compiler error; please report it", "class", ce.Class, "method", ce.Method, "reason", ce.Reason)
	}
}

// writeFramed writes a length-prefixed payload: [4 bytes LE length][payload bytes].
func writeFramed(w io.Writer, payload []byte) error {
	lenBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(lenBuf, uint32(len(payload)))
	if _, err := w.Write(lenBuf); err != nil {
		return fmt.Errorf("write length prefix: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write payload: %w", err)
	}
	return nil
}

// runServe answers newline-delimited JSON requests until in is exhausted.
// Commands: ping, version, lower, lower-go.
func runServe(ctx context.Context, in io.Reader, out io.Writer, cfg *Config, log *slog.Logger) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)
	encoder := json.NewEncoder(out)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var resp Response
		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			resp = Response{Error: fmt.Sprintf("invalid request: %v", err)}
		} else {
			resp = handleRequest(ctx, req, cfg, log)
		}
		if err := encoder.Encode(resp); err != nil {
			return fmt.Errorf("writing response: %w", err)
		}
	}
	return scanner.Err()
}

func handleRequest(ctx context.Context, req Request, cfg *Config, log *slog.Logger) Response {
	switch req.Command {
	case "ping":
		return Response{Success: true, Data: map[string]string{
			"status":  "ok",
			"version": Version,
		}}

	case "version":
		return Response{Success: true, Data: map[string]string{
			"version": Version,
		}}

	case "lower":
		var params LowerParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return Response{Error: fmt.Sprintf("invalid lower params: %v", err)}
		}
		if len(params.Unit) == 0 {
			return Response{Error: "invalid lower params: missing unit"}
		}
		result, err := LowerJSON(ctx, params.Unit, cfg, log)
		if err != nil {
			reportConsistency(log, err)
			return Response{Error: fmt.Sprintf("lower error: %v", err)}
		}
		return Response{Success: true, Data: result}

	case "lower-go":
		var params LowerGoParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return Response{Error: fmt.Sprintf("invalid lower-go params: %v", err)}
		}
		if params.Dir == "" {
			params.Dir = "."
		}
		if len(params.Patterns) == 0 {
			params.Patterns = []string{"./..."}
		}
		result, err := LowerGo(ctx, params.Dir, params.Patterns, cfg, log)
		if err != nil {
			reportConsistency(log, err)
			return Response{Error: fmt.Sprintf("lower-go error: %v", err)}
		}
		return Response{Success: true, Data: result}
	}
	return Response{Error: fmt.Sprintf("unknown command: %s", req.Command)}
}
