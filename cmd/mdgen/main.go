package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mmrzaf/mdgen/internal/app"
	"github.com/mmrzaf/mdgen/internal/awk"
	"github.com/mmrzaf/mdgen/internal/config"
	"github.com/mmrzaf/mdgen/internal/domain"
	"github.com/mmrzaf/mdgen/internal/exec"
	"github.com/mmrzaf/mdgen/internal/infra/repos/requests"
	"github.com/mmrzaf/mdgen/internal/infra/repos/users"
	"github.com/mmrzaf/mdgen/internal/logging"
	"github.com/mmrzaf/mdgen/internal/registry"
)

var (
	cfg          *config.Config
	awkTablePath string
	requestsDir  string
	outputDir    string
	logLevel     string
	usersBackend string
	usersDBPath  string
)

func main() {
	cfg = config.Load()

	rootCmd := &cobra.Command{
		Use:          "mdgen",
		Short:        "Mock data generator: synthesizes awk commands that write CSV files",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&awkTablePath, "awk-table", cfg.AWKTablePath, "awk generator table (JSON or YAML); empty uses the built-in table")
	rootCmd.PersistentFlags().StringVar(&requestsDir, "requests-dir", cfg.RequestsDir, "Saved requests directory")
	rootCmd.PersistentFlags().StringVar(&outputDir, "output-dir", cfg.OutputDir, "Directory generated files are written to")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", cfg.LogLevel, "Log level")
	rootCmd.PersistentFlags().StringVar(&usersBackend, "users-backend", cfg.UsersBackend, "Users store: sqlite, postgres or mongo")
	rootCmd.PersistentFlags().StringVar(&usersDBPath, "users-db", cfg.UsersDBPath, "SQLite users database path")

	rootCmd.AddCommand(commandCmd())
	rootCmd.AddCommand(typesCmd())
	rootCmd.AddCommand(sampleCmd())
	rootCmd.AddCommand(requestCmd())
	rootCmd.AddCommand(userCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// newLogger writes to stderr so stdout carries only command output.
func newLogger() *logging.Logger {
	return logging.NewLoggerWithWriter(logLevel, os.Stderr)
}

func openUsers(ctx context.Context, logger *logging.Logger) (*app.UserRegistry, func(), error) {
	repo, err := users.Open(ctx, users.Options{
		Backend:         usersBackend,
		SQLitePath:      usersDBPath,
		PostgresDSN:     cfg.UsersDSN,
		MongoURI:        cfg.MongoURI,
		MongoDatabase:   cfg.MongoDatabase,
		MongoCollection: cfg.MongoCollection,
	})
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() { _ = repo.Close(context.Background()) }
	return app.NewUserRegistry(repo, logger), closeFn, nil
}

func newService(userRegistry *app.UserRegistry, logger *logging.Logger) (*app.GenerationService, error) {
	table, err := awk.LoadTable(awkTablePath)
	if err != nil {
		return nil, err
	}
	return app.NewGenerationService(
		requests.NewFileRepository(requestsDir),
		userRegistry,
		awk.NewSynthesizer(table),
		exec.NewSampler(registry.DefaultGeneratorRegistry(), table),
		outputDir,
		logger,
	)
}

// requestFlags are shared by the commands that take a generation request
// either from a saved file or from --header flags.
type requestFlags struct {
	request   string
	headers   []string
	rows      int64
	file      string
	precision int
}

func (f *requestFlags) register(cmd *cobra.Command, defaultRows int64) {
	cmd.Flags().StringVarP(&f.request, "request", "r", "", "Saved request id/name, or path to a request file")
	cmd.Flags().StringSliceVarP(&f.headers, "header", "H", nil, "Column as name[:tag]; repeat for more columns")
	cmd.Flags().Int64Var(&f.rows, "rows", defaultRows, "Row count")
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "Output filename (defaults to <request hash>.csv)")
	cmd.Flags().IntVarP(&f.precision, "precision", "p", 0, "Decimal places for numbers")
}

// resolve returns the request named by --request or assembled from --header,
// with any explicitly set flags applied on top.
func (f *requestFlags) resolve(cmd *cobra.Command, repo requests.Repository) (*domain.GenerationRequest, error) {
	var req *domain.GenerationRequest
	switch {
	case f.request != "" && len(f.headers) > 0:
		return nil, fmt.Errorf("--request and --header are mutually exclusive")
	case f.request != "":
		var err error
		if looksLikePath(f.request) {
			req, err = requests.LoadFile(f.request)
		} else {
			req, err = repo.Get(f.request)
		}
		if err != nil {
			return nil, err
		}
	case len(f.headers) > 0:
		headers, types, err := parseHeaderSpecs(f.headers)
		if err != nil {
			return nil, err
		}
		req = &domain.GenerationRequest{Headers: headers, Types: types, Rows: f.rows}
	default:
		return nil, fmt.Errorf("either --request or --header is required")
	}

	if cmd.Flags().Changed("rows") {
		req.Rows = f.rows
	}
	if cmd.Flags().Changed("file") {
		req.Filename = f.file
	}
	if cmd.Flags().Changed("precision") {
		p := f.precision
		req.Precision = &p
	}
	return req, nil
}

func looksLikePath(s string) bool {
	if filepath.Base(s) != s {
		return true
	}
	switch filepath.Ext(s) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// parseHeaderSpecs turns ["id:row_id", "note"] into ordered headers and a
// type map. A header without a tag is passed through.
func parseHeaderSpecs(specs []string) ([]string, map[string]string, error) {
	headers := make([]string, 0, len(specs))
	types := make(map[string]string)
	for _, spec := range specs {
		name, tag, hasTag := strings.Cut(spec, ":")
		name = strings.TrimSpace(name)
		tag = strings.TrimSpace(tag)
		if name == "" {
			return nil, nil, fmt.Errorf("invalid header spec %q", spec)
		}
		if hasTag && tag == "" {
			return nil, nil, fmt.Errorf("invalid header spec %q: empty tag", spec)
		}
		if prev, ok := types[name]; ok && hasTag && prev != tag {
			return nil, nil, fmt.Errorf("header %q given conflicting tags %q and %q", name, prev, tag)
		}
		headers = append(headers, name)
		if hasTag {
			types[name] = tag
		}
	}
	return headers, types, nil
}

func printJSON(v any) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}

func commandCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "command",
		Short: "Synthesize generation commands",
	}

	var (
		token  string
		format string
		flags  requestFlags
	)

	buildCmd := &cobra.Command{
		Use:   "build",
		Short: "Build the awk command for a request (requires a verified token)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := newLogger()
			defer logger.Sync()

			userRegistry, closeUsers, err := openUsers(ctx, logger)
			if err != nil {
				return err
			}
			defer closeUsers()
			svc, err := newService(userRegistry, logger)
			if err != nil {
				return err
			}

			req, err := flags.resolve(cmd, svc.Requests())
			if err != nil {
				return err
			}
			res, err := svc.BuildCommand(ctx, token, &domain.CommandRequest{Request: req})
			if err != nil {
				return err
			}

			if format == "json" {
				printJSON(res)
				return nil
			}
			fmt.Println(res.Command)
			return nil
		},
	}
	buildCmd.Flags().StringVarP(&token, "token", "t", os.Getenv("MDGEN_TOKEN"), "Access token (defaults to $MDGEN_TOKEN)")
	buildCmd.Flags().StringVar(&format, "format", "text", "Output format (text|json)")
	flags.register(buildCmd, 100)

	cmd.AddCommand(buildCmd)
	return cmd
}

func typesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "types",
		Short: "Inspect data-type tags",
	}

	var format string

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List known data-type tags and their awk expressions",
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := awk.LoadTable(awkTablePath)
			if err != nil {
				return err
			}

			if format == "json" {
				out := make(map[string]string)
				for _, tag := range table.Tags() {
					out[tag], _ = table.Expression(tag)
				}
				printJSON(out)
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TAG\tEXPRESSION")
			for _, tag := range table.Tags() {
				expr, _ := table.Expression(tag)
				if len(expr) > 60 {
					expr = expr[:57] + "..."
				}
				fmt.Fprintf(w, "%s\t%s\n", tag, expr)
			}
			w.Flush()
			return nil
		},
	}
	listCmd.Flags().StringVar(&format, "format", "table", "Output format (table|json)")

	cmd.AddCommand(listCmd)
	return cmd
}

func sampleCmd() *cobra.Command {
	var (
		flags  requestFlags
		seed   int64
		format string
	)

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Preview rows for a request without running awk",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService(nil, newLogger())
			if err != nil {
				return err
			}
			req, err := flags.resolve(cmd, svc.Requests())
			if err != nil {
				return err
			}
			res, err := svc.Sample(req, flags.rows, seed)
			if err != nil {
				return err
			}

			switch format {
			case "json":
				printJSON(res)
				return nil
			case "csv":
				return exec.WriteCSV(os.Stdout, res)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, strings.Join(res.Headers, "\t"))
			for _, row := range res.Rows {
				fmt.Fprintln(w, strings.Join(row, "\t"))
			}
			w.Flush()
			return nil
		},
	}
	flags.register(cmd, 10)
	cmd.Flags().Int64VarP(&seed, "seed", "s", 1, "Seed for RNG")
	cmd.Flags().StringVar(&format, "format", "table", "Output format (table|csv|json)")
	return cmd
}

func requestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "request",
		Short: "Manage saved requests",
	}

	var format string

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List saved requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := requests.NewFileRepository(requestsDir).List()
			if err != nil {
				return err
			}

			if format == "json" {
				printJSON(list)
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCOLUMNS\tROWS\tFILE")
			for _, r := range list {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", r.ID, r.Name, len(r.Headers), r.Rows, r.Filename)
			}
			w.Flush()
			return nil
		},
	}
	listCmd.Flags().StringVar(&format, "format", "table", "Output format (table|json)")

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a saved request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := requests.NewFileRepository(requestsDir).Get(args[0])
			if err != nil {
				return err
			}

			data, _ := yaml.Marshal(req)
			fmt.Print(string(data))
			return nil
		},
	}

	cmd.AddCommand(listCmd, showCmd)
	return cmd
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users and access tokens",
	}

	var token string

	// withRegistry opens the users store for the duration of fn.
	withRegistry := func(cmd *cobra.Command, fn func(context.Context, *app.UserRegistry) error) error {
		logger := newLogger()
		defer logger.Sync()
		reg, closeUsers, err := openUsers(cmd.Context(), logger)
		if err != nil {
			return err
		}
		defer closeUsers()
		return fn(cmd.Context(), reg)
	}

	createCmd := &cobra.Command{
		Use:   "create <email>",
		Short: "Register an email (or fetch its token) and print the access token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRegistry(cmd, func(ctx context.Context, reg *app.UserRegistry) error {
				t, err := reg.IdentifyOrCreate(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Println(t)
				return nil
			})
		},
	}

	var userID string

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the user behind a token, or by --id",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRegistry(cmd, func(ctx context.Context, reg *app.UserRegistry) error {
				var (
					user *domain.User
					err  error
				)
				if userID != "" {
					user, err = reg.LookupID(ctx, userID)
				} else {
					user, err = reg.Lookup(ctx, token)
				}
				if err != nil {
					return err
				}
				data, _ := yaml.Marshal(user)
				fmt.Print(string(data))
				return nil
			})
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Report whether a token belongs to a verified user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRegistry(cmd, func(ctx context.Context, reg *app.UserRegistry) error {
				ok, err := reg.IsVerified(ctx, token)
				if err != nil {
					return err
				}
				if ok {
					fmt.Println("verified")
				} else {
					fmt.Println("not verified")
				}
				return nil
			})
		},
	}

	verifyCmd := &cobra.Command{
		Use:   "verify <token>",
		Short: "Mark the user behind a token as verified",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRegistry(cmd, func(ctx context.Context, reg *app.UserRegistry) error {
				if err := reg.MarkVerified(ctx, args[0]); err != nil {
					return err
				}
				fmt.Println("verified")
				return nil
			})
		},
	}

	rotateCmd := &cobra.Command{
		Use:   "rotate",
		Short: "Replace a token; the old one stops working",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRegistry(cmd, func(ctx context.Context, reg *app.UserRegistry) error {
				next, err := reg.RotateToken(ctx, token)
				if err != nil {
					return err
				}
				fmt.Println(next)
				return nil
			})
		},
	}

	for _, c := range []*cobra.Command{showCmd, statusCmd, rotateCmd} {
		c.Flags().StringVarP(&token, "token", "t", os.Getenv("MDGEN_TOKEN"), "Access token (defaults to $MDGEN_TOKEN)")
	}

	showCmd.Flags().StringVar(&userID, "id", "", "Look the user up by record id instead of token")

	cmd.AddCommand(createCmd, showCmd, statusCmd, verifyCmd, rotateCmd)
	return cmd
}
