package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/tendant/simple-flatblocks/pkg/flatblocks/admin"
	"github.com/tendant/simple-flatblocks/pkg/flatblocks/config"
	"github.com/tendant/simple-flatblocks/pkg/flatblocks/engine"
	"github.com/tendant/simple-flatblocks/pkg/flatblocks/fixtures"
)

const usage = `Flatblocks Admin CLI

Manage flatblocks, fixtures and site templates from the command line.

USAGE:
  flatblocks-admin <command> [arguments] [options]

COMMANDS:
  list                       List flatblocks ordered by slug
  count                      Count flatblocks
  get <slug>                 Show a single flatblock
  delete <slug>              Delete a flatblock
  import <file>              Upsert flatblocks from a .yaml/.yml/.json file
  export <file>              Write all flatblocks to a .yaml/.yml/.json file
  render <file>              Render a page file and print the output
  template-push <name> <file>
                             Upload a template to the configured site source
  migrate                    Apply database migrations

ENVIRONMENT VARIABLES:
  FLATBLOCKS_DATABASE_URL    PostgreSQL connection string (default: memory)
  FLATBLOCKS_DB_SCHEMA       PostgreSQL schema name (default: flatblocks)
  FLATBLOCKS_TEMPLATE_URL    embed://, memory://, file:///dir or s3://bucket/prefix
  FLATBLOCKS_CACHE_PREFIX    Cache key prefix (default: flatblocks_)

  Configuration can be loaded from a .env file in the current directory.
  Command line environment variables override .env file values.

EXAMPLES:
  flatblocks-admin list --search="contact help" --limit=10
  flatblocks-admin import fixtures/blocks.yaml
  flatblocks-admin render pages/home.html --page_title=Home
  flatblocks-admin template-push flatblocks/flatblock.html ./flatblock.html

OPTIONS:
  --search=<terms>           Search slug, header and content (list/count)
  --limit=<n>                Maximum results (list only, default: 100)
  --offset=<n>               Pagination offset (list only, default: 0)
  --json                     Output as JSON
  --<name>=<value>           Template variable (render only)
`

type options struct {
	search  string
	limit   int
	offset  int
	useJSON bool
	vars    map[string]any
	args    []string
}

func main() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Print(usage + "\n")
		os.Exit(1)
	}

	command := os.Args[1]

	if command == "help" || command == "--help" || command == "-h" {
		fmt.Print(usage + "\n")
		os.Exit(0)
	}

	opts := parseOptions(os.Args[2:])

	cfgOpts := []config.Option{config.WithEnv("FLATBLOCKS_")}
	if command == "migrate" {
		cfgOpts = append(cfgOpts, config.WithAutoMigrate(true))
	}
	cfg, err := config.Load(cfgOpts...)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	services, err := cfg.BuildServices(ctx)
	if err != nil {
		log.Fatalf("Failed to build services: %v", err)
	}
	defer services.Close()

	switch command {
	case "list":
		handleList(ctx, services.Admin, opts)
	case "count":
		handleCount(ctx, services.Admin, opts)
	case "get":
		handleGet(ctx, services.Admin, opts)
	case "delete":
		handleDelete(ctx, services.Admin, opts)
	case "import":
		handleImport(ctx, services.Admin, opts)
	case "export":
		handleExport(ctx, services.Admin, opts)
	case "render":
		handleRender(ctx, services.Engine, opts)
	case "template-push":
		handleTemplatePush(ctx, services, opts)
	case "migrate":
		if cfg.DatabaseType != "postgres" {
			fmt.Println("Nothing to migrate for the memory database")
			return
		}
		fmt.Printf("Migrations applied to schema %s\n", cfg.DBSchema)
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		fmt.Print(usage + "\n")
		os.Exit(1)
	}
}

func parseOptions(args []string) options {
	opts := options{limit: admin.DefaultLimit, vars: map[string]any{}}

	for _, arg := range args {
		if arg == "--json" {
			opts.useJSON = true
			continue
		}

		key, value := parseFlag(arg)
		switch key {
		case "":
			opts.args = append(opts.args, arg)
		case "search":
			opts.search = value
		case "limit":
			if n, err := strconv.Atoi(value); err == nil {
				opts.limit = n
			}
		case "offset":
			if n, err := strconv.Atoi(value); err == nil {
				opts.offset = n
			}
		default:
			opts.vars[key] = value
		}
	}

	return opts
}

func parseFlag(arg string) (string, string) {
	if !strings.HasPrefix(arg, "--") || len(arg) == 2 {
		return "", ""
	}
	key, value, found := strings.Cut(arg[2:], "=")
	if !found {
		return key, "true"
	}
	return key, value
}

func requireArgs(opts options, n int, what string) {
	if len(opts.args) < n {
		log.Fatalf("Missing argument: %s", what)
	}
}

func printJSON(v any) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}

func handleList(ctx context.Context, svc admin.Service, opts options) {
	resp, err := svc.List(ctx, admin.ListRequest{Search: opts.search, Limit: opts.limit, Offset: opts.offset})
	if err != nil {
		log.Fatalf("Failed to list flatblocks: %v", err)
	}

	if opts.useJSON {
		printJSON(resp)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "SLUG\tHEADER\tCONTENT\tUPDATED\n")
	for _, block := range resp.FlatBlocks {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			truncate(block.Slug, 30),
			truncate(orDash(block.Header), 25),
			truncate(oneLine(block.Content), 40),
			block.UpdatedAt.Format("2006-01-02 15:04:05"),
		)
	}
	w.Flush()

	fmt.Printf("\nShowing %d of %d", len(resp.FlatBlocks), resp.Total)
	if next := int64(resp.Offset + len(resp.FlatBlocks)); next < resp.Total {
		fmt.Printf(" (use --offset=%d to continue)", next)
	}
	fmt.Println()
}

func handleCount(ctx context.Context, svc admin.Service, opts options) {
	count, err := svc.Count(ctx, opts.search)
	if err != nil {
		log.Fatalf("Failed to count flatblocks: %v", err)
	}

	if opts.useJSON {
		printJSON(map[string]int64{"count": count})
		return
	}
	fmt.Printf("Total count: %d\n", count)
}

func handleGet(ctx context.Context, svc admin.Service, opts options) {
	requireArgs(opts, 1, "slug")

	block, err := svc.Get(ctx, opts.args[0])
	if err != nil {
		log.Fatalf("Failed to get flatblock: %v", err)
	}

	if opts.useJSON {
		printJSON(block)
		return
	}
	fmt.Printf("Slug:    %s\n", block.Slug)
	fmt.Printf("ID:      %s\n", block.ID)
	fmt.Printf("Header:  %s\n", orDash(block.Header))
	fmt.Printf("Updated: %s\n\n", block.UpdatedAt.Format("2006-01-02 15:04:05"))
	fmt.Println(block.Content)
}

func handleDelete(ctx context.Context, svc admin.Service, opts options) {
	requireArgs(opts, 1, "slug")

	if err := svc.Delete(ctx, opts.args[0]); err != nil {
		log.Fatalf("Failed to delete flatblock: %v", err)
	}
	fmt.Printf("Deleted %s\n", opts.args[0])
}

func handleImport(ctx context.Context, svc admin.Service, opts options) {
	requireArgs(opts, 1, "file")
	path := opts.args[0]

	format, err := fixtures.FormatFromPath(path)
	if err != nil {
		log.Fatalf("Failed to import: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", path, err)
	}
	defer f.Close()

	blocks, err := fixtures.Decode(f, format)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", path, err)
	}

	result, err := fixtures.Import(ctx, svc, blocks)
	if err != nil {
		log.Fatalf("Import stopped after %d created, %d updated: %v", result.Created, result.Updated, err)
	}
	fmt.Printf("Imported %d flatblocks (%d created, %d updated)\n", len(blocks), result.Created, result.Updated)
}

func handleExport(ctx context.Context, svc admin.Service, opts options) {
	requireArgs(opts, 1, "file")
	path := opts.args[0]

	format, err := fixtures.FormatFromPath(path)
	if err != nil {
		log.Fatalf("Failed to export: %v", err)
	}

	blocks, err := fixtures.Export(ctx, svc)
	if err != nil {
		log.Fatalf("Failed to export flatblocks: %v", err)
	}

	f, err := os.Create(path)
	if err != nil {
		log.Fatalf("Failed to create %s: %v", path, err)
	}
	defer f.Close()

	if err := fixtures.Encode(f, format, blocks); err != nil {
		log.Fatalf("Failed to write %s: %v", path, err)
	}
	fmt.Printf("Exported %d flatblocks to %s\n", len(blocks), path)
}

func handleRender(ctx context.Context, eng *engine.Library, opts options) {
	requireArgs(opts, 1, "file")
	path := opts.args[0]

	src, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", path, err)
	}

	tpl, err := eng.Compile(path, string(src))
	if err != nil {
		log.Fatalf("Failed to compile %s: %v", path, err)
	}

	out, err := tpl.Render(ctx, engine.Context(opts.vars))
	if err != nil {
		log.Fatalf("Failed to render %s: %v", path, err)
	}
	fmt.Print(out)
}

func handleTemplatePush(ctx context.Context, services *config.Services, opts options) {
	requireArgs(opts, 2, "template name and file")
	name, path := opts.args[0], opts.args[1]

	if services.TemplateStore == nil {
		log.Fatalf("Embedded templates are read-only; set FLATBLOCKS_TEMPLATE_URL to a file:// or s3:// source")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", path, err)
	}
	if err := services.TemplateStore.PutTemplate(ctx, name, data); err != nil {
		log.Fatalf("Failed to push template %s: %v", name, err)
	}
	fmt.Printf("Pushed %s (%d bytes)\n", name, len(data))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
