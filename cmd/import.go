package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path"
	"strings"

	"github.com/jcdickinson/scaladex/internal/config"
	"github.com/jcdickinson/scaladex/internal/daemon"
	"github.com/jcdickinson/scaladex/internal/rpc"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import [name=]location ...",
	Short: "Import Scaladoc index.js files into the daemon",
	Long: `Fetch, parse, validate and store Scaladoc search indexes. A location is an
index.js file, a directory containing one, or an http(s) URL. Compressed
.zst files are accepted. When no name is given it is derived from the
location.`,
	Example: `  scaladex import mill=out/docs/index.js
  scaladex import scala=https://www.scala-lang.org/api/2.13.x/
  scaladex import --force ./target/scala-2.13/api`,
	Args: cobra.MinimumNArgs(1),
	Run:  runImport,
}

var importForce bool

func init() {
	importCmd.Flags().BoolVar(&importForce, "force", false, "re-import even if the index is unchanged")
}

// parseSourceArg splits "name=location". Without a name, one is derived from
// the last meaningful path segment of the location.
func parseSourceArg(arg string) rpc.SourceSpec {
	if name, loc, ok := strings.Cut(arg, "="); ok && name != "" && !strings.Contains(name, "/") {
		return rpc.SourceSpec{Name: name, Location: loc}
	}
	return rpc.SourceSpec{Name: deriveName(arg), Location: arg}
}

func deriveName(location string) string {
	p := location
	if i := strings.Index(p, "://"); i >= 0 {
		p = p[i+3:]
		if j := strings.Index(p, "/"); j >= 0 {
			p = p[j:]
		}
	}
	p = strings.TrimSuffix(p, ".zst")
	p = strings.TrimSuffix(p, "/")
	p = strings.TrimSuffix(p, "index.js")
	base := path.Base(strings.TrimSuffix(p, "/"))

	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	name := strings.TrimLeft(b.String(), ".-_")
	if name == "" {
		return "docs"
	}
	return name
}

func runImport(cmd *cobra.Command, args []string) {
	var specs []rpc.SourceSpec
	for _, arg := range args {
		specs = append(specs, parseSourceArg(arg))
	}

	client, err := connectDaemon()
	if err != nil {
		log.Fatalf("failed to connect to daemon: %v", err)
	}

	results, err := client.Import(context.Background(), rpc.ImportRequest{Sources: specs, Force: importForce}, func(msg string) {
		fmt.Printf("  %s\n", dimColor.Sprint(msg))
	})
	if err != nil {
		log.Fatalf("failed to import: %v", err)
	}

	failed := false
	for _, r := range results {
		switch {
		case r.Error != "":
			failed = true
			fmt.Printf("  %s: %s %s\n", r.Name, errColor.Sprint("error:"), r.Error)
		case r.Unchanged:
			fmt.Printf("  %s: unchanged (%d packages, %d objects, %d members)\n", r.Name, r.Packages, r.Objects, r.Members)
		default:
			fmt.Printf("  %s: %s %d packages, %d objects, %d members\n", r.Name, okColor.Sprint("imported"), r.Packages, r.Objects, r.Members)
			if r.Problems > 0 {
				fmt.Printf("    %s\n", warnColor.Sprintf("%d validation problems (run `scaladex validate` for details)", r.Problems))
			}
		}
	}
	if failed {
		exitCode = 1
	}
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search imported indexes",
	Long: `Search by name. Exact names rank first, then prefixes, substrings,
qualified-name matches and fuzzy matches. Filters: kind:<kind>,
pkg:<package> (includes subpackages), owner:<declaring type>.`,
	Example: `  scaladex search f1
  scaladex search --source mill "api kind:object"
  scaladex search "hash owner:scala.AnyRef" --limit 5`,
	Args: cobra.ExactArgs(1),
	Run:  runSearch,
}

var (
	searchSources []string
	searchLimit   int
	searchJSON    bool
)

func init() {
	searchCmd.Flags().StringSliceVar(&searchSources, "source", nil, "filter to specific sources (repeatable)")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "max results (default from config)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output as JSON")
}

func runSearch(cmd *cobra.Command, args []string) {
	client, err := connectDaemon()
	if err != nil {
		log.Fatalf("failed to connect to daemon: %v", err)
	}

	resp, err := client.Search(context.Background(), rpc.SearchRequest{
		Query:   args[0],
		Sources: searchSources,
		Limit:   searchLimit,
	})
	if err != nil {
		log.Fatalf("search failed: %v", err)
	}

	if searchJSON {
		out, _ := json.MarshalIndent(resp.Results, "", "  ")
		fmt.Println(string(out))
		return
	}

	if len(resp.Results) == 0 {
		fmt.Println("no results")
		return
	}

	for i, r := range resp.Results {
		fmt.Printf("%d. [%d] %s%s (%s) in %s, %s\n",
			i+1, r.Score, okColor.Sprint(r.Label), r.Tail, r.Kind, r.Object, r.Source)
		fmt.Printf("   %s\n", dimColor.Sprint(r.URI))
	}
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show imported sources and daemon state",
	Args:  cobra.NoArgs,
	Run:   runStatus,
}

var statusJSON bool

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")
}

func runStatus(cmd *cobra.Command, args []string) {
	client, err := connectDaemon()
	if err != nil {
		log.Fatalf("failed to connect to daemon: %v", err)
	}

	resp, err := client.Status(context.Background())
	if err != nil {
		log.Fatalf("status failed: %v", err)
	}

	if statusJSON {
		out, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Println(string(out))
		return
	}

	if len(resp.Sources) == 0 {
		fmt.Println("no sources imported")
		return
	}

	for _, s := range resp.Sources {
		if !s.Imported {
			fmt.Printf("  %s [%s] %s\n", s.Name, warnColor.Sprint("pending"), s.Location)
			continue
		}
		fmt.Printf("  %s [%s] %s\n", s.Name, okColor.Sprint("ready"), s.Location)
		fmt.Printf("    %d packages, %d objects, %d members, imported %s (%s)\n",
			s.Packages, s.Objects, s.Members, s.ImportedAt, s.Hash)
	}
	fmt.Printf("  %d decoded indexes cached\n", resp.Cached)
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the background daemon",
	Args:  cobra.NoArgs,
	Run:   runStop,
}

func runStop(cmd *cobra.Command, args []string) {
	client := daemon.NewClient(config.SocketPath())
	if !client.IsAvailable() {
		fmt.Println("daemon is not running")
		return
	}

	// Connection reset is expected: the daemon exits after responding
	client.Shutdown(context.Background())
	fmt.Println("daemon stopped")
}
