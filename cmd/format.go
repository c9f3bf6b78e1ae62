package cmd

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/jcdickinson/scaladex/internal/docs"
	"github.com/jcdickinson/scaladex/internal/index"
	"github.com/spf13/cobra"
)

var fmtCmd = &cobra.Command{
	Use:   "fmt <location|@source>",
	Short: "Re-encode an index in Scaladoc's exact layout",
	Long: `Parse an index and write it back out byte-for-byte in the layout Scaladoc
emits. With --json the bare mapping is written indented, which is handy for
reading and diffing; it parses back to the same index.`,
	Example: `  scaladex fmt out/docs/index.js
  scaladex fmt --json @mill | less
  scaladex fmt --check out/docs/index.js
  scaladex fmt -w edited/index.js`,
	Args: cobra.ExactArgs(1),
	Run:  runFmt,
}

var (
	fmtJSON  bool
	fmtWrite bool
	fmtCheck bool
)

func init() {
	fmtCmd.Flags().BoolVar(&fmtJSON, "json", false, "write indented JSON instead of index.js")
	fmtCmd.Flags().BoolVarP(&fmtWrite, "write", "w", false, "write result to the source file instead of stdout")
	fmtCmd.Flags().BoolVar(&fmtCheck, "check", false, "exit non-zero if the file is not already formatted")
	rootCmd.AddCommand(fmtCmd)
}

func runFmt(cmd *cobra.Command, args []string) {
	arg := args[0]
	idx, data, err := loadIndex(context.Background(), localFetcher(), arg)
	if err != nil {
		log.Fatalf("failed to load %s: %v", arg, err)
	}

	out, err := formatIndex(idx, fmtJSON)
	if err != nil {
		log.Fatalf("failed to encode: %v", err)
	}

	switch {
	case fmtCheck:
		if !bytes.Equal(out, data) {
			fmt.Printf("%s %s\n", warnColor.Sprint("unformatted"), arg)
			exitCode = 1
		}
	case fmtWrite:
		if strings.HasPrefix(arg, "@") || docs.IsRemote(arg) || strings.HasSuffix(arg, ".zst") {
			log.Fatalf("--write needs a plain local file, not %s", arg)
		}
		info, err := os.Stat(arg)
		if err != nil {
			log.Fatalf("failed to stat %s: %v", arg, err)
		}
		if info.IsDir() {
			log.Fatalf("--write needs a file, %s is a directory", arg)
		}
		if bytes.Equal(out, data) {
			return
		}
		if err := os.WriteFile(arg, out, info.Mode().Perm()); err != nil {
			log.Fatalf("failed to write %s: %v", arg, err)
		}
	default:
		os.Stdout.Write(out)
	}
}

// formatIndex encodes idx as index.js, or as indented JSON ending in a single
// newline.
func formatIndex(idx *index.PackageIndex, asJSON bool) ([]byte, error) {
	if asJSON {
		return index.MarshalIndent(idx)
	}
	return index.Marshal(idx)
}
