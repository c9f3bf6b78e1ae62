package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"github.com/jcdickinson/scaladex/internal/index"
)

var diffCmd = &cobra.Command{
	Use:   "diff <old> <new>",
	Short: "Compare two indexes",
	Long: `Compare two indexes entity by entity and list the packages, objects and
members that were removed, added or changed. Members are matched by section,
label and link, and a change in any other field is listed with its old and new
value. A reordering alone is not a change. With --text a line diff of the indented
JSON form is printed instead. Exits 1 when the indexes differ.`,
	Example: `  scaladex diff @mill out/docs/index.js
  scaladex diff --text v1/index.js v2/index.js`,
	Args: cobra.ExactArgs(2),
	Run:  runDiff,
}

var diffText bool

func init() {
	diffCmd.Flags().BoolVar(&diffText, "text", false, "print a line diff of the indented JSON")
	rootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	f := localFetcher()

	a, _, err := loadIndex(ctx, f, args[0])
	if err != nil {
		log.Fatalf("failed to load %s: %v", args[0], err)
	}
	b, _, err := loadIndex(ctx, f, args[1])
	if err != nil {
		log.Fatalf("failed to load %s: %v", args[1], err)
	}

	if index.Equal(a, b) {
		return
	}
	exitCode = 1

	if diffText {
		printTextDiff(a, b)
		return
	}

	changes := index.Diff(a, b)
	if len(changes) == 0 {
		fmt.Println("same entries, different order or repeated entries")
		return
	}
	for _, c := range changes {
		switch c.Op {
		case index.Added:
			fmt.Println(addColor.Sprint(c.String()))
		case index.Changed:
			fmt.Println(warnColor.Sprint(c.String()))
		default:
			fmt.Println(delColor.Sprint(c.String()))
		}
	}
}

func printTextDiff(a, b *index.PackageIndex) {
	ta, err := index.MarshalIndent(a)
	if err != nil {
		log.Fatalf("failed to encode: %v", err)
	}
	tb, err := index.MarshalIndent(b)
	if err != nil {
		log.Fatalf("failed to encode: %v", err)
	}

	dmp := diffmatchpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(string(ta), string(tb))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), lines)

	for _, d := range diffs {
		prefix, c := " ", dimColor
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix, c = "+", addColor
		case diffmatchpatch.DiffDelete:
			prefix, c = "-", delColor
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			fmt.Print(c.Sprint(prefix + line))
		}
	}
}
