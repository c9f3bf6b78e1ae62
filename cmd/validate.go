package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jcdickinson/scaladex/internal/docs"
	"github.com/jcdickinson/scaladex/internal/rpc"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <location|@source> ...",
	Short: "Check index files for structural problems",
	Long: `Parse and validate Scaladoc index.js files without importing them. Reports
unknown kinds, links outside their page, entries outside their package and
missing universal members. Exits non-zero if any index is invalid.`,
	Example: `  scaladex validate out/docs/index.js
  scaladex validate --json https://www.scala-lang.org/api/2.13.x/
  scaladex validate @mill`,
	Args: cobra.MinimumNArgs(1),
	Run:  runValidate,
}

var validateJSON bool

func init() {
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	f := localFetcher()

	var results []rpc.ValidateResult
	for _, arg := range args {
		idx, _, err := loadIndex(ctx, f, arg)
		if err != nil {
			results = append(results, rpc.ValidateResult{Location: arg, Error: err.Error()})
			continue
		}
		results = append(results, docs.CheckIndex(arg, idx))
	}

	for _, r := range results {
		if !r.Valid {
			exitCode = 1
		}
	}

	if validateJSON {
		out, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(out))
		return
	}

	for _, r := range results {
		switch {
		case r.Error != "":
			fmt.Printf("%s %s: %s\n", errColor.Sprint("error"), r.Location, r.Error)
		case !r.Valid:
			fmt.Printf("%s %s: %d problems\n", errColor.Sprint("invalid"), r.Location, len(r.Problems))
			for _, p := range r.Problems {
				fmt.Printf("  %s\n", warnColor.Sprint(p))
			}
		default:
			fmt.Printf("%s %s (%d packages, %d objects, %d members)\n",
				okColor.Sprint("ok"), r.Location, r.Packages, r.Objects, r.Members)
		}
	}
}
