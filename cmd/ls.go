package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/jcdickinson/scaladex/internal/index"
)

var lsCmd = &cobra.Command{
	Use:   "ls <location|@source> [package|object]",
	Short: "List the packages, objects or members of an index",
	Example: `  scaladex ls out/docs/index.js
  scaladex ls @mill milltest.lib1
  scaladex ls @mill milltest.lib1.api1 --inherited`,
	Args: cobra.RangeArgs(1, 2),
	Run:  runLs,
}

var lsInherited bool

func init() {
	lsCmd.Flags().BoolVar(&lsInherited, "inherited", false, "include members inherited from Any and AnyRef")
	rootCmd.AddCommand(lsCmd)
}

func runLs(cmd *cobra.Command, args []string) {
	idx, _, err := loadIndex(context.Background(), localFetcher(), args[0])
	if err != nil {
		log.Fatalf("failed to load %s: %v", args[0], err)
	}

	if len(args) == 1 {
		for _, p := range idx.Packages() {
			fmt.Printf("%s %s\n", p.Name, dimColor.Sprintf("(%d objects)", len(p.Objects)))
		}
		return
	}

	name := args[1]
	if objs, err := idx.Package(name); err == nil {
		for i := range objs {
			o := &objs[i]
			fmt.Printf("%-6s %s %s\n", o.Kind, o.Name, dimColor.Sprintf("(%d members)", len(o.AllMembers())))
		}
		return
	}

	o, _, err := idx.Object(name)
	if errors.Is(err, index.ErrNotFound) {
		log.Fatalf("no package or object named %s", name)
	} else if err != nil {
		log.Fatalf("looking up %s: %v", name, err)
	}
	for _, s := range o.Sections() {
		fmt.Printf("%s %s\n", okColor.Sprint(s.Name), dimColor.Sprint(s.Page))
		declared, inherited := index.SplitInherited(s.Members)
		for _, m := range declared {
			fmt.Printf("  %-6s %s%s\n", m.Kind, m.Label, m.Tail)
		}
		if !lsInherited {
			if len(inherited) > 0 {
				fmt.Printf("  %s\n", dimColor.Sprintf("(%d inherited, use --inherited)", len(inherited)))
			}
			continue
		}
		for _, m := range inherited {
			fmt.Printf("  %-6s %s%s %s\n", m.Kind, m.Label, m.Tail, dimColor.Sprint("from "+m.Owner()))
		}
	}
}
