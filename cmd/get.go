package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/jcdickinson/scaladex/internal/markdown"
	"github.com/jcdickinson/scaladex/internal/rpc"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <scaladoc://source/page[#anchor]>",
	Short: "Read a documentation entry by URI",
	Long: `Render an object, class, trait, package or member as markdown. Accepts the
URIs returned by search, or a page URL under docs.base_url together with
--source.`,
	Example: `  scaladex get 'scaladoc://mill/milltest/lib1/api1$.html'
  scaladex get 'scaladoc://mill/milltest/lib1/api1$.html#f1(v:Int):Int'
  scaladex get --source mill 'https://docs.example.com/api/milltest/lib1/api1$.html'
  scaladex get --html 'scaladoc://mill/milltest/lib1/index.html'`,
	Args: cobra.ExactArgs(1),
	Run:  runGet,
}

var (
	getSource string
	getHTML   bool
)

func init() {
	getCmd.Flags().StringVar(&getSource, "source", "", "source name, when passing a documentation URL")
	getCmd.Flags().BoolVar(&getHTML, "html", false, "render HTML instead of markdown")
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) {
	client, err := connectDaemon()
	if err != nil {
		log.Fatalf("failed to connect to daemon: %v", err)
	}

	resp, err := client.Get(context.Background(), rpc.GetRequest{URI: args[0], Source: getSource})
	if err != nil {
		log.Fatalf("get doc failed: %v", err)
	}

	if getHTML {
		fmt.Print(string(markdown.ToHTML(markdown.StripFrontMatter(resp.Markdown))))
		return
	}
	fmt.Print(resp.Markdown)
}
