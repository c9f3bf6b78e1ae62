package main

import "github.com/jcdickinson/scaladex/cmd"

func main() {
	cmd.Execute()
}
