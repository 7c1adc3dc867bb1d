package main

import (
	"github.com/spf13/cobra"
)

func main() {
	var root = &cobra.Command{Use: "tripweaver"}

	root.AddCommand(serveCMD(), mcpCMD())
	_ = root.Execute()
}
