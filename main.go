package main

import "github.com/turbolytics/cleaner/internal/cmd"

func main() {
	cmd.Execute()
}
