package main

import "github.com/MeKo-Tech/landscape/internal/cmd"

func main() {
	cmd.Execute()
}
