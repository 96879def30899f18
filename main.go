package main

import "github.com/miespacioubb/miespacio/cmd"

func main() {
	cmd.Execute()
}
