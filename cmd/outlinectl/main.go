package main

import "github.com/dgallion1/outlinesync/cmd/outlinectl/cmd"

func main() {
	cmd.Execute()
}
