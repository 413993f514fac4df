package main

import "github.com/nextlevelbuilder/tetherlink/cmd"

func main() {
	cmd.Execute()
}
