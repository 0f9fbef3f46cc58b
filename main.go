package main

import "github.com/fakeyudi/autocommit/cmd"

func main() {
	cmd.Execute()
}
