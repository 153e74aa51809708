package main

import "github.com/chrisdamba/opsboard/cmd"

func main() {
	cmd.Execute()
}
