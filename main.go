package main

import "github.com/chrisdamba/dishrank/cmd"

func main() {
	cmd.Execute()
}
