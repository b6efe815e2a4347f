package main

import "github.com/Mohsinsiddi/donutxpress/cmd"

func main() {
	cmd.Execute()
}
