package main

import "github.com/jsphweid/songreplay/cmd"

func main() {
	cmd.Execute()
}
