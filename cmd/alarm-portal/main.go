package main

import "github.com/oshokin/alarm-portal/cmd/alarm-portal/cmd"

func main() {
	cmd.Execute()
}
