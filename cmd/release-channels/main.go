package main

import "github.com/oshokin/release-channels/cmd/release-channels/cmd"

func main() {
	cmd.Execute()
}
