package main

import "trackdesk/cmd"

func main() {
	cmd.Execute()
}
