package main

import "urnik-backend/cmd/urnikd/cmd"

func main() {
	cmd.Execute()
}
