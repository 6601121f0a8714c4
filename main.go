package main

import "github.com/MyCarrier-DevOps/go-valhalla/cmd"

func main() {
	cmd.Execute()
}
