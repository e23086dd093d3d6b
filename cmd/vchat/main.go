package main

import "github.com/ZanzyTHEbar/vchat/vchat/cli"

func main() {
	cli.Execute()
}
