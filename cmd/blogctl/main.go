package main

import "github.com/VitaminP8/blog/cmd/blogctl/commands"

func main() {
	commands.Execute()
}
