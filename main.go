package main

import "github.com/ShreerajShettyK/git_posts/server"

func main() {
	server.StartServer()
}
