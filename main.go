package main

import "restaurant-service/commands"

func main() {
	commands.Execute()
}
