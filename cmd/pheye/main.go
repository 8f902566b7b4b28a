package main

import (
	"pheye/cmd/handlers"
	"pheye/internal/logger"
)

func main() {
	logger.Init()
	handlers.Execute()
}
