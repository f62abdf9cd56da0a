package main

import (
	"os"

	"horse.fit/storydesk/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
