package main

import (
	"log"
	"os"
	"prowl/cmd"
)

func main() {
	app := cmd.NewProwl()

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
