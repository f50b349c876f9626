// Command todocli runs the bot with a console chat on stdin. Replies and
// delivered reminders are printed to stdout; logs go to stderr.
package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/todobot/internal/app"
	"github.com/dmitrijs2005/todobot/internal/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	user := os.Getenv("TODOBOT_USER")
	if user == "" {
		user = os.Getenv("USER")
	}
	if user == "" {
		user = "me"
	}

	a, err := app.NewApp(ctx, cfg, app.WithConsole(os.Stdout), app.WithLogOutput(os.Stderr))
	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	a.RunConsole(ctx, os.Stdin, user)

}
