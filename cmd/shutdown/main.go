// Command shutdown asks a running bot to stop through its control port.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/todobot/internal/netx"
)

func main() {
	addr := flag.String("m", "127.0.0.1:60001", "control address of the running bot")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := netx.SendShutdown(ctx, *addr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, "Is the bot running?")
		os.Exit(1)
	}
	fmt.Println("Shutdown signal sent to the bot.")
}
