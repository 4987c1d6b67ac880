// Package main provides the notechat CLI, which continues a chat kept in a
// markdown note: notechat [OPTIONS] <file> [model].
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := NewApp().Run(ctx, os.Args)
	stop()
	os.Exit(code)
}
