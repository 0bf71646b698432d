package main

import (
	"flag"
	"strings"

	"go.uber.org/fx"

	"github.com/joshuarp/idempotency-api/internal/app"
)

var defaultBin string

func selectedModules(binValue string) []fx.Option {
	switch strings.TrimSpace(strings.ToLower(binValue)) {
	case app.BinAuth:
		return []fx.Option{
			app.AuthModule(),
		}
	case app.BinIdempotency:
		return []fx.Option{
			app.IdempotencyModule(),
		}
	default:
		return []fx.Option{
			app.AuthModule(),
			app.IdempotencyModule(),
		}
	}
}

func main() {
	bin := flag.String("bin", defaultBin, "select module binary: auth|idempotency (default: all)")
	flag.Parse()

	app.New(*bin, selectedModules(*bin)...).Run()
}
