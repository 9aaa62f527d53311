package main

import (
	"context"

	"mimiecho/cmd/mimiecho/commands"
	"mimiecho/lib/telemetry"

	"github.com/joho/godotenv"
)

func main() {
	// no-op in CI, reads .env locally
	godotenv.Load()
	telemetry.InitSlog(false)
	telemetry.SetupFromEnv(context.Background(), "mimiecho")
	commands.ExecuteContext(context.Background())
}
