package main

import (
	"os"
	"zagweb-backend/cmd/zagweb-cli/commands"
	"zagweb-backend/lib/serviceutil"
	"zagweb-backend/lib/telemetry"
)

func main() {
	// Ctrl+C cancels any in-flight portal request.
	ctx := serviceutil.SignalContext()

	tel, err := telemetry.SetupFromEnv(ctx, "zagweb-cli")
	if err != nil && !os.IsNotExist(err) {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	defer tel.Shutdown(ctx)

	commands.ExecuteContext(ctx)
}
