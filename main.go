/*
main.go

Copyright © 2025 Code Monkey Cybersecurity
Contact: git@cybermonkey.net.au

This file is part of salt-plugin.

This software is dual-licensed under the Do No Harm License
and the GNU Affero General Public License v3 (AGPL-3.0-or-later).
You may use, modify, and distribute it under the terms of either license.

See LICENSE.agpl and LICENSE.dnh for full details.
*/
package main

import (
	"context"
	"os"
	"time"

	"github.com/CodeMonkeyCybersecurity/salt-plugin/cmd"
	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/logger"
	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/plugin_err"
	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/telemetry"
	"go.uber.org/zap"
)

func main() {
	logger.InitializeWithFallback("")
	if err := telemetry.Init("salt-plugin"); err != nil {
		logger.L().Warn("Telemetry disabled", zap.Error(err))
	}

	err := cmd.Execute()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if serr := telemetry.Shutdown(ctx); serr != nil {
		logger.L().Debug("Telemetry shutdown failed", zap.Error(serr))
	}
	cancel()
	logger.Sync()

	os.Exit(plugin_err.GetExitCode(err))
}
