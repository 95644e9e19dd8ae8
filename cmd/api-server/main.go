// Command api-server serves the MarketBarrio storefront API.
package main

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	mbapp "github.com/xenking/marketbarrio/internal/app"
)

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, m *app.Telemetry) error {
		cfg, err := mbapp.LoadConfig()
		if err != nil {
			return errors.Wrap(err, "config")
		}
		return mbapp.Run(ctx, lg, m, cfg)
	})
}
