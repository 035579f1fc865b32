package check

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/stratastor/lifeline/config"
	"github.com/stratastor/lifeline/pkg/monitor"
)

func NewCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Probe the application heartbeat once",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetConfig()
			timings, err := cfg.Timings()
			if err != nil {
				return err
			}

			prober := monitor.NewHeartbeatProber(cfg.HeartbeatURL(), timings.ProbeTimeout)
			start := time.Now()
			if err := prober.Probe(context.Background()); err != nil {
				fmt.Printf("Heartbeat failed: %s\n", prober.URL())
				return err
			}

			fmt.Printf("Heartbeat ok: %s (%s)\n", prober.URL(), time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
}
