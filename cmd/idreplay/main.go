// Command idreplay replays the fixed resource creation scenario and checks
// the ids it is handed.
//
// Usage:
//
//	idreplay [--backend vk] [--hal noop|vulkan] [--verbose]
//
// Settings may also come from GPUID_BACKEND, GPUID_HAL and GPUID_LOG_LEVEL,
// read from the environment or a .env file in the working directory.
// Flags take precedence.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
	"github.com/spf13/cobra"

	"github.com/gogpu/gpuid"
	"github.com/gogpu/gpuid/driver"
	"github.com/gogpu/gpuid/hub"
	"github.com/gogpu/gpuid/internal/scenario"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:   "idreplay",
		Short: "Replay the resource creation scenario and check the ids it yields.",
		Long: `idreplay acquires an adapter and device, creates layouts, pipelines, ` +
			`bind groups and a render pass in a fixed order, and compares every ` +
			`id handed out against the expected sequence. It prints End on success.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			return run(cmd, cfg)
		},
	}
	cmd.Flags().StringVar(&f.backend, "backend", "", "backend tag for allocated ids (vk, mtl, d3d12, gl, webgpu)")
	cmd.Flags().StringVar(&f.hal, "hal", "", "HAL implementation to drive (noop or vulkan)")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "print every id and log at debug level")
	return cmd
}

func provider(cfg config) (driver.Provider, error) {
	switch cfg.hal {
	case halNoop:
		return &noop.API{}, nil
	case halVulkan:
		hb, ok := hal.GetBackend(gputypes.BackendVulkan)
		if !ok {
			return nil, fmt.Errorf("vulkan HAL not registered")
		}
		return hb, nil
	}
	return nil, fmt.Errorf("unknown HAL %q", cfg.hal)
}

func run(cmd *cobra.Command, cfg config) error {
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.level}))
	gpuid.SetLogger(logger)
	defer gpuid.SetLogger(nil)

	p, err := provider(cfg)
	if err != nil {
		return err
	}
	g := driver.New(driver.WithName("idreplay"), driver.WithProvider(cfg.backend, p))
	defer g.Close()

	steps, err := scenario.Run(g, hub.New(), cfg.backend)
	out := cmd.OutOrStdout()
	if cfg.verbose {
		for _, s := range steps {
			fmt.Fprintln(out, s)
		}
	}
	if err != nil {
		return fmt.Errorf("replay on %s: %w", cfg.backend.Name(), err)
	}
	if err := scenario.Verify(steps, cfg.backend); err != nil {
		return err
	}
	fmt.Fprintln(out, "End")
	return nil
}
