package main

import (
	"context"

	"github.com/ZebulonRouseFrantzich/exinstall/internal/platform"
	"github.com/ZebulonRouseFrantzich/exinstall/internal/prompt"
	"github.com/ZebulonRouseFrantzich/exinstall/internal/service"
)

// runDevices handles `exinstall devices`.
func runDevices(ctx context.Context, args []string, s streams) error {
	o, fs, err := parseFlags("devices", args, s.out)
	if err != nil {
		return err
	}

	detector := platform.NewDetector()
	cfg, _, err := loadConfig(ctx, o, fs, detector)
	if err != nil {
		return err
	}
	info, err := detectPlatform(ctx, detector)
	if err != nil {
		return err
	}

	installer, err := service.NewInstaller(service.InstallerOptions{
		Config:   cfg,
		Platform: info,
		Selector: prompt.NewSelector(prompt.Options{In: s.in, Out: s.out, NoColor: cfg.Output.NoColor}),
		Logger:   newLogger(s.err, cfg.Output),
	})
	if err != nil {
		return err
	}

	devices, err := installer.ListDevices(ctx)
	if err != nil {
		return err
	}

	newConsole(s.out, cfg.Output).devices(devices)
	return nil
}
