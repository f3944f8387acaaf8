package main

import (
	"context"
	"fmt"

	"github.com/ZebulonRouseFrantzich/exinstall/internal/github"
	"github.com/ZebulonRouseFrantzich/exinstall/internal/platform"
	"github.com/ZebulonRouseFrantzich/exinstall/internal/prompt"
	"github.com/ZebulonRouseFrantzich/exinstall/internal/service"
)

// runInstall handles `exinstall [install]`.
func runInstall(ctx context.Context, args []string, s streams) error {
	o, fs, err := parseFlags("install", args, s.out)
	if err != nil {
		return err
	}

	detector := platform.NewDetector()
	cfg, cfgPath, err := loadConfig(ctx, o, fs, detector)
	if err != nil {
		return err
	}
	info, err := detectPlatform(ctx, detector)
	if err != nil {
		return err
	}

	logger := newLogger(s.err, cfg.Output)
	if cfgPath != "" {
		logger.Debug("config loaded", "path", cfgPath)
	}
	con := newConsole(s.out, cfg.Output)

	installer, err := service.NewInstaller(service.InstallerOptions{
		Config:       cfg,
		Platform:     info,
		Selector:     prompt.NewSelector(prompt.Options{In: s.in, Out: s.out, NoColor: cfg.Output.NoColor}),
		Logger:       logger,
		OnTransition: con.transition,
	})
	if err != nil {
		return err
	}

	report, err := installer.Install(ctx)
	for _, w := range report.Warnings {
		con.warning(w)
	}
	if err != nil {
		if service.IsCancelled(err) {
			fmt.Fprintln(s.err, "Installation interrupted.")
			return &silentExit{code: exitInterrupted}
		}
		if github.IsRateLimitError(err) {
			return fmt.Errorf("%w\nThe GitHub API allows a limited number of anonymous requests per hour; try again after the reset time", err)
		}
		return err
	}

	if report.Cancelled {
		return nil
	}

	fmt.Fprintln(s.out)
	con.bold.Fprintf(s.out, "%s %s installed to %s\n", cfg.Repository.Name, report.Selected.DisplayName, report.Workspace.InstallDir)
	if !cfg.Output.Quiet {
		fmt.Fprintf(s.out, "Build tool: %s\n", report.Workspace.ToolPath)
		if report.ReceiptPath != "" {
			fmt.Fprintf(s.out, "Receipt:    %s\n", report.ReceiptPath)
		}
		con.devices(report.Devices)
	}
	return nil
}
