// Command proxygen generates intercepting proxies for Go interfaces.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/panagiotisptr/proxychain/generate"
)

const (
	defaultLogLevel = "info"
	defaultConfig   = "proxygen.yaml"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "proxygen",
		Short: "Generate intercepting proxies for Go interfaces",
		Long: `proxygen writes a struct implementing a Go interface whose methods route
every call through an interceptor chain before reaching the wrapped value.

Example:
  proxygen generate --interface example.com/clock.Clock --package clock --name ClockProxy --output clock_proxy.go
  proxygen batch --config proxygen.yaml --watch`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringP("log-level", "l", defaultLogLevel, "Log level (debug, info, warn, error)")
	rootCmd.AddCommand(newGenerateCmd(), newBatchCmd())

	return rootCmd
}

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a single proxy",
		Args:  cobra.NoArgs,
		RunE:  runGenerate,
	}

	cmd.Flags().String("interface", "", "Interface full path - {package}.{interface}")
	cmd.Flags().String("package", "", "Package name of the generated file")
	cmd.Flags().String("name", "", "Name of the generated proxy struct")
	cmd.Flags().String("output", "", "Output file name")
	for _, name := range []string{"interface", "package", "name", "output"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Generate every proxy listed in a YAML file",
		Args:  cobra.NoArgs,
		RunE:  runBatch,
	}

	cmd.Flags().StringP("config", "c", defaultConfig, "Path to configuration file (YAML)")
	cmd.Flags().BoolP("watch", "w", false, "Regenerate when the interface sources change")

	return cmd
}

// newLogger builds the logger selected by --log-level. Logs go to the
// command's error stream so generated output on stdout stays clean.
func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	levelName, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return nil, fmt.Errorf("failed to get log-level flag: %w", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(levelName)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", levelName, err)
	}

	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})), nil
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}

	p := generate.ProxyConfig{}
	for name, dst := range map[string]*string{
		"interface": &p.Interface,
		"package":   &p.Package,
		"name":      &p.Name,
		"output":    &p.Output,
	} {
		if *dst, err = cmd.Flags().GetString(name); err != nil {
			return fmt.Errorf("failed to get %s flag: %w", name, err)
		}
	}
	if err := p.Validate(); err != nil {
		return err
	}

	return generate.NewGenerator(logger).GenerateProxy(p.Interface, p.Package, p.Name, p.Output)
}

func runBatch(cmd *cobra.Command, _ []string) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	watch, err := cmd.Flags().GetBool("watch")
	if err != nil {
		return fmt.Errorf("failed to get watch flag: %w", err)
	}

	cfg, err := generate.LoadConfig(configPath)
	if err != nil {
		return err
	}

	g := generate.NewGenerator(logger)
	if err := g.GenerateAll(cfg); err != nil {
		return err
	}
	if !watch {
		return nil
	}

	pkgPaths := make([]string, 0, len(cfg.Proxies))
	for _, p := range cfg.Proxies {
		pkgPaths = append(pkgPaths, p.PackagePath())
	}
	dirs, err := g.PackageDirs(pkgPaths...)
	if err != nil {
		return fmt.Errorf("failed to locate interface packages: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return g.Watch(ctx, cfg, dirs)
}
