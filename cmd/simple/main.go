// Minimal end-to-end demo of the logging pipeline: config from TOML,
// asynchronous dispatch, shared file channel, crash promotion.
package main

import (
	"fmt"
	"os"
	"time"

	astrolog "github.com/Contykpo/AstroLogger"
)

const configFile = "simple_config.toml"

// Example TOML content
var tomlContent = `
[astrolog]
  name = "simple"
  template = "%d %s-u [%g] %m"
  min_severity = "Debug"
  logs_directory = "./simple_logs"
  crashes_directory = "./simple_crashes"
  file_prefix = "Simple"
  async = true
  queue_size = 256
  max_log_files = 5
  max_crash_files = 3
`

func main() {
	if err := os.WriteFile(configFile, []byte(tomlContent), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write config: %v\n", err)
		os.Exit(1)
	}
	defer os.Remove(configFile)

	cfg, err := astrolog.NewConfigFromFile(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	registry := astrolog.NewRegistry()
	logger, err := astrolog.NewLogger(cfg, registry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	logger.Debug("pipeline starting")
	logger.Info("processed", 42, "items")
	logger.Warning("queue depth above threshold")
	logger.Error("transient fetch failure", fmt.Errorf("connection reset"))

	// A second logger sharing the same file channel through the registry
	second, err := astrolog.NewBuilder().
		Name("worker").
		LogsDirectory(cfg.LogsDirectory).
		CrashesDirectory(cfg.CrashesDirectory).
		FilePrefix(cfg.FilePrefix).
		Async(false).
		BuildOn(registry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build second logger: %v\n", err)
		os.Exit(1)
	}
	second.Info("sharing the same physical file")
	second.Close()

	// Let the dispatch worker drain before shutdown
	time.Sleep(200 * time.Millisecond)
	fmt.Println("done, see ./simple_logs")
}
