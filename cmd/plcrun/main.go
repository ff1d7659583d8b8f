package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	getopt "github.com/pborman/getopt/v2"

	"github.com/plcrun/plcrun/internal/config"
	"github.com/plcrun/plcrun/internal/controlplane"
	"github.com/plcrun/plcrun/internal/executive"
	"github.com/plcrun/plcrun/internal/image"
	"github.com/plcrun/plcrun/internal/journal"
	"github.com/plcrun/plcrun/internal/logtransport"
	"github.com/plcrun/plcrun/internal/plugindriver"
	"github.com/plcrun/plcrun/internal/rlog"
	"github.com/plcrun/plcrun/internal/symbols"
)

// bufferSize is the compile-time process image size N. A future revision
// may make this configurable; for now every control program is compiled
// against this fixed bound.
const bufferSize = 4096

func main() {
	optConfig := getopt.StringLong("config", 'c', "/etc/plcrun/plcrun.json", "Runtime configuration file")
	optDebug := getopt.BoolLong("debug", 'd', "Enable debug logging")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	level := slog.LevelInfo
	if *optDebug {
		level = slog.LevelDebug
	}

	rt, err := config.Load(*optConfig)
	if err != nil {
		slog.Error("loading runtime config", "error", err)
		os.Exit(1)
	}

	transport := logtransport.New(rt.LogTransportAddr)
	defer transport.Close()

	logger := slog.New(rlog.NewHandler(transport, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	logger.Info("plcrun starting", "config", *optConfig)

	img := image.New(bufferSize)
	jnl := journal.New()
	jnl.Init(img)

	program, err := symbols.Resolve(rt.ControlProgramPath)
	if err != nil {
		logger.Error("resolving control program", "error", err)
		os.Exit(1)
	}
	program.SetBufferPointers(img.Pointers())
	program.GlueVars()

	driver := plugindriver.New(img, jnl, logger)
	if err := driver.LoadConfig(rt.Plugins); err != nil {
		logger.Error("loading plugin config", "error", err)
		os.Exit(1)
	}
	driver.Init()
	driver.Start()

	exec := executive.New(img, jnl, program, driver, logger, rt.TickOverride())

	cp, err := controlplane.New(rt.ControlSocketPath, func(line string) string {
		return handleCommand(exec, driver, line)
	}, logger)
	if err != nil {
		logger.Error("binding control-plane socket", "error", err)
		os.Exit(1)
	}
	cp.Start()

	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	exec.Run(ctx)

	logger.Info("stopping plugins")
	driver.Destroy()
	jnl.Cleanup()
	cp.Stop()

	logger.Info("plcrun stopped")
}

func handleCommand(exec *executive.Executive, driver *plugindriver.Driver, line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "unknown command"
	}

	switch fields[0] {
	case "status":
		stats := exec.Stats()
		return "scan_count=" + strconv.FormatInt(stats.ScanCount, 10) + " overruns=" + strconv.FormatInt(stats.Overruns, 10)
	case "heartbeat":
		return strconv.FormatInt(exec.Heartbeat(), 10)
	case "debug":
		if len(fields) < 3 {
			return "usage: debug <plugin> <message>"
		}
		if err := driver.Debug(fields[1], strings.Join(fields[2:], " ")); err != nil {
			return "error: " + err.Error()
		}
		return "ok"
	default:
		return "unknown command"
	}
}
