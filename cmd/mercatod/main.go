package main

import (
	"flag"
	"log/slog"
	"os"
	"strings"

	"mercato/config"
	"mercato/core"
	"mercato/observability/logging"
	"mercato/rpc"
	"mercato/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	rpcAddrFlag := flag.String("rpc-addr", "", "RPC listen address (overrides config RPCAddress)")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("MERCATO_ENV"))
	logger := logging.Setup("mercatod", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	if env == "" {
		env = cfg.Env
	}

	addr := cfg.RPCAddress
	if strings.TrimSpace(*rpcAddrFlag) != "" {
		addr = *rpcAddrFlag
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("failed to open database", slog.String("dataDir", cfg.DataDir), slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	node := core.NewNode(db)
	logger.Info("node initialised",
		slog.String("network", cfg.NetworkName),
		slog.String("dataDir", cfg.DataDir),
	)

	server := rpc.NewServer(node)
	if err := server.Start(addr); err != nil {
		logger.Error("RPC server terminated", slog.Any("error", err))
		os.Exit(1)
	}
}
