package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/your-org/umts-radio-core/common/metrics"
	"github.com/your-org/umts-radio-core/internal/chconfig"
	"github.com/your-org/umts-radio-core/internal/config"
	"github.com/your-org/umts-radio-core/internal/mac"
	"github.com/your-org/umts-radio-core/internal/rrc"
	"github.com/your-org/umts-radio-core/internal/server"
	"github.com/your-org/umts-radio-core/internal/sgsnclient"
	"github.com/your-org/umts-radio-core/internal/ue"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "nodeb.yaml", "path to configuration file")
	flag.Parse()

	logger := createLogger("info")
	defer logger.Sync()

	logger.Info("starting nodeb radio-network control core",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Warn("failed to load configuration file, using defaults", zap.Error(err))
		cfg = config.Default()
	}

	if cfg.NF.InstanceID == "" {
		cfg.NF.InstanceID = uuid.NewString()
	}

	logger.Info("configuration loaded",
		zap.String("nf_name", cfg.NF.Name),
		zap.String("instance_id", cfg.NF.InstanceID),
		zap.Uint16("srnc_id", cfg.NF.SRNCID),
		zap.Int("server_port", cfg.Server.Port),
	)

	ues := ue.NewTable(cfg.NF.SRNCID)
	chreg := chconfig.NewRegistry(cfg.UMTS.UseTurboCodes)

	var sgsn sgsnclient.Client = sgsnclient.NewSimulated(logger)
	sgsn = sgsnclient.NewRetryingClient(sgsn, logger)

	macC := mac.NewMacC(0, []int{1})
	scheduler := mac.NewScheduler(10*time.Millisecond, func(trchID int, tb []byte) {
		logger.Debug("downlink transport block ready for PHY", zap.Int("trch_id", trchID), zap.Int("bytes", len(tb)))
	}, logger)
	scheduler.Register("common", macC)

	var controller *rrc.Controller
	sendCCCH := func(encoded []byte) {
		macC.QueueDownlinkCCCH(encoded)
	}
	sendDCCH := func(urnti uint32, rbID int, encoded []byte) {
		controller.WriteDownlinkSDU(urnti, rbID, encoded)
	}
	controller = rrc.NewController(ues, chreg, sgsn, scheduler, macC, cfg.UMTS.Timers, sendCCCH, sendDCCH, logger)

	macC.OnUplinkCCCH = func(pdu []byte) {
		controller.HandleUplinkCCCH(pdu, time.Now())
	}
	macC.OnUplinkDCCH = func(idType mac.UEIDType, ueid uint32, ct uint8, pdu []byte) {
		urnti := ueid
		if idType == mac.UEIDTypeCRNTI {
			u, ok := ues.FindByCRNTI(uint16(ueid))
			if !ok {
				logger.Warn("uplink DCCH from unknown C-RNTI", zap.Uint32("crnti", ueid))
				return
			}
			urnti = u.URNTI
		}
		rb, ok := macC.CommonBearer(urnti)
		if !ok {
			logger.Warn("uplink DCCH from UE with no common bearer", zap.Uint32("urnti", urnti))
			return
		}
		rb.Push(time.Now(), pdu)
	}

	reaper := rrc.NewReaper(controller, ues, cfg.UMTS.Timers.Inactivity, time.Second, logger)

	debugServer := server.NewServer(cfg, ues, scheduler, logger)

	metricsServer := metrics.NewMetricsServer(cfg.Observability.Metrics.Port, logger)
	if cfg.Observability.Metrics.Enabled {
		go func() {
			logger.Info("starting metrics server", zap.Int("port", cfg.Observability.Metrics.Port))
			if err := metricsServer.Start(); err != nil {
				logger.Error("metrics server error", zap.Error(err))
			}
		}()
		defer metricsServer.Stop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go scheduler.Run(ctx)
	go reaper.Run(ctx)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("nodeb started successfully",
			zap.String("address", fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.Port)),
		)
		serverErrors <- debugServer.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Fatal("debug server error", zap.Error(err))
	case sig := <-shutdown:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		scheduler.Stop()
		reaper.Stop()
		cancel()

		if err := debugServer.Stop(shutdownCtx); err != nil {
			logger.Error("failed to gracefully shut down debug server", zap.Error(err))
		}

		logger.Info("nodeb shutdown complete")
	}
}

func createLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to create logger: %v", err))
	}
	return logger
}
