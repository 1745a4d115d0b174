package main

import (
	"context"
	"encoding/base64"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"git.fiblab.net/sim/syncer/v3"
	easy "git.fiblab.net/utils/logrus-easy-formatter"
	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/roadscene-sim/output/mapexport"
	"github.com/tsinghua-fib-lab/roadscene-sim/output/recorder"
	"github.com/tsinghua-fib-lab/roadscene-sim/task"
	"github.com/tsinghua-fib-lab/roadscene-sim/utils/config"
	"github.com/tsinghua-fib-lab/roadscene-sim/utils/input"
	"github.com/tsinghua-fib-lab/roadscene-sim/utils/metrics"
)

var (
	// syncer地址，为空时sidecar独立运行
	syncerAddr = flag.String("syncer", "", "syncer address (empty means standalone mode), e.g. http://localhost:53001")
	// 时钟RPC监听地址，为空则不提供RPC
	grpcAddr = flag.String("listen", "", "clock RPC listening address (empty means disable), e.g. :51102")
	// Prometheus指标监听地址，为空则不提供
	metricsAddr = flag.String("metrics", "", "prometheus /metrics listening address (empty means disable), e.g. :9090")
	// 配置文件路径
	configPath = flag.String("config", "", "config file path")
	// 配置文件Base64编码后的数据
	configData = flag.String("config-data", "", "config file base64 encoded data")
	// 输入文档的缓存地址，设置为空则禁用缓存功能
	cacheDir = flag.String("cache", "data/", "input cache dir path (empty means disable cache)")
	// 播放方式
	realtime  = flag.Bool("realtime", false, "advance frames on wall clock instead of as fast as possible")
	paused    = flag.Bool("paused", false, "stay paused after loading (useful with -listen)")
	mapSample = flag.Float64("map.sample", 1, "centerline sample interval (m) of the exported map")

	// log
	logLevels = map[string]logrus.Level{
		"trace":    logrus.TraceLevel,
		"debug":    logrus.DebugLevel,
		"info":     logrus.InfoLevel,
		"warn":     logrus.WarnLevel,
		"error":    logrus.ErrorLevel,
		"critical": logrus.FatalLevel,
		"off":      logrus.PanicLevel,
	}
	logLevel = flag.String("log.level", "info", "日志级别（可选项：trace debug info warn error critical off）")

	log = logrus.WithField("module", "roadscene")
)

func main() {
	flag.Parse()
	logrus.SetFormatter(&easy.Formatter{
		TimestampFormat: "2006-01-02 15:04:05.0000",
		LogFormat:       "[%module%] [%time%] [%lvl%] %msg%\n",
	})
	if level, ok := logLevels[*logLevel]; ok {
		logrus.SetLevel(level)
	} else {
		log.Panicf("log.level must be one of %v", logLevels)
	}
	// 获取配置
	var file []byte
	var err error
	if *configPath != "" {
		file, err = os.ReadFile(*configPath)
		if err != nil {
			log.Panicf("config file load err: %v", err)
		}
	} else if *configData != "" {
		file, err = base64.StdEncoding.DecodeString(*configData)
		if err != nil {
			log.Panicf("config data load err: %v", err)
		}
	} else {
		log.Panic("config file or config data must be specified")
	}
	c, err := config.Load(file)
	if err != nil {
		log.Panicf("config file load err: %v", err)
	}
	log.Infof("%+v", c)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var collector *metrics.Collector
	if *metricsAddr != "" {
		if collector, err = metrics.New(nil); err != nil {
			log.Panicf("metrics init err: %v", err)
		}
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", collector.Handler())
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorf("metrics server stopped: %v", err)
			}
		}()
	}

	loader, err := input.NewLoader(ctx, c.Input.URI, *cacheDir)
	if err != nil {
		log.Panicf("input init err: %v", err)
	}
	defer loader.Close(context.Background())

	ctrl := task.New(task.OptionsFromConfig(c, collector))

	if *grpcAddr != "" {
		sidecar := syncer.NewSidecar(task.SelfName, *grpcAddr, *syncerAddr)
		ctrl.Register(sidecar)
		go func() {
			if err := sidecar.Serve(); err != nil {
				log.Errorf("sidecar stopped: %v", err)
			}
		}()
		defer sidecar.Close()
	}

	ctrl.LoadFromConfig(ctx, loader, c)
	select {
	case <-ctrl.Ready():
	case <-ctrl.Failed():
		log.Panicf("load failed: %v", ctrl.Err())
	case <-ctx.Done():
		return
	}

	var sinks []task.Sink
	if c.Output.Record != "" {
		rec, err := recorder.Open(c.Output.Record)
		if err != nil {
			log.Panicf("recorder init err: %v", err)
		}
		defer rec.Close()
		if err := rec.BeginRun(c.Input.Road.String(), c.Input.Scenario.String(), c.Control.Step.Interval); err != nil {
			log.Panicf("recorder err: %v", err)
		}
		if err := rec.RecordPatches(ctrl.Patches()); err != nil {
			log.Panicf("recorder err: %v", err)
		}
		sinks = append(sinks, rec)
	}
	if c.Output.Map != "" {
		res := mapexport.Build(ctrl.Network(), *mapSample)
		if err := mapexport.Write(c.Output.Map, res.Map); err != nil {
			log.Panicf("map export err: %v", err)
		}
		log.Infof("map exported to %s", c.Output.Map)
	}

	var frames task.FrameSource
	if *realtime || c.Control.Step.Total == 0 {
		ticker := task.NewTickerFrames(time.Duration(c.Control.Step.Interval * float64(time.Second)))
		defer ticker.Stop()
		frames = ticker
	} else {
		frames = task.NewCountFrames(int(c.Control.Step.Total))
	}
	if !*paused {
		if err := ctrl.Play(); err != nil {
			log.Panicf("play err: %v", err)
		}
	}
	if err := ctrl.Run(ctx, frames, sinks...); err != nil && !errors.Is(err, context.Canceled) {
		log.Panicf("playback err: %v", err)
	}
	log.Infof("playback stopped at %v", ctrl.Clock())
}
