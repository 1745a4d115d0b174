package task

import (
	"context"
	"fmt"
	"time"

	"github.com/tsinghua-fib-lab/roadscene-sim/entity/road"
	"github.com/tsinghua-fib-lab/roadscene-sim/entity/scenario"
	"github.com/tsinghua-fib-lab/roadscene-sim/parser"
	"github.com/tsinghua-fib-lab/roadscene-sim/parser/opendrive"
	"github.com/tsinghua-fib-lab/roadscene-sim/parser/openscenario"
	"github.com/tsinghua-fib-lab/roadscene-sim/utils/config"
	"github.com/tsinghua-fib-lab/roadscene-sim/utils/future"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const tracerName = "github.com/tsinghua-fib-lab/roadscene-sim/task"

// Fetcher 输入文档读取接口，由utils/input.Loader实现
type Fetcher interface {
	Fetch(ctx context.Context, p config.InputPath) ([]byte, error)
}

// LoadFromConfig 按配置并行读取并解析三路输入，结果汇入控制器
// 功能：路网、场景、可视模型各自在独立协程中加载，完成顺序任意
// 说明：未配置可视模型时该路立即成功
func (c *Controller) LoadFromConfig(ctx context.Context, fetcher Fetcher, cfg config.Config) {
	odrOpts := opendrive.Options{
		DefaultWidth: cfg.Mesh.DefaultWidth,
		Tolerance:    cfg.Mesh.ContiguityTolerance,
	}
	roadF := future.Go(func() (Document[*road.Network], error) {
		return loadDocument(ctx, c, fetcher, "road", cfg.Input.Road, func(text []byte) (*road.Network, parser.Warnings, error) {
			return opendrive.Parse(text, odrOpts)
		})
	})
	scenarioF := future.Go(func() (Document[*scenario.Scenario], error) {
		return loadDocument(ctx, c, fetcher, "scenario", cfg.Input.Scenario, openscenario.Parse)
	})
	// 就绪只等待配置中的这一份可选资源，不按场景中每个实体的CatalogReference分别等待
	assetF := future.Go(func() (struct{}, error) {
		if cfg.Input.Asset == nil {
			return struct{}{}, nil
		}
		data, err := fetcher.Fetch(ctx, *cfg.Input.Asset)
		if err != nil {
			return struct{}{}, err
		}
		if len(data) == 0 {
			return struct{}{}, fmt.Errorf("asset %s is empty", cfg.Input.Asset)
		}
		log.Infof("asset %s loaded (%d bytes)", cfg.Input.Asset, len(data))
		return struct{}{}, nil
	})
	c.Load(roadF, scenarioF, assetF)
}

// loadDocument 读取并解析一份文档
// 功能：记录耗时与告警指标，告警逐条写入日志
func loadDocument[T any](
	ctx context.Context,
	c *Controller,
	fetcher Fetcher,
	name string,
	p config.InputPath,
	parse func([]byte) (T, parser.Warnings, error),
) (doc Document[T], err error) {
	start := time.Now()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "task/load/"+name)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(attribute.Int("parse.warnings", len(doc.Warnings)))
		span.End()
		c.metrics.ObserveLoad(name, time.Since(start))
	}()

	text, err := fetcher.Fetch(ctx, p)
	if err != nil {
		return doc, err
	}
	doc.Value, doc.Warnings, err = parse(text)
	for _, w := range doc.Warnings {
		c.metrics.AddWarning(name, warningKind(w))
	}
	return doc, err
}

func warningKind(err error) string {
	for _, k := range []parser.Kind{parser.MalformedDocument, parser.MissingRequiredAttribute, parser.EmptyModel} {
		if parser.IsKind(err, k) {
			return k.String()
		}
	}
	return "Other"
}
