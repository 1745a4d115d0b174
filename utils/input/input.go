package input

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tsinghua-fib-lab/roadscene-sim/utils/config"
	"github.com/tsinghua-fib-lab/roadscene-sim/utils/future"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/tsinghua-fib-lab/roadscene-sim/utils/input"

var (
	// ErrNotFound 文档在任何来源中都不存在
	ErrNotFound = errors.New("input: document not found")
	// ErrNoSource 没有可用的来源（未配置MongoDB且缓存未命中）
	ErrNoSource = errors.New("input: no source available")
)

// document MongoDB中存放文档的格式
type document struct {
	Name string `bson:"name"`
	Data string `bson:"data"`
}

// Loader 输入文档加载器
// 功能：按文件、本地缓存、MongoDB的优先级读取文档文本
// 说明：从MongoDB下载的文档会写入缓存目录，后续直接读取缓存
type Loader struct {
	client   *mongo.Client
	cacheDir string
}

// NewLoader 创建加载器
// 参数：ctx-上下文，uri-MongoDB连接字符串（为空则不连接），cacheDir-缓存目录（为空则禁用缓存）
// 返回：加载器，连接失败时返回错误
func NewLoader(ctx context.Context, uri string, cacheDir string) (*Loader, error) {
	l := &Loader{}
	if preCheckCache(cacheDir) {
		l.cacheDir = cacheDir
	}
	if uri != "" {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
		if err != nil {
			return nil, fmt.Errorf("input: connect mongo: %w", err)
		}
		l.client = client
	}
	return l, nil
}

// Close 断开MongoDB连接
func (l *Loader) Close(ctx context.Context) error {
	if l.client == nil {
		return nil
	}
	return l.client.Disconnect(ctx)
}

// Fetch 读取文档文本
// 功能：按配置的来源读取一份文档
// 参数：ctx-上下文，p-来源配置
// 返回：文档原始字节
// 算法说明：
// 1. 配置了文件路径：直接读取文件
// 2. 启用缓存且缓存文件存在：读取缓存
// 3. 只允许缓存时返回ErrNoSource
// 4. 从MongoDB集合中按name查找文档，写入缓存后返回
func (l *Loader) Fetch(ctx context.Context, p config.InputPath) (data []byte, err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "input/fetch",
		trace.WithAttributes(attribute.String("input.source", p.String())))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.Int("input.bytes", len(data)))
		}
		span.End()
	}()

	if p.File != "" {
		data, err = os.ReadFile(p.File)
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, p.File)
		}
		return data, err
	}
	cachePath := ""
	if l.cacheDir != "" {
		cachePath = filepath.Join(l.cacheDir, p.GetCachePath())
		if data, err = os.ReadFile(cachePath); err == nil {
			log.Infof("load %s from cache %s", p, cachePath)
			return data, nil
		}
	}
	if p.OnlyCache || l.client == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoSource, p)
	}

	log.Infof("start fetching from %s", p)
	var doc document
	err = l.client.Database(p.GetDb()).Collection(p.GetColl()).FindOne(ctx, bson.M{"name": p.Name}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	if err != nil {
		return nil, fmt.Errorf("input: fetch %s: %w", p, err)
	}
	data = []byte(doc.Data)
	log.Infof("finish fetching from %s (%d bytes)", p, len(data))
	if cachePath != "" {
		writeCache(cachePath, data)
	}
	return data, nil
}

// FetchAsync 在新协程中读取文档
func (l *Loader) FetchAsync(ctx context.Context, p config.InputPath) *future.Future[[]byte] {
	return future.Go(func() ([]byte, error) {
		return l.Fetch(ctx, p)
	})
}
