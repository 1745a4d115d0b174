package config

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v2"
)

// Default 默认配置
// 功能：提供播放所需的全部默认值，YAML中未出现的字段保持默认
// 说明：步长0.01秒，速度1，x边界±100，圆弧20段，默认车道宽3
func Default() Config {
	return Config{
		Control: Control{
			Step:   ControlStep{Interval: 0.01},
			Motion: Motion{Speed: 1, MinX: -100, MaxX: 100},
		},
		Mesh: Mesh{
			ArcSegments:         20,
			DefaultWidth:        3,
			ContiguityTolerance: 1e-6,
		},
	}
}

// Load 解析YAML配置
// 功能：在默认配置之上严格解析YAML，未知字段视为错误
// 参数：data-YAML文本
// 返回：校验通过的配置
func Load(data []byte) (Config, error) {
	c := Default()
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return c, fmt.Errorf("config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// Validate 校验配置
func (c Config) Validate() error {
	var errs []error
	if !c.Input.Road.IsSet() {
		errs = append(errs, errors.New("config: input.road must set file or db/col/name"))
	}
	if !c.Input.Scenario.IsSet() {
		errs = append(errs, errors.New("config: input.scenario must set file or db/col/name"))
	}
	if c.Input.Asset != nil && !c.Input.Asset.IsSet() {
		errs = append(errs, errors.New("config: input.asset must set file or db/col/name"))
	}
	needMongo := func(p InputPath) bool { return p.File == "" && !p.OnlyCache && p.IsSet() }
	if c.Input.URI == "" && (needMongo(c.Input.Road) || needMongo(c.Input.Scenario) ||
		(c.Input.Asset != nil && needMongo(*c.Input.Asset))) {
		errs = append(errs, errors.New("config: input.uri is required for documents stored in MongoDB"))
	}
	if c.Control.Step.Interval <= 0 {
		errs = append(errs, fmt.Errorf("config: control.step.interval must be positive, got %v", c.Control.Step.Interval))
	}
	if c.Control.Step.Total < 0 {
		errs = append(errs, fmt.Errorf("config: control.step.total must not be negative, got %v", c.Control.Step.Total))
	}
	if c.Control.Motion.MinX > c.Control.Motion.MaxX {
		errs = append(errs, fmt.Errorf("config: control.motion.min_x %v > max_x %v", c.Control.Motion.MinX, c.Control.Motion.MaxX))
	}
	if c.Mesh.ArcSegments <= 0 {
		errs = append(errs, fmt.Errorf("config: mesh.arc_segments must be positive, got %v", c.Mesh.ArcSegments))
	}
	return errors.Join(errs...)
}
