package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/roadscene-sim/utils/config"
)

func TestLoadKeepsDefaults(t *testing.T) {
	c, err := config.Load([]byte(`
input:
  road:
    file: data/road.xodr
  scenario:
    file: data/cutin.xosc
control:
  step:
    total: 500
`))
	require.NoError(t, err)
	assert.Equal(t, "data/road.xodr", c.Input.Road.File)
	assert.Equal(t, int32(500), c.Control.Step.Total)
	assert.Equal(t, 0.01, c.Control.Step.Interval)
	assert.Equal(t, config.Motion{Speed: 1, MinX: -100, MaxX: 100}, c.Control.Motion)
	assert.Equal(t, 20, c.Mesh.ArcSegments)
	assert.Equal(t, 3.0, c.Mesh.DefaultWidth)
	assert.Nil(t, c.Input.Asset)
}

func TestLoadRejectsUnknownField(t *testing.T) {
	_, err := config.Load([]byte(`
input:
  road: {file: a}
  scenario: {file: b}
  map: {file: c}
`))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	c := config.Default()
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input.road")
	assert.Contains(t, err.Error(), "input.scenario")

	c.Input.Road = config.InputPath{DB: "opendrive", Col: "roads", Name: "town01"}
	c.Input.Scenario = config.InputPath{File: "cutin.xosc"}
	err = c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input.uri")

	c.Input.URI = "mongodb://localhost:27017"
	assert.NoError(t, c.Validate())

	c.Control.Step.Interval = 0
	c.Control.Motion.MinX = 200
	err = c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interval")
	assert.Contains(t, err.Error(), "min_x")
}

func TestInputPathCachePath(t *testing.T) {
	p := config.InputPath{DB: "opendrive", Col: "roads", Name: "town01"}
	assert.Equal(t, "opendrive", p.GetDb())
	assert.Equal(t, "roads", p.GetColl())
	assert.Equal(t, "opendrive.roads.town01", p.GetCachePath())
	assert.Equal(t, "opendrive.roads/town01", p.String())
	p.Cache = "town01.xodr"
	assert.Equal(t, "town01.xodr", p.GetCachePath())
	assert.True(t, p.IsSet())
	assert.False(t, config.InputPath{DB: "x"}.IsSet())
}
