package road_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/roadscene-sim/entity/lane"
	"github.com/tsinghua-fib-lab/roadscene-sim/entity/road"
	"github.com/tsinghua-fib-lab/roadscene-sim/geom"
)

func newTestRoad(id string) *road.Road {
	segs := []geom.Segment{
		{S: 0, Origin: geom.NewPose(0, 0, 0), Length: 50, Kind: geom.Line},
		{S: 50, Origin: geom.NewPose(50, 0, 0), Length: 25, Kind: geom.Arc, Curvature: 0.01},
	}
	sections := []*road.LaneSection{
		{S: 0, Lanes: []*lane.Lane{lane.New(0, lane.TypeNone, nil), lane.New(1, lane.TypeDriving, nil)}},
		{S: 40, Lanes: []*lane.Lane{lane.New(-1, lane.TypeDriving, nil)}},
	}
	return road.New(id, "main", 0, segs, sections)
}

func TestRoadAccessors(t *testing.T) {
	r := newTestRoad("7")
	assert.Equal(t, "7", r.ID())
	assert.Equal(t, "Road 7", r.String())
	assert.InDelta(t, 75, r.Length(), 1e-12)

	start, end := r.SectionRange(0)
	assert.Equal(t, 0.0, start)
	assert.Equal(t, 40.0, end)
	_, end = r.SectionRange(1)
	assert.True(t, math.IsInf(end, 1) || end > 1e300)

	idx, ok := r.SectionAt(45)
	assert.True(t, ok)
	assert.Equal(t, 1, idx)

	l, ok := r.Sections()[0].Lane(1)
	require.True(t, ok)
	assert.Equal(t, int32(1), l.ID())
	_, ok = r.Sections()[0].Lane(5)
	assert.False(t, ok)
}

func TestRoadPoseAt(t *testing.T) {
	r := newTestRoad("1")
	p, ok := r.PoseAt(10)
	require.True(t, ok)
	assert.InDelta(t, 10, p.X, 1e-9)

	p, ok = r.PoseAt(75)
	require.True(t, ok)
	assert.InDelta(t, 0.25, p.Heading, 1e-12)

	_, ok = r.PoseAt(-1)
	assert.False(t, ok)
	assert.Empty(t, r.CheckContiguous(1e-6))
}

func TestNetwork(t *testing.T) {
	n := road.NewNetwork()
	require.NoError(t, n.Add(newTestRoad("a")))
	require.NoError(t, n.Add(newTestRoad("b")))
	assert.Error(t, n.Add(newTestRoad("a")))
	assert.Equal(t, []string{"a", "b"}, n.IDs())
	assert.Equal(t, 2, n.Len())

	r, err := n.GetOrError("b")
	require.NoError(t, err)
	assert.Equal(t, "b", r.ID())
	_, err = n.GetOrError("zz")
	assert.Error(t, err)
	assert.Panics(t, func() { n.Get("zz") })
}
