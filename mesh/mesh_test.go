package mesh_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/roadscene-sim/entity/lane"
	"github.com/tsinghua-fib-lab/roadscene-sim/entity/road"
	"github.com/tsinghua-fib-lab/roadscene-sim/geom"
	"github.com/tsinghua-fib-lab/roadscene-sim/mesh"
	"github.com/tsinghua-fib-lab/roadscene-sim/parser/opendrive"
)

func network(t *testing.T, roads ...*road.Road) *road.Network {
	t.Helper()
	net := road.NewNetwork()
	for _, r := range roads {
		require.NoError(t, net.Add(r))
	}
	return net
}

func constWidth(a float64) []lane.Width {
	return []lane.Width{{Poly: geom.CubicPoly{A: a}}}
}

func TestSingleLineSingleLane(t *testing.T) {
	text := `<OpenDRIVE><road id="1"><planView>
  <geometry s="0" x="0" y="0" hdg="0" length="100"><line/></geometry>
</planView><lanes><laneSection s="0">
  <lane id="1" type="driving"><width sOffset="0" a="3" b="0" c="0" d="0"/></lane>
</laneSection></lanes></road></OpenDRIVE>`
	net, _, err := opendrive.Parse([]byte(text), opendrive.DefaultOptions())
	require.NoError(t, err)

	patches := mesh.NewBuilder(0).Build(net)
	require.Len(t, patches, 1)
	p := patches[0]
	assert.Equal(t, 100.0, p.Length)
	assert.Equal(t, 3.0, p.Width)
	assert.Equal(t, 0.0, p.Position.X)
	assert.Equal(t, 0.0, p.Position.Y)
	assert.Equal(t, 0.0, p.Heading)
	assert.Equal(t, "1", p.RoadID)
	assert.Equal(t, int32(1), p.LaneID)
}

func TestWidthUsesSectionRelativeOffset(t *testing.T) {
	poly := []lane.Width{{Poly: geom.CubicPoly{A: 3, B: 0.1, C: 0.01, D: 0.001}}}
	build := func(base float64) []mesh.LanePatch {
		r := road.New("r", "", 0,
			[]geom.Segment{
				{S: base, Origin: geom.NewPose(0, 0, 0), Length: 10, Kind: geom.Line},
				{S: base + 10, Origin: geom.NewPose(10, 0, 0), Length: 10, Kind: geom.Line},
			},
			[]*road.LaneSection{{S: base, Lanes: []*lane.Lane{lane.New(-1, lane.TypeDriving, poly)}}},
		)
		return mesh.NewBuilder(0).BuildRoad(r)
	}
	near, far := build(0), build(5000)
	require.Len(t, near, 2)
	require.Len(t, far, 2)
	for i := range near {
		assert.Equal(t, near[i].Width, far[i].Width)
	}
	assert.InDelta(t, 3.0, near[0].Width, 1e-12)
	assert.InDelta(t, 3+1+1+1, near[1].Width, 1e-12)
}

func TestSectionStartingInsideSegmentClampsOffset(t *testing.T) {
	r := road.New("r", "", 0,
		[]geom.Segment{{S: 0, Origin: geom.NewPose(0, 0, 0), Length: 100, Kind: geom.Line}},
		[]*road.LaneSection{
			{S: 0, Lanes: []*lane.Lane{lane.New(1, lane.TypeDriving, constWidth(3))}},
			{S: 50, Lanes: []*lane.Lane{lane.New(1, lane.TypeDriving, []lane.Width{{Poly: geom.CubicPoly{A: 4, B: 1}}})}},
		},
	)
	patches := mesh.NewBuilder(0).BuildRoad(r)
	require.Len(t, patches, 2)
	assert.Equal(t, 3.0, patches[0].Width)
	assert.Equal(t, 4.0, patches[1].Width)
}

func TestLaneFiltering(t *testing.T) {
	lanes := []*lane.Lane{
		lane.New(2, lane.TypeSidewalk, constWidth(2)),
		lane.New(1, lane.TypeDriving, constWidth(3)),
		lane.New(0, lane.TypeDriving, constWidth(1)),
		lane.New(-1, lane.TypeDriving, constWidth(3)),
		lane.New(-2, lane.TypeDriving, constWidth(3)),
	}
	segs := []geom.Segment{
		{S: 0, Origin: geom.NewPose(0, 0, 0), Length: 10, Kind: geom.Line},
		{S: 10, Origin: geom.NewPose(10, 0, 0), Length: 10, Kind: geom.Line, Lanes: &geom.LaneRange{From: -1, To: 1}},
	}
	r := road.New("r", "", 0, segs, []*road.LaneSection{{S: 0, Lanes: lanes}})
	patches := mesh.NewBuilder(0).BuildRoad(r)

	var first, second []int32
	for _, p := range patches {
		if p.SegmentIndex == 0 {
			first = append(first, p.LaneID)
		} else {
			second = append(second, p.LaneID)
		}
	}
	assert.Equal(t, []int32{1, -1, -2}, first)
	assert.Equal(t, []int32{1, -1}, second)
}

func TestArcSubPatches(t *testing.T) {
	radius := 20.0
	g := geom.Segment{S: 0, Origin: geom.NewPose(5, -3, 0.3), Length: math.Pi * radius / 2, Kind: geom.Arc, Curvature: 1 / radius}
	r := road.New("arc", "", 0, []geom.Segment{g},
		[]*road.LaneSection{{S: 0, Lanes: []*lane.Lane{lane.New(-1, lane.TypeDriving, constWidth(3.5))}}})

	for _, n := range []int{0, 7, 20} {
		patches := mesh.NewBuilder(n).BuildRoad(r)
		want := n
		if want == 0 {
			want = mesh.DefaultArcSegments
		}
		require.Len(t, patches, want)

		cx, cy, ok := g.Center()
		require.True(t, ok)
		step := g.Length / float64(want)
		for i, p := range patches {
			assert.Equal(t, i, p.SubIndex)
			assert.InDelta(t, step, p.Length, 1e-12)
			assert.Equal(t, 3.5, p.Width)
			// chord midpoint lies inside the circle by the sagitta
			sagitta := radius * (1 - math.Cos(step/(2*radius)))
			assert.InDelta(t, radius-sagitta, math.Hypot(p.Position.X-cx, p.Position.Y-cy), 1e-9)
			if i > 0 {
				assert.InDelta(t, step/radius, p.Heading-patches[i-1].Heading, 1e-12)
			}
		}
		assert.InDelta(t, 0.3+step/radius/2, patches[0].Heading, 1e-12)
		assert.InDelta(t, 0.3+math.Pi/2-step/radius/2, patches[want-1].Heading, 1e-12)
	}
}

func TestArcChordsAreContinuous(t *testing.T) {
	g := geom.Segment{Origin: geom.NewPose(0, 0, 1), Length: 30, Kind: geom.Arc, Curvature: -0.05}
	chords := mesh.ArcChords(g, 12)
	require.Len(t, chords, 12)
	for i := 1; i < len(chords); i++ {
		assert.InDelta(t, chords[i-1].End.X, chords[i].Start.X, 1e-12)
		assert.InDelta(t, chords[i-1].End.Y, chords[i].Start.Y, 1e-12)
	}
	end := g.PoseAt(30)
	assert.InDelta(t, end.X, chords[11].End.X, 1e-12)
	assert.InDelta(t, end.Y, chords[11].End.Y, 1e-12)
}

func TestBuildIsDeterministic(t *testing.T) {
	var roads []*road.Road
	for i := 0; i < 16; i++ {
		roads = append(roads, road.New(string(rune('a'+i)), "", 0,
			[]geom.Segment{
				{S: 0, Origin: geom.NewPose(float64(i), 0, 0), Length: 10, Kind: geom.Line},
				{S: 10, Origin: geom.NewPose(float64(i)+10, 0, 0), Length: 10, Kind: geom.Arc, Curvature: 0.01 * float64(i+1)},
			},
			[]*road.LaneSection{{S: 0, Lanes: []*lane.Lane{
				lane.New(1, lane.TypeDriving, constWidth(3)),
				lane.New(-1, lane.TypeDriving, constWidth(3)),
			}}},
		))
	}
	net := network(t, roads...)
	b := mesh.NewBuilder(5)
	first := b.Build(net)
	require.Len(t, first, 16*(2+2*5))
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, b.Build(net))
	}
	assert.Equal(t, "a", first[0].RoadID)
	assert.Equal(t, "p", first[len(first)-1].RoadID)
}

func TestRoadWithoutGeometry(t *testing.T) {
	r := road.New("empty", "", 0, nil, []*road.LaneSection{{S: 0, Lanes: []*lane.Lane{lane.New(1, lane.TypeDriving, constWidth(3))}}})
	assert.Empty(t, mesh.NewBuilder(0).BuildRoad(r))
}

func TestCenterlines(t *testing.T) {
	lanes := []*lane.Lane{
		lane.New(2, lane.TypeDriving, constWidth(2)),
		lane.New(1, lane.TypeDriving, constWidth(3)),
		lane.New(0, lane.TypeNone, nil),
		lane.New(-1, lane.TypeDriving, constWidth(4)),
	}
	r := road.New("r", "", 0,
		[]geom.Segment{{S: 0, Origin: geom.NewPose(0, 0, 0), Length: 10, Kind: geom.Line}},
		[]*road.LaneSection{{S: 0, Lanes: lanes}})
	lines := mesh.Centerlines(network(t, r), 2.5)
	require.Len(t, lines, 3)

	wantY := map[int32]float64{2: 3 + 1, 1: 1.5, -1: -2}
	for _, c := range lines {
		require.Len(t, c.Points, 5)
		for _, p := range c.Points {
			assert.InDelta(t, wantY[c.LaneID], p.Y, 1e-12)
		}
		assert.InDelta(t, 0, c.Points[0].X, 1e-12)
		assert.InDelta(t, 10, c.Points[4].X, 1e-12)
	}
	assert.Equal(t, 4.0, lines[2].Width)
}
