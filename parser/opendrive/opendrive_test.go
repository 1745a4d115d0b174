package opendrive_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/roadscene-sim/parser"
	"github.com/tsinghua-fib-lab/roadscene-sim/parser/opendrive"
)

const singleLine = `<?xml version="1.0" standalone="yes"?>
<OpenDRIVE>
  <header revMajor="1" revMinor="6"/>
  <road id="1" name="straight" length="100" junction="-1">
    <planView>
      <geometry s="0" x="0" y="0" hdg="0" length="100"><line/></geometry>
    </planView>
    <lanes>
      <laneSection s="0">
        <lane id="1" type="driving">
          <width sOffset="0" a="3" b="0" c="0" d="0"/>
        </lane>
      </laneSection>
    </lanes>
  </road>
</OpenDRIVE>`

const standard = `<OpenDRIVE>
  <road id="10" length="150">
    <planView>
      <geometry s="0" x="0" y="0" hdg="0" length="100"><line/></geometry>
      <geometry s="100" x="100" y="0" hdg="0" length="50" associatedLanes="-2--1"><arc curvature="0.02"/></geometry>
    </planView>
    <lanes>
      <laneSection s="0">
        <left>
          <lane id="2" type="sidewalk"><width sOffset="0" a="2" b="0" c="0" d="0"/></lane>
          <lane id="1" type="driving"/>
        </left>
        <center><lane id="0" type="none"/></center>
        <right>
          <lane id="-1" type="driving"><width sOffset="0" a="3.5" b="0" c="0" d="0"/></lane>
          <lane id="-2" type="driving"><width sOffset="0" a="3.25" b="0.01" c="0" d="0"/></lane>
        </right>
      </laneSection>
      <laneSection s="120">
        <right>
          <lane id="-1" type="driving"><width sOffset="0" a="3" b="0" c="0" d="0"/></lane>
        </right>
      </laneSection>
    </lanes>
  </road>
</OpenDRIVE>`

func TestParseSingleLine(t *testing.T) {
	net, warnings, err := opendrive.Parse([]byte(singleLine), opendrive.DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Equal(t, 1, net.Len())

	r := net.Get("1")
	assert.Equal(t, "straight", r.Name())
	assert.Equal(t, 100.0, r.Length())
	require.Len(t, r.Segments(), 1)
	seg := r.Segments()[0]
	assert.Equal(t, 100.0, seg.Length)
	assert.Nil(t, seg.Lanes)
	require.Len(t, r.Sections(), 1)
	require.Len(t, r.Sections()[0].Lanes, 1)
	w, ok := r.Sections()[0].Lanes[0].WidthAt(0)
	assert.True(t, ok)
	assert.Equal(t, 3.0, w)
}

func TestParseStandardLayout(t *testing.T) {
	net, warnings, err := opendrive.Parse([]byte(standard), opendrive.DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, warnings)

	r := net.Get("10")
	segs := r.Segments()
	require.Len(t, segs, 2)
	assert.Equal(t, "arc", segs[1].Kind.String())
	assert.Equal(t, 0.02, segs[1].Curvature)
	require.NotNil(t, segs[1].Lanes)
	assert.Equal(t, int32(-2), segs[1].Lanes.From)
	assert.Equal(t, int32(-1), segs[1].Lanes.To)

	sec := r.Sections()[0]
	ids := make([]int32, 0)
	for _, l := range sec.Lanes {
		ids = append(ids, l.ID())
	}
	assert.Equal(t, []int32{2, 1, 0, -1, -2}, ids)

	// lane 1 has no width element and takes the default
	l1, ok := sec.Lane(1)
	require.True(t, ok)
	w, _ := l1.WidthAt(0)
	assert.Equal(t, 3.0, w)
	assert.Equal(t, 120.0, r.Sections()[1].S)
}

func TestParseRootMismatch(t *testing.T) {
	net, warnings, err := opendrive.Parse([]byte(`<OpenSCENARIO><FileHeader/></OpenSCENARIO>`), opendrive.DefaultOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, parser.ErrMalformedDocument))
	assert.NotNil(t, net)
	assert.Equal(t, 0, net.Len())
	assert.Empty(t, warnings)
}

func TestParseGarbage(t *testing.T) {
	for _, text := range []string{"", "not xml at all", "<OpenDRIVE><road id='1'>"} {
		net, _, err := opendrive.Parse([]byte(text), opendrive.DefaultOptions())
		assert.True(t, parser.IsKind(err, parser.MalformedDocument), "%q: %v", text, err)
		assert.Equal(t, 0, net.Len())
	}
}

func TestParseSkipsMalformedElements(t *testing.T) {
	text := `<OpenDRIVE>
  <road id="1">
    <planView>
      <geometry s="0" x="zero" y="0" hdg="0" length="10"><line/></geometry>
    </planView>
  </road>
  <road id="2">
    <planView>
      <geometry s="0" x="0" y="0" hdg="0" length="10"><line/></geometry>
      <geometry s="10" x="10" y="0" hdg="0" length="5"><spiral curvStart="0" curvEnd="0.1"/></geometry>
      <geometry s="30" x="30" y="0" hdg="0" length="5"><line/></geometry>
    </planView>
    <lanes>
      <laneSection s="0">
        <lane id="x" type="driving"/>
        <lane id="1" type="driving"><width sOffset="0" a="wide"/></lane>
        <lane id="2" type="driving"><width sOffset="0" a="2"/></lane>
      </laneSection>
      <laneSection s="oops"/>
    </lanes>
  </road>
</OpenDRIVE>`
	net, warnings, err := opendrive.Parse([]byte(text), opendrive.DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, 1, net.Len())
	r := net.Get("2")
	assert.Len(t, r.Segments(), 2)
	require.Len(t, r.Sections(), 1)
	require.Len(t, r.Sections()[0].Lanes, 1)
	assert.Equal(t, int32(2), r.Sections()[0].Lanes[0].ID())

	// x="zero", lane id="x", a="wide", s="oops"
	assert.Equal(t, 4, warnings.Count(parser.MissingRequiredAttribute))
	// road 1 skipped, spiral skipped, gap between s=10 and s=30, lane 1 skipped
	assert.Len(t, warnings, 8)
}

func TestParseBrokenWidthSkipsLane(t *testing.T) {
	text := `<OpenDRIVE><road id="1"><planView>
      <geometry s="0" x="0" y="0" hdg="0" length="10"><line/></geometry>
    </planView><lanes><laneSection s="0">
      <right>
        <lane id="-1" type="driving"><width sOffset="0" a="wide"/><width sOffset="5"/></lane>
        <lane id="-2" type="driving"/>
        <lane id="-3" type="driving"><width sOffset="0" a="bad"/><width sOffset="5" a="4"/></lane>
      </right>
    </laneSection></lanes></road></OpenDRIVE>`
	net, warnings, err := opendrive.Parse([]byte(text), opendrive.DefaultOptions())
	require.NoError(t, err)
	sec := net.Get("1").Sections()[0]

	// declared but unusable widths do not fall back to the default
	_, ok := sec.Lane(-1)
	assert.False(t, ok)

	l2, ok := sec.Lane(-2)
	require.True(t, ok)
	w, _ := l2.WidthAt(0)
	assert.Equal(t, 3.0, w)

	l3, ok := sec.Lane(-3)
	require.True(t, ok)
	w, _ = l3.WidthAt(6)
	assert.Equal(t, 4.0, w)

	// a="wide", missing a, a="bad", lane -1 skipped
	assert.Equal(t, 3, warnings.Count(parser.MissingRequiredAttribute))
	assert.Len(t, warnings, 4)
}

func TestParseWithoutDefaultWidth(t *testing.T) {
	text := `<OpenDRIVE><road id="1"><planView>
      <geometry s="0" x="0" y="0" hdg="0" length="10"><line/></geometry>
    </planView><lanes><laneSection s="0">
      <lane id="0" type="none"/>
      <lane id="1" type="driving"/>
    </laneSection></lanes></road></OpenDRIVE>`
	opts := opendrive.DefaultOptions()
	opts.DefaultWidth = 0
	net, warnings, err := opendrive.Parse([]byte(text), opts)
	require.NoError(t, err)
	assert.Len(t, warnings, 1)
	lanes := net.Get("1").Sections()[0].Lanes
	require.Len(t, lanes, 1)
	assert.Equal(t, int32(0), lanes[0].ID())
}

func TestParseEmptyModel(t *testing.T) {
	net, warnings, err := opendrive.Parse([]byte(`<OpenDRIVE><header/></OpenDRIVE>`), opendrive.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 0, net.Len())
	assert.Equal(t, 1, warnings.Count(parser.EmptyModel))
}

func TestParseDuplicatedRoad(t *testing.T) {
	text := `<OpenDRIVE>
  <road id="1"><planView><geometry s="0" x="0" y="0" hdg="0" length="1"><line/></geometry></planView></road>
  <road id="1"><planView><geometry s="0" x="0" y="0" hdg="0" length="2"><line/></geometry></planView></road>
</OpenDRIVE>`
	net, warnings, err := opendrive.Parse([]byte(text), opendrive.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, net.Len())
	assert.Len(t, warnings, 1)
	assert.Equal(t, 1.0, net.Get("1").Length())
}
