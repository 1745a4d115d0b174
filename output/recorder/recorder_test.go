package recorder_test

import (
	"path/filepath"
	"sync"
	"testing"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/roadscene-sim/geom"
	"github.com/tsinghua-fib-lab/roadscene-sim/mesh"
	"github.com/tsinghua-fib-lab/roadscene-sim/output/recorder"
	"github.com/tsinghua-fib-lab/roadscene-sim/task"
	"github.com/tsinghua-fib-lab/roadscene-sim/timeline"
)

func TestRecorder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.db")
	r, err := recorder.Open(path)
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.BeginRun("road.xodr", "cutin.xosc", 0.01))
	assert.NotZero(t, r.RunID())

	require.NoError(t, r.RecordPatches([]mesh.LanePatch{
		{RoadID: "0", LaneID: -1, Position: geometry.Point{X: 1, Y: 2}, Heading: 0.5, Length: 10, Width: 3},
		{RoadID: "0", LaneID: -2, SubIndex: 1, Position: geometry.Point{X: 3, Y: 4}, Length: 10, Width: 3.5},
	}))
	patches, err := r.Patches()
	require.NoError(t, err)
	require.Len(t, patches, 2)
	assert.Equal(t, int32(-2), patches[1].LaneID)
	assert.Equal(t, 3.5, patches[1].Width)

	for step := int32(1); step <= 3; step++ {
		require.NoError(t, r.Consume(task.Frame{
			Step: step,
			T:    float64(step) * 0.01,
			Poses: []timeline.EntityPose{
				{Name: "Ego", Pose: geom.NewPose(10-float64(step)*0.01, 0.5, 0)},
				{Name: "Target", Pose: geom.NewPose(40, 0, 0)},
			},
		}))
	}
	require.NoError(t, r.Consume(task.Frame{Step: 4}))

	poses, err := r.Poses(2)
	require.NoError(t, err)
	require.Len(t, poses, 2)
	assert.Equal(t, "Ego", poses[0].Entity)
	assert.InDelta(t, 9.98, poses[0].X, 1e-12)
	assert.Equal(t, 0.5, poses[0].Y)
	assert.Equal(t, "Target", poses[1].Entity)

	poses, err = r.Poses(4)
	require.NoError(t, err)
	assert.Empty(t, poses)
}

func TestRunsAreSeparated(t *testing.T) {
	r, err := recorder.Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer r.Close()

	frame := task.Frame{Step: 1, T: 0.01, Poses: []timeline.EntityPose{{Name: "Ego"}}}
	require.NoError(t, r.BeginRun("a", "b", 0.01))
	require.NoError(t, r.Consume(frame))
	first := r.RunID()

	require.NoError(t, r.BeginRun("a", "b", 0.01))
	assert.NotEqual(t, first, r.RunID())
	poses, err := r.Poses(1)
	require.NoError(t, err)
	assert.Empty(t, poses)
}

func TestInMemoryRecorder(t *testing.T) {
	r, err := recorder.Open("")
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.BeginRun("road.xodr", "cutin.xosc", 0.01))
	require.NoError(t, r.RecordPatches([]mesh.LanePatch{
		{RoadID: "0", LaneID: -1, Length: 10, Width: 3},
	}))
	for step := int32(1); step <= 5; step++ {
		require.NoError(t, r.Consume(task.Frame{
			Step:  step,
			T:     float64(step) * 0.01,
			Poses: []timeline.EntityPose{{Name: "Ego", Pose: geom.NewPose(float64(step), 0, 0)}},
		}))
	}

	// 并发读取走连接池，必须看到同一个内存数据库
	var wg sync.WaitGroup
	counts := make([]int, 5)
	errs := make([]error, 5)
	for i := range counts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			poses, err := r.Poses(int32(i + 1))
			counts[i], errs[i] = len(poses), err
		}(i)
	}
	wg.Wait()
	for i := range counts {
		require.NoError(t, errs[i])
		assert.Equal(t, 1, counts[i], "step %d", i+1)
	}

	patches, err := r.Patches()
	require.NoError(t, err)
	assert.Len(t, patches, 1)
}
