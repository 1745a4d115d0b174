// Package recorder 将车道面片与逐帧位姿写入SQLite
package recorder

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/tsinghua-fib-lab/roadscene-sim/mesh"
	"github.com/tsinghua-fib-lab/roadscene-sim/task"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const batchSize = 2000

// Run 一次播放记录
type Run struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	Road      string  // 路网来源
	Scenario  string  // 场景来源
	DT        float64 // 步长（秒）
}

// PatchRecord 车道面片
type PatchRecord struct {
	ID           uint   `gorm:"primaryKey"`
	RunID        uint   `gorm:"index"`
	RoadID       string `gorm:"index"`
	LaneID       int32
	SegmentIndex int
	SubIndex     int
	X, Y, Z      float64
	Heading      float64
	Length       float64
	Width        float64
}

// PoseRecord 实体在一帧中的位姿
type PoseRecord struct {
	ID      uint   `gorm:"primaryKey"`
	RunID   uint   `gorm:"index:idx_run_step"`
	Step    int32  `gorm:"index:idx_run_step"`
	T       float64
	Entity  string `gorm:"index"`
	X, Y, Z float64
	Heading float64
}

// Recorder SQLite记录器，实现task.Sink
type Recorder struct {
	db  *gorm.DB
	run Run
}

var _ task.Sink = (*Recorder)(nil)

// Open 打开（或创建）SQLite文件并迁移表结构
// 参数：path-数据库文件路径，为空时使用内存数据库
// 说明：内存数据库只保留一个连接，连接池中的每个连接都能看到同一份数据
func Open(path string) (*Recorder, error) {
	dsn := path
	if dsn == "" {
		dsn = "file::memory:?cache=shared"
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        batchSize,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("recorder: open %s: %w", path, err)
	}
	if path == "" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("recorder: open memory: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode = MEMORY;",
		"PRAGMA synchronous = OFF;",
	} {
		if err := db.Exec(pragma).Error; err != nil {
			log.Warnf("failed to set %s: %v", pragma, err)
		}
	}
	if err := db.AutoMigrate(&Run{}, &PatchRecord{}, &PoseRecord{}); err != nil {
		return nil, fmt.Errorf("recorder: migrate: %w", err)
	}
	log.Infof("recording to %s", dsn)
	return &Recorder{db: db}, nil
}

// BeginRun 新建一次播放记录，之后写入的数据都归属于它
func (r *Recorder) BeginRun(road, scenario string, dt float64) error {
	r.run = Run{Road: road, Scenario: scenario, DT: dt}
	if err := r.db.Create(&r.run).Error; err != nil {
		return fmt.Errorf("recorder: create run: %w", err)
	}
	return nil
}

// RunID 当前播放记录ID
func (r *Recorder) RunID() uint {
	return r.run.ID
}

// RecordPatches 写入车道面片
func (r *Recorder) RecordPatches(patches []mesh.LanePatch) error {
	if len(patches) == 0 {
		return nil
	}
	records := make([]PatchRecord, len(patches))
	for i, p := range patches {
		records[i] = PatchRecord{
			RunID:        r.run.ID,
			RoadID:       p.RoadID,
			LaneID:       p.LaneID,
			SegmentIndex: p.SegmentIndex,
			SubIndex:     p.SubIndex,
			X:            p.Position.X,
			Y:            p.Position.Y,
			Z:            p.Position.Z,
			Heading:      p.Heading,
			Length:       p.Length,
			Width:        p.Width,
		}
	}
	if err := r.db.CreateInBatches(records, batchSize).Error; err != nil {
		return fmt.Errorf("recorder: insert patches: %w", err)
	}
	return nil
}

// Consume 写入一帧中全部实体的位姿
func (r *Recorder) Consume(f task.Frame) error {
	if len(f.Poses) == 0 {
		return nil
	}
	records := make([]PoseRecord, len(f.Poses))
	for i, p := range f.Poses {
		records[i] = PoseRecord{
			RunID:   r.run.ID,
			Step:    f.Step,
			T:       f.T,
			Entity:  p.Name,
			X:       p.Pose.X,
			Y:       p.Pose.Y,
			Z:       p.Pose.Z,
			Heading: p.Pose.Heading,
		}
	}
	if err := r.db.CreateInBatches(records, batchSize).Error; err != nil {
		return fmt.Errorf("recorder: insert poses at step %d: %w", f.Step, err)
	}
	return nil
}

// Poses 查询当前播放记录某一步的位姿，按实体写入顺序返回
func (r *Recorder) Poses(step int32) ([]PoseRecord, error) {
	var out []PoseRecord
	err := r.db.Where("run_id = ? AND step = ?", r.run.ID, step).Order("id").Find(&out).Error
	return out, err
}

// Patches 查询当前播放记录的车道面片
func (r *Recorder) Patches() ([]PatchRecord, error) {
	var out []PatchRecord
	err := r.db.Where("run_id = ?", r.run.ID).Order("id").Find(&out).Error
	return out, err
}

// Close 关闭数据库
func (r *Recorder) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
