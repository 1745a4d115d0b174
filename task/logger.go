package task

import "github.com/sirupsen/logrus"

// log 播放控制模块的日志记录器
var log = logrus.WithField("module", "task")
