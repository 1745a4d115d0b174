package opendrive

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "opendrive")
