package mapexport

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "mapexport")
