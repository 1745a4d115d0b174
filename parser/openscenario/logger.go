package openscenario

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "openscenario")
