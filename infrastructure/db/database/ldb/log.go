package ldb

import (
	"github.com/kaspanet/chainstore/infrastructure/logger"
)

var log = logger.RegisterSubSystem("LVDB")
