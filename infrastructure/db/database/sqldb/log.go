package sqldb

import (
	"github.com/kaspanet/chainstore/infrastructure/logger"
)

var log = logger.RegisterSubSystem("SQLD")
