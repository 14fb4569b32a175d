package blockindex

import (
	"github.com/kaspanet/chainstore/infrastructure/logger"
)

var log = logger.RegisterSubSystem("BIDX")
