package eql

import (
	"os"

	"github.com/hashicorp/go-hclog"
)

// baseLogger is the root logger every Session derives named
// sub-loggers from (Session.log.Named("eql.<component>")), matching
// how hashicorp-nomad wires hclog across subsystems.
var baseLogger = hclog.New(&hclog.LoggerOptions{
	Name:  "eql",
	Level: hclog.Warn,
	Output: os.Stderr,
})

// defaultCartesianWarnThreshold is the default number of independently
// unbound select variables at or above which an Entity-based
// descriptor (Entity, SetOf, An, The) logs a warning before evaluating.
// See WithCartesianWarnThreshold and WithEngineCartesianWarnThreshold.
const defaultCartesianWarnThreshold = 20
