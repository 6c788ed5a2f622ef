package core

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/fatih/color"
)

// Output for loggers created by NewLogger. Tests and the CLI's --quiet flag swap it for io.Discard.
var LogOutput io.Writer = os.Stdout

func NewLogger(prefix string, prefix2 string) *log.Logger {
	// 2024/06/30 00:56:06 [prefix] (prefix2) message
	prefixFull := color.HiGreenString(fmt.Sprintf("[%s] ", prefix))
	if prefix2 != "" {
		prefixFull += color.HiYellowString(fmt.Sprintf("(%s) ", prefix2))
	}
	return log.New(LogOutput, prefixFull, log.Ldate|log.Ltime|log.Lmsgprefix)
}
