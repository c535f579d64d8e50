//go:build windows

package daemon

import "os"

// StopSignals contains all the signals which will make the server shut down.
var StopSignals = []os.Signal{
	os.Interrupt,
}
