package worker

import (
	"os"
	"syscall"
)

// killSignal returns the signal used to ask the child process to exit
// gracefully before the hard kill (§4.2 send-receive: SIGTERM then
// SIGKILL after a short grace).
func killSignal() os.Signal {
	return syscall.SIGTERM
}
