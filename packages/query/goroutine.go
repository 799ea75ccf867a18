package query

import (
	"bytes"
	"runtime"
	"strconv"
)

// goroutineID returns the runtime id of the calling goroutine, read from the
// header of its stack trace ("goroutine 18 [running]:"). It returns 0 if the
// header cannot be parsed; 0 never matches a recorded owner.
func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	fields := bytes.Fields(buf[:n])
	if len(fields) < 2 || string(fields[0]) != "goroutine" {
		return 0
	}
	id, err := strconv.ParseInt(string(fields[1]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
