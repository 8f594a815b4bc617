package core

import (
	"time"

	"github.com/hockijo/techconnect/internal/publish"
	"github.com/hockijo/techconnect/internal/transport"
)

var (
	// openInstrument connects to the configured instrument.
	openInstrument = transport.Open

	// newPublisher connects to the configured broker, if any.
	newPublisher = publish.New

	// sleep blocks between setup lines and during the post-digitize wait.
	sleep = time.Sleep
)
