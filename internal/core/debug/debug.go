package debug

import (
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// StartUtilities spins off the services associated with debug mode.
func StartUtilities(logger *logrus.Logger, pprofPort int) {
	startPprofServer(logger, pprofPort)
}

// This function starts the default pprof HTTP server that can be accessed via localhost
// to get runtime information about the server. See https://golang.org/pkg/net/http/pprof/
func startPprofServer(logger *logrus.Logger, pprofPort int) {
	listenerAddr := "localhost:" + strconv.Itoa(pprofPort)
	logger.Infof("starting pprof server on %s", listenerAddr)

	go func() {
		if err := http.ListenAndServe(listenerAddr, nil); err != nil {
			logger.Infof("error starting pprof server: %s", err)
		}
	}()
}

const displayWidth = 16

// FormatPayload renders the contents of a packet in two columns, one for
// bytes and the other for their ascii representation.
func FormatPayload(data []uint8) string {
	var sb strings.Builder
	for rem, offset := len(data), 0; rem > 0; rem -= displayWidth {
		if rem < displayWidth {
			formatPacketLine(&sb, data[(len(data)-rem):], rem, offset)
		} else {
			formatPacketLine(&sb, data[offset:offset+displayWidth], displayWidth, offset)
		}
		offset += displayWidth
	}
	return sb.String()
}

// formatPacketLine writes one line of data to the builder.
func formatPacketLine(sb *strings.Builder, data []uint8, length int, offset int) {
	fmt.Fprintf(sb, "(%04X) ", offset)
	// Print our bytes.
	for i, j := 0, 0; i < length; i++ {
		if j == 8 {
			// Visual aid - spacing between groups of 8 bytes.
			j = 0
			sb.WriteString("  ")
		}
		fmt.Fprintf(sb, "%02x ", data[i])
		j++
	}
	// Fill in the gap if we don't have enough bytes to fill the line.
	for i := length; i < displayWidth; i++ {
		if i == 8 {
			sb.WriteString("  ")
		}
		sb.WriteString("   ")
	}
	sb.WriteString("    ")
	// Display the print characters as-is, others as periods.
	for i := 0; i < length; i++ {
		c := data[i]
		if strconv.IsPrint(rune(c)) {
			fmt.Fprintf(sb, "%c", data[i])
		} else {
			sb.WriteString(".")
		}
	}
	sb.WriteString("\n")
}
