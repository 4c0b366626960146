// astroconsole is the external display process driven by the console relay.
// It receives log frames over an inherited pipe and renders them on its own
// console, one frame per delivered message.
//
// Usage: astroconsole <title> <waitForKeypress> <handle>
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"

	astrolog "github.com/Contykpo/AstroLogger"
)

const usage = "usage: astroconsole <title> <waitForKeypress:true|false> <handle>"

// receiveMode tracks what the next line on the wire means.
type receiveMode int

const (
	modeToken receiveMode = iota
	modeContent
	modeSeverity
)

func main() {
	if len(os.Args) < 4 {
		fmt.Fprintln(os.Stderr, "astroconsole: missing arguments")
		fmt.Fprintln(os.Stderr, usage)
		waitForKeypress()
		os.Exit(1)
	}

	title := os.Args[1]
	waitKey, err := strconv.ParseBool(os.Args[2])
	if err != nil {
		fmt.Fprintf(os.Stderr, "astroconsole: second argument must be a boolean, got '%s'\n", os.Args[2])
		os.Exit(1)
	}
	fd, err := strconv.Atoi(os.Args[3])
	if err != nil || fd < 0 {
		fmt.Fprintf(os.Stderr, "astroconsole: invalid handle '%s'\n", os.Args[3])
		os.Exit(1)
	}

	pipe := os.NewFile(uintptr(fd), "relay")
	if pipe == nil {
		fmt.Fprintf(os.Stderr, "astroconsole: handle %d is not open\n", fd)
		os.Exit(1)
	}

	fmt.Printf("== %s ==\n", title)
	receive(pipe)

	if waitKey {
		waitForKeypress()
	}
}

// receive runs the tolerant frame reader: MSG means the next line is
// content, SEV means the next line is a severity name, and both accumulate
// until ENDMSG displays the frame. Stray lines outside a frame are ignored;
// END or EOF finishes the broadcast.
func receive(pipe *os.File) {
	scanner := bufio.NewScanner(pipe)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	mode := modeToken
	var content, severityName string

	for scanner.Scan() {
		line := scanner.Text()

		switch mode {
		case modeContent:
			content = line
			mode = modeToken
			continue
		case modeSeverity:
			severityName = line
			mode = modeToken
			continue
		}

		switch line {
		case "BEG":
			// Broadcast opened, nothing to show yet
		case "MSG":
			mode = modeContent
		case "SEV":
			mode = modeSeverity
		case "ENDMSG":
			display(content, severityName)
			content, severityName = "", ""
		case "END":
			return
		default:
			// Stray line, tolerate and move on
		}
	}
}

// display renders one accumulated frame.
func display(content, severityName string) {
	severity, err := astrolog.ParseSeverity(severityName)
	if err != nil {
		fmt.Printf("[?] %s\n", content)
		return
	}
	fmt.Printf("[%s] %s\n", severity, content)
}

func waitForKeypress() {
	fmt.Println("Press ENTER to exit...")
	_, _ = bufio.NewReader(os.Stdin).ReadString('\n')
}
