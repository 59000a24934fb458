// Package notifier announces game lifecycle events to an external helper
// process, typically a chat bot that advertises open lobbies. Events are
// written to the helper's stdin as tab-separated lines, one per event.
package notifier

import (
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/sirupsen/logrus"
)

// Notifier publishes game created/deleted events. The zero value is not
// usable; construct one with Start or use Nop.
type Notifier struct {
	logger *logrus.Logger

	mu    sync.Mutex
	stdin io.WriteCloser
	cmd   *exec.Cmd
}

// Start launches the helper process and returns a Notifier writing to its
// stdin. The helper's lifetime is tied to the server's; Stop kills it.
func Start(logger *logrus.Logger, command string, args []string) (*Notifier, error) {
	cmd := exec.Command(command, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("error opening notifier stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("error starting notifier command %q: %w", command, err)
	}

	logger.Infof("started notifier process %q (pid %d)", command, cmd.Process.Pid)
	return &Notifier{logger: logger, stdin: stdin, cmd: cmd}, nil
}

// Nop returns a Notifier that discards all events. Used when no helper
// command is configured.
func Nop() *Notifier {
	return &Notifier{}
}

func (n *Notifier) GameCreated(code string) {
	n.emit("create", code)
}

func (n *Notifier) GameDeleted(code string) {
	n.emit("delete", code)
}

// emit is best effort. A dead or wedged helper must never interfere with
// game traffic, so write failures are logged and swallowed.
func (n *Notifier) emit(event, code string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.stdin == nil {
		return
	}
	if _, err := fmt.Fprintf(n.stdin, "%s\t%s\n", event, code); err != nil {
		n.logger.Warnf("failed to notify %s of game %s: %s", event, code, err)
	}
}

// Stop closes the helper's stdin and reaps the process.
func (n *Notifier) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.cmd == nil {
		return
	}
	_ = n.stdin.Close()
	_ = n.cmd.Wait()
	n.stdin = nil
	n.cmd = nil
}
