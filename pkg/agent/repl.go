package agent

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

/*
Banner describes the session printed when the REPL starts.
*/
type Banner struct {
	Backend   string
	Reasoner  string
	Embedder  string
	MCPURL    string
	Content   string
	Memory    string
	ToolCount int
}

func (banner Banner) String() string {
	builder := &strings.Builder{}
	bullet := "│ "

	row := func(label, value string) {
		if value == "" {
			return
		}

		builder.WriteString(bullet + labelStyle.Render(fmt.Sprintf("%-10s", label)) + valueStyle.Render(value) + "\n")
	}

	builder.WriteString(titleStyle.Render("=== Agentic AI demo (MongoDB memory + vector search) ===") + "\n")
	builder.WriteString(bullet + "Commands: remember <text> | clear | exit\n")
	row("Backend:", banner.Backend)
	row("Reasoner:", banner.Reasoner)
	row("Embedder:", banner.Embedder)
	row("MCP URL:", banner.MCPURL)
	row("Movies:", banner.Content)
	row("Memory:", banner.Memory)

	if banner.ToolCount > 0 {
		builder.WriteString(bullet + fmt.Sprintf("MCP ready (%d tools available)", banner.ToolCount) + "\n")
	}

	return builder.String()
}

/*
Run reads commands from in until exit, end of input, or cancellation of
ctx. A failed turn is reported on Err and the loop continues. Cancellation
ends the session cleanly, also while waiting at the prompt.
*/
func (dispatcher *Dispatcher) Run(ctx context.Context, in io.Reader) error {
	stop := make(chan struct{})
	defer close(stop)

	lines, readErr := readLines(in, stop)

	for {
		fmt.Fprint(dispatcher.Out, promptStyle.Render("> "))

		var (
			line string
			open bool
		)

		select {
		case <-ctx.Done():
			fmt.Fprintln(dispatcher.Out)
			return nil
		case line, open = <-lines:
		}

		if !open {
			fmt.Fprintln(dispatcher.Out)
			return <-readErr
		}

		if line = strings.TrimSpace(line); line == "" {
			continue
		}

		cmd := Classify(line)
		log.Debug("command classified", "intent", cmd.Intent)

		if cmd.Intent == IntentExit {
			return nil
		}

		if err := dispatcher.Handle(ctx, cmd); err != nil {
			if ctx.Err() != nil {
				fmt.Fprintln(dispatcher.Out)
				return nil
			}

			fmt.Fprintln(dispatcher.Err, errorStyle.Render("error: "+err.Error()))
		}

		fmt.Fprintln(dispatcher.Out)
	}
}

/*
readLines scans in on its own goroutine, so a blocked read never holds up
cancellation. The scanner error is delivered before lines is closed.
*/
func readLines(in io.Reader, stop <-chan struct{}) (<-chan string, <-chan error) {
	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-stop:
				readErr <- nil
				return
			}
		}

		readErr <- scanner.Err()
	}()

	return lines, readErr
}
