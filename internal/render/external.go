package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/MMMiaotl/IngRenoQuote/internal/domain/quote"
)

// External отдаёт HTML сметы внешней программе на stdin и читает PDF из stdout.
// Процесс запускается на каждый вызов и убивается по таймауту.
type External struct {
	Command string
	Args    []string
	Timeout time.Duration
}

func (e *External) PDF(ctx context.Context, q quote.Quote) ([]byte, error) {
	html, err := HTML(q)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, e.Command, e.Args...)
	cmd.Stdin = bytes.NewReader(html)
	cmd.WaitDelay = time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s timed out after %s", ErrRender, e.Command, e.Timeout)
		}
		return nil, fmt.Errorf("%w: %s: %v: %s", ErrRender, e.Command, err, strings.TrimSpace(stderr.String()))
	}
	out := stdout.Bytes()
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		return nil, fmt.Errorf("%w: %s produced no PDF output", ErrRender, e.Command)
	}
	return out, nil
}
