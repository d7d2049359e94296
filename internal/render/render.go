package render

import (
	"context"
	"fmt"
	"time"

	"github.com/MMMiaotl/IngRenoQuote/internal/domain/quote"
)

// PDFRenderer превращает смету в PDF.
type PDFRenderer interface {
	PDF(ctx context.Context, q quote.Quote) ([]byte, error)
}

const (
	EngineMaroto   = "maroto"
	EngineExternal = "external"
)

// New выбирает движок по конфигу.
func New(engine, command string, args []string, timeout time.Duration) (PDFRenderer, error) {
	switch engine {
	case "", EngineMaroto:
		return NewMaroto(), nil
	case EngineExternal:
		if command == "" {
			return nil, fmt.Errorf("render: external engine needs a command")
		}
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		return &External{Command: command, Args: args, Timeout: timeout}, nil
	default:
		return nil, fmt.Errorf("render: unknown engine %q", engine)
	}
}
