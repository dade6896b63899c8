// Package labels sends raw label programs (ZPL, EPL) to a label printer.
package labels

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	xencoding "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/skytecs/hermes/internal/encoding"
	"github.com/skytecs/hermes/internal/receipt"
)

const (
	tcpScheme    = "tcp://"
	writeTimeout = 30 * time.Second
)

var ErrNoPrinter = errors.New("label printer is not configured")

// Printer writes labels to a network printer (tcp://host:port) or to a
// device file. One job is sent at a time.
type Printer struct {
	mu       sync.Mutex
	target   string
	codepage *charmap.Charmap
	logger   *zap.Logger
}

func New(target, codepage string, logger *zap.Logger) (*Printer, error) {
	cm, err := encoding.Codepage(codepage)
	if err != nil {
		return nil, fmt.Errorf("label printer: %w", err)
	}

	return &Printer{
		target:   strings.TrimSpace(target),
		codepage: cm,
		logger:   logger.Named("labels"),
	}, nil
}

// Print re-encodes labels into the printer code page and sends them as
// one job. Characters the code page lacks are replaced.
func (p *Printer) Print(ctx context.Context, labels string) error {
	if strings.TrimSpace(labels) == "" {
		return fmt.Errorf("%w: no labels to print", receipt.ErrValidation)
	}

	if p.target == "" {
		return ErrNoPrinter
	}

	data, err := xencoding.ReplaceUnsupported(p.codepage.NewEncoder()).Bytes([]byte(labels))
	if err != nil {
		return fmt.Errorf("encoding labels: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	w, err := p.open(ctx)
	if err != nil {
		return fmt.Errorf("opening label printer: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("writing labels: %w", err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("closing label printer: %w", err)
	}

	p.logger.Info("labels printed", zap.String("printer", p.target), zap.Int("bytes", len(data)))

	return nil
}

func (p *Printer) open(ctx context.Context) (io.WriteCloser, error) {
	addr, ok := strings.CutPrefix(p.target, tcpScheme)
	if !ok {
		return os.OpenFile(p.target, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	}

	var d net.Dialer

	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return conn, nil
}
