package receipt

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"go-pos-terminal/internal/models"

	"github.com/sirupsen/logrus"
)

// Printer sends rendered tickets to a device stream, or drops them as files
// into a spool directory picked up by the print daemon.
type Printer struct {
	header Header
	out    io.Writer
	dir    string
	log    logrus.FieldLogger
	mu     sync.Mutex
}

func NewWriterPrinter(w io.Writer, h Header, log logrus.FieldLogger) *Printer {
	return &Printer{header: h, out: w, log: log.WithField("module", "receipt")}
}

func NewSpoolPrinter(dir string, h Header, log logrus.FieldLogger) (*Printer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create spool dir: %w", err)
	}
	return &Printer{header: h, dir: dir, log: log.WithField("module", "receipt")}, nil
}

func (p *Printer) Print(inv *models.Invoice) error {
	ticket := Render(inv, p.header)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.out != nil {
		_, err := io.WriteString(p.out, ticket)
		return err
	}

	name := filepath.Join(p.dir, inv.InvoiceNumber+".txt")
	tmp := name + ".part"
	if err := os.WriteFile(tmp, []byte(ticket), 0o644); err != nil {
		return fmt.Errorf("spool receipt: %w", err)
	}
	if err := os.Rename(tmp, name); err != nil {
		return fmt.Errorf("spool receipt: %w", err)
	}
	p.log.WithField("file", name).Debug("receipt spooled")
	return nil
}
