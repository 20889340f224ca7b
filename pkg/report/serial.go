package report

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"go.bug.st/serial"
)

const DefaultBaudRate = 115200

// SerialWriter streams reports as DATA lines.
type SerialWriter struct {
	port io.WriteCloser
}

func OpenSerial(name string, baud int) (*SerialWriter, error) {
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	port, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", name, err)
	}
	return NewSerialWriter(port), nil
}

func NewSerialWriter(w io.WriteCloser) *SerialWriter {
	return &SerialWriter{port: w}
}

func (s *SerialWriter) Write(r Report) error {
	if _, err := io.WriteString(s.port, Line(r)+"\n"); err != nil {
		return fmt.Errorf("serial: %w", err)
	}
	return nil
}

func (s *SerialWriter) Close() error {
	return s.port.Close()
}

// Run announces the format and then writes every report from input until
// input closes or ctx is done.
func (s *SerialWriter) Run(ctx context.Context, input <-chan Report) func() error {
	return func() error {
		defer s.Close()
		if _, err := io.WriteString(s.port, LineFormat+"\n"); err != nil {
			return fmt.Errorf("serial: %w", err)
		}
		slog.Debug("serial reporter started", "module", "report")
		for {
			select {
			case <-ctx.Done():
				return nil
			case r, ok := <-input:
				if !ok {
					return nil
				}
				if err := s.Write(r); err != nil {
					return err
				}
			}
		}
	}
}
