package rpc

import (
	"io"
	"os"
)

// Stdio returns a stream over the process's standard input and output.
// Closing it does not close either.
func Stdio() io.ReadWriteCloser {
	return &stdioReadWriteCloser{
		read:  os.Stdin,
		write: os.Stdout,
	}
}

// Pipe joins a reader and a writer into a stream.
func Pipe(r io.Reader, w io.Writer) io.ReadWriteCloser {
	return &stdioReadWriteCloser{read: r, write: w}
}

type stdioReadWriteCloser struct {
	read  io.Reader
	write io.Writer
}

func (s *stdioReadWriteCloser) Read(p []byte) (n int, err error) {
	return s.read.Read(p)
}

func (s *stdioReadWriteCloser) Write(p []byte) (n int, err error) {
	return s.write.Write(p)
}

func (s *stdioReadWriteCloser) Close() error {
	return nil
}
