// Package nativemsg implements the Chrome/Firefox native-messaging wire
// format: each message is a UTF-8 JSON document prefixed with its
// length as a 4-byte little-endian uint32. A frame larger than
// maxFrameSize is malformed and discarded without closing the stream.
package nativemsg

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/grabkit/companion/internal/apperr"
	"github.com/grabkit/companion/internal/model"
)

// maxFrameSize caps a single frame's JSON body.
const maxFrameSize = 1 << 20 // 1 MiB

// Codec reads and writes native-messaging frames over a pair of byte
// streams, typically os.Stdin/os.Stdout when this process is launched
// by the browser as a native messaging host.
type Codec struct {
	r *bufio.Reader

	writeMu sync.Mutex
	w       io.Writer
}

// New builds a Codec over r and w.
func New(r io.Reader, w io.Writer) *Codec {
	return &Codec{r: bufio.NewReader(r), w: w}
}

// Send encodes msg and writes it as a single length-prefixed frame.
// Concurrent Send calls are serialized so frames are never interleaved.
func (c *Codec) Send(msg model.Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("nativemsg: marshal: %w", err)
	}
	if len(body) > maxFrameSize {
		return fmt.Errorf("%w: outgoing frame of %d bytes exceeds %d byte cap", apperr.ErrTransportMalformed, len(body), maxFrameSize)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	var header [4]byte
	binary.LittleEndian.PutUint32(header[:], uint32(len(body)))
	if _, err := c.w.Write(header[:]); err != nil {
		return fmt.Errorf("nativemsg: write header: %w", err)
	}
	if _, err := c.w.Write(body); err != nil {
		return fmt.Errorf("nativemsg: write body: %w", err)
	}
	return nil
}

// ReadFrame blocks until one frame's raw bytes have been read, or
// returns io.EOF when the peer closed the stream. A frame that exceeds
// maxFrameSize or fails to parse its length header returns
// apperr.ErrTransportMalformed; the caller should log and continue
// reading rather than close the connection, since one bad frame does
// not imply the stream itself is broken.
func (c *Codec) ReadFrame() ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(c.r, header[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("%w: truncated length header", apperr.ErrTransportMalformed)
		}
		return nil, err
	}

	length := binary.LittleEndian.Uint32(header[:])
	if length > maxFrameSize {
		// Drain and discard so the stream stays byte-aligned for the next
		// frame rather than desyncing on partial reads.
		if _, err := io.CopyN(io.Discard, c.r, int64(length)); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: frame of %d bytes exceeds %d byte cap", apperr.ErrTransportMalformed, length, maxFrameSize)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(c.r, body); err != nil {
		return nil, fmt.Errorf("%w: truncated frame body", apperr.ErrTransportMalformed)
	}
	return body, nil
}

// Loop reads frames until the stream closes or ctx-like cancellation is
// signalled by the caller returning a non-nil error from onFrame. A
// malformed frame is reported to onMalformed and the loop continues.
func (c *Codec) Loop(onFrame func(raw []byte) error, onMalformed func(error)) error {
	for {
		raw, err := c.ReadFrame()
		if err != nil {
			if isMalformed(err) {
				if onMalformed != nil {
					onMalformed(err)
				}
				continue
			}
			if err == io.EOF {
				return nil
			}
			return err
		}
		if err := onFrame(raw); err != nil {
			return err
		}
	}
}

func isMalformed(err error) bool {
	return err != nil && errors.Is(err, apperr.ErrTransportMalformed)
}
