package dispatcher

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// ErrFrameTooLarge 帧长度超过上限
var ErrFrameTooLarge = errors.New("frame too large")

// ReadFrame 读取一帧：4 字节大端长度 + 数据
func ReadFrame(r io.Reader, maxBytes int) ([]byte, error) {
	var lengthBuf [4]byte
	if _, err := io.ReadFull(r, lengthBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lengthBuf[:])
	if maxBytes > 0 && uint64(n) > uint64(maxBytes) {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", ErrFrameTooLarge, n, maxBytes)
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("failed to read %d byte frame: %w", n, err)
	}
	return data, nil
}

// WriteFrame 写入一帧
func WriteFrame(w io.Writer, data []byte) error {
	if uint64(len(data)) > math.MaxUint32 {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(data))
	}
	buf := make([]byte, 4+len(data))
	binary.BigEndian.PutUint32(buf, uint32(len(data)))
	copy(buf[4:], data)
	_, err := w.Write(buf)
	return err
}
