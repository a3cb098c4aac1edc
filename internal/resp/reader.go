package resp

import (
	"bytes"
	"strconv"
)

var crlf = []byte("\r\n")

// Next parses one complete RESP array-of-bulk-strings frame from the
// front of buf. It does not require buf to end on a frame boundary: if
// buf holds a partial frame it returns ErrShortBuffer and the caller
// should read more bytes and retry with the same (or a longer) buffer.
// On success it returns a pooled *Request (caller must call Put when
// done with it) and the number of bytes the frame occupied, which the
// caller advances its residue buffer by.
//
// This mirrors the teacher's sync.Pool-backed Request allocation
// (proto/redis/request.go getReq/newReq) and the original source's
// parse_input_array_bytes byte accounting (app/processor/resp_coder.py).
func Next(buf []byte) (*Request, int, error) {
	if len(buf) == 0 {
		return nil, 0, ErrShortBuffer
	}
	if buf[0] != typeArray {
		return nil, 0, ErrMalformed
	}

	lineEnd := bytes.Index(buf, crlf)
	if lineEnd < 0 {
		return nil, 0, ErrShortBuffer
	}
	n, err := strconv.Atoi(string(buf[1:lineEnd]))
	if err != nil || n < 0 {
		return nil, 0, ErrMalformed
	}

	pos := lineEnd + 2
	argv := make([]string, 0, n)
	for i := 0; i < n; i++ {
		if pos >= len(buf) {
			return nil, 0, ErrShortBuffer
		}
		if buf[pos] != typeBulk {
			return nil, 0, ErrMalformed
		}
		elemLineEnd := bytes.Index(buf[pos:], crlf)
		if elemLineEnd < 0 {
			return nil, 0, ErrShortBuffer
		}
		elemLineEnd += pos
		strLen, err := strconv.Atoi(string(buf[pos+1 : elemLineEnd]))
		if err != nil || strLen < 0 {
			return nil, 0, ErrMalformed
		}
		dataStart := elemLineEnd + 2
		dataEnd := dataStart + strLen
		if dataEnd+2 > len(buf) {
			return nil, 0, ErrShortBuffer
		}
		if buf[dataEnd] != '\r' || buf[dataEnd+1] != '\n' {
			return nil, 0, ErrMalformed
		}
		argv = append(argv, string(buf[dataStart:dataEnd]))
		pos = dataEnd + 2
	}

	req := getRequest()
	req.argv = argv
	req.raw = append([]byte(nil), buf[:pos]...)
	return req, pos, nil
}
