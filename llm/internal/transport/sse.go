package transport

import (
	"bufio"
	"bytes"
	"io"
	"strings"
)

const doneMarker = "[DONE]"

const dataPrefix = "data:"

// ParseSSELine classifies one raw wire line.
//
// Rules, applied in order:
//   - surrounding whitespace is trimmed; blank lines are dropped
//   - a line containing the [DONE] marker terminates the stream (done=true)
//   - a "data:" prefix (case-insensitive) is stripped together with any
//     whitespace after the colon, and the remainder is the payload (ok=true)
//   - anything else (comments, event/id fields) is ignored
//
// Both the pull-based and the channel-based stream readers run every line
// through this one function, so the two paths cannot drift apart.
func ParseSSELine(line []byte) (data string, ok bool, done bool) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return "", false, false
	}
	s := string(line)
	if strings.Contains(s, doneMarker) {
		return "", false, true
	}
	if len(s) >= len(dataPrefix) && strings.EqualFold(s[:len(dataPrefix)], dataPrefix) {
		return strings.TrimSpace(s[len(dataPrefix):]), true, false
	}
	return "", false, false
}

// SSEScanner reads raw byte chunks line by line and yields the decoded data
// payloads. It returns io.EOF once the termination marker is seen or the
// underlying reader ends; after that no further bytes are consumed.
type SSEScanner struct {
	r    *bufio.Reader
	done bool
}

func NewSSEScanner(r io.Reader) *SSEScanner {
	return &SSEScanner{r: bufio.NewReader(r)}
}

func (s *SSEScanner) Next() (string, error) {
	if s.done {
		return "", io.EOF
	}
	for {
		line, err := s.r.ReadBytes('\n')
		if len(line) > 0 {
			data, ok, done := ParseSSELine(line)
			if done {
				s.done = true
				return "", io.EOF
			}
			if ok {
				return data, nil
			}
		}
		if err != nil {
			s.done = true
			if err == io.EOF {
				return "", io.EOF
			}
			return "", err
		}
	}
}
