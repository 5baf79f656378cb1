package oaihttp

import (
	"bufio"
	"io"
	"strings"
)

const streamDone = "[DONE]"

// readEvents calls onData with the joined data lines of each server-sent
// event. It returns at the [DONE] sentinel, at EOF, or on the first onData
// error. Event names and comments are ignored.
func readEvents(r io.Reader, onData func(data string) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), 4<<20)

	var data []string
	dispatch := func() (bool, error) {
		if len(data) == 0 {
			return false, nil
		}
		payload := strings.Join(data, "\n")
		data = data[:0]
		if strings.TrimSpace(payload) == streamDone {
			return true, nil
		}
		return false, onData(payload)
	}

	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			done, err := dispatch()
			if done || err != nil {
				return err
			}
			continue
		}
		if v, ok := strings.CutPrefix(line, "data:"); ok {
			data = append(data, strings.TrimSpace(v))
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	_, err := dispatch()
	return err
}
