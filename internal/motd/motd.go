// Package motd loads the server's message-of-the-day file: plain UTF-8
// text, one display line per file line, grounded on the teacher's
// motdCommand (which sends one 372 RPL_MOTD line).
package motd

import (
	"bufio"
	"os"

	"github.com/pkg/errors"
)

// Load reads a MOTD file into a slice of display lines. A missing file is
// not an error here: the caller (MOTD/registration burst) is responsible
// for sending 422 ERR_NOMOTD when there are no lines, per spec.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "unable to open motd file %s", path)
	}
	defer func() { _ = f.Close() }()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "unable to read motd file %s", path)
	}

	return lines, nil
}
