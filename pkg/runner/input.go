package runner

import (
	"strconv"
	"strings"

	"github.com/aretw0/storefront/pkg/domain"
)

// ParseLine turns a console line into an event.
//
//	/start, /cancel   commands
//	3                 taps the third button of the last reply
//	#5|p-salmon       taps a raw callback token
//	anything else     free text
func ParseLine(line string, buttons [][]domain.Button) domain.Event {
	line = strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(line, "/"):
		return domain.Command(line)
	case strings.HasPrefix(line, "#") && len(line) > 1:
		return domain.Callback(line[1:])
	}
	if n, err := strconv.Atoi(line); err == nil {
		if b, ok := buttonAt(buttons, n); ok {
			return domain.Callback(b.Token)
		}
	}
	return domain.Text(line)
}

// buttonAt returns the n-th button (1-based) in row-major order.
func buttonAt(buttons [][]domain.Button, n int) (domain.Button, bool) {
	if n < 1 {
		return domain.Button{}, false
	}
	i := 1
	for _, row := range buttons {
		for _, b := range row {
			if i == n {
				return b, true
			}
			i++
		}
	}
	return domain.Button{}, false
}
