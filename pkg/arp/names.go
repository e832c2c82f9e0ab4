package arp

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownName is returned when an enum name cannot be resolved
var ErrUnknownName = errors.New("unknown name")

// lookup resolves text against slugs, display names, or a decimal index.
func lookup(text string, slugs, names []string) (int, error) {
	s := strings.TrimSpace(text)
	for i := range slugs {
		if strings.EqualFold(s, slugs[i]) || strings.EqualFold(s, names[i]) {
			return i, nil
		}
	}
	if i, err := strconv.Atoi(s); err == nil {
		if i >= 0 && i < len(slugs) {
			return i, nil
		}
		return 0, fmt.Errorf("index %d out of range 0..%d", i, len(slugs)-1)
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownName, s)
}
