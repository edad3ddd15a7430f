package salesorders

import (
	"fmt"
	"regexp"
	"strconv"
)

const orderNumberPrefix = "SO"

var orderNumberRe = regexp.MustCompile(`^SO(\d+)$`)

// NextOrderNumber derives the number that follows last, the number of the most
// recently created order. An empty last starts the sequence at SO000001.
// A last value that is not SO<digits> is an ErrIntegrity.
func NextOrderNumber(last string) (string, error) {
	if last == "" {
		return FormatOrderNumber(1), nil
	}
	m := orderNumberRe.FindStringSubmatch(last)
	if m == nil {
		return "", fmt.Errorf("%w: malformed order number %q", ErrIntegrity, last)
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return "", fmt.Errorf("%w: order number %q: %v", ErrIntegrity, last, err)
	}
	return FormatOrderNumber(n + 1), nil
}

// FormatOrderNumber renders n as SO followed by at least six digits.
func FormatOrderNumber(n int64) string {
	return fmt.Sprintf("%s%06d", orderNumberPrefix, n)
}
