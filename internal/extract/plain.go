package extract

import (
	"fmt"
	"unicode/utf8"
)

func extractPlain(content []byte) (string, error) {
	if !utf8.Valid(content) {
		return "", fmt.Errorf("%w: not valid UTF-8", ErrCorruptInput)
	}
	return string(content), nil
}
