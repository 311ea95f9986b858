package utils

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

func GenerateRequestID() string {
	return fmt.Sprintf("%d%x", time.Now().UnixNano(), rand.Intn(10000))
}

// FormatID keeps the digits of id and, when there are at least 7 of them,
// groups them as ###-###-#... Shorter ids are returned as bare digits.
func FormatID(id string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, id)
	if len(digits) < 7 {
		return digits
	}
	return digits[0:3] + "-" + digits[3:6] + "-" + digits[6:]
}
