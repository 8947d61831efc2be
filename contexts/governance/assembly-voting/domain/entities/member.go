package entities

import (
	"strings"
	"time"
)

type Member struct {
	MemberID   int64
	Name       string
	NationalID string
	Email      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NormalizeNationalID strips the punctuation commonly typed in CPF numbers.
func NormalizeNationalID(raw string) string {
	replacer := strings.NewReplacer(".", "", "-", "", " ", "")
	return replacer.Replace(strings.TrimSpace(raw))
}

func IsValidNationalID(value string) bool {
	if len(value) != 11 {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
