package utils

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// IdGenerator hands out identifiers for scans and findings.
type IdGenerator interface {
	Generate() string
}

type UuidIdGenerator struct {
}

func (u UuidIdGenerator) Generate() string {
	return uuid.New().String()
}

// SequenceIdGenerator returns Prefix-1, Prefix-2, ... and is meant for tests.
type SequenceIdGenerator struct {
	Prefix string
	next   int
}

func (s *SequenceIdGenerator) Generate() string {
	s.next++
	return fmt.Sprintf("%s-%d", s.Prefix, s.next)
}

func Contains[T comparable](slice []T, element T) bool {
	for _, v := range slice {
		if v == element {
			return true
		}
	}
	return false
}

func Sanitize(name string) string {
	s := name
	s = strings.ReplaceAll(s, "https://", "")
	s = strings.ReplaceAll(s, "http://", "")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, ":", "_")
	s = strings.ToLower(s)

	return s
}
