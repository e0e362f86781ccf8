package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/v2"
)

// source resolves a single setting: changed flag, then env, then file, then default
type source struct {
	file  *koanf.Koanf
	flags map[string]string
	errs  []error
}

func (s *source) lookup(key, env string) (string, bool) {
	if v, ok := s.flags[key]; ok && v != "" {
		return v, true
	}
	if v := os.Getenv(env); v != "" {
		return v, true
	}
	if s.file.Exists(key) {
		return s.file.String(key), true
	}
	return "", false
}

func (s *source) str(key, env, defaultValue string) string {
	if v, ok := s.lookup(key, env); ok {
		return v
	}
	return defaultValue
}

func (s *source) intVal(key, env string, defaultValue int) int {
	v, ok := s.lookup(key, env)
	if !ok {
		return defaultValue
	}

	intValue, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		s.errs = append(s.errs, fmt.Errorf("%s must be an integer, got %q", env, v))
		return defaultValue
	}

	return intValue
}

// intRange reads an integer and rejects values outside [lo, hi]
func (s *source) intRange(key, env string, defaultValue, lo, hi int) int {
	v := s.intVal(key, env, defaultValue)
	if v < lo || v > hi {
		s.errs = append(s.errs, fmt.Errorf("%s must be between %d and %d, got %d", env, lo, hi, v))
		return defaultValue
	}
	return v
}

func (s *source) boolVal(key, env string, defaultValue bool) bool {
	v, ok := s.lookup(key, env)
	if !ok {
		return defaultValue
	}

	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		s.errs = append(s.errs, fmt.Errorf("%s must be a boolean, got %q", env, v))
		return defaultValue
	}

	return b
}

// seconds reads a positive integer number of seconds
func (s *source) seconds(key, env string, defaultValue time.Duration) time.Duration {
	seconds := s.intRange(key, env, int(defaultValue/time.Second), 1, math.MaxInt32)
	return time.Duration(seconds) * time.Second
}

func (s *source) slice(key, env string, defaultValue []string) []string {
	if v := os.Getenv(env); v != "" {
		return splitList(v, defaultValue)
	}
	if s.file.Exists(key) {
		if list := s.file.Strings(key); len(list) > 0 {
			return list
		}
		return splitList(s.file.String(key), defaultValue)
	}
	return defaultValue
}

// splitList splits by comma and trims whitespace
func splitList(value string, defaultValue []string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}

	return result
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
