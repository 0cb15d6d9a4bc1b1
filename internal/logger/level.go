package logger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var levelStrings = map[string]zapcore.Level{
	"debug": zap.DebugLevel,
	"info":  zap.InfoLevel,
	"error": zap.ErrorLevel,
}

// ParseLevel converts a level name or a verbosity number into a zap level.
// Verbosity N enables logr V(N) messages; 0 is the same as "info". An empty
// string is "info".
func ParseLevel(value string) (zapcore.Level, error) {
	if value == "" {
		return zap.InfoLevel, nil
	}
	if level, ok := levelStrings[strings.ToLower(value)]; ok {
		return level, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 || n > 127 {
		return zap.InfoLevel, fmt.Errorf("invalid log level %q", value)
	}
	// zap levels run the other way round from logr verbosity.
	return zapcore.Level(int8(-n)), nil
}

// LevelFlagValue is a pflag.Value that applies the parsed level as soon
// as the flag is set.
type LevelFlagValue struct {
	onLevel func(zapcore.Level)
	value   string
}

// NewLevelFlagValue returns a flag value that calls onLevel on Set.
func NewLevelFlagValue(onLevel func(zapcore.Level)) *LevelFlagValue {
	return &LevelFlagValue{onLevel: onLevel}
}

func (v *LevelFlagValue) Set(s string) error {
	level, err := ParseLevel(s)
	if err != nil {
		return err
	}
	v.onLevel(level)
	v.value = s
	return nil
}

func (v *LevelFlagValue) String() string {
	return v.value
}

func (*LevelFlagValue) Type() string {
	return "level"
}

var _ pflag.Value = &LevelFlagValue{}
