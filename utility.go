package astrolog

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
)

// argDumper renders structured log arguments without pointer noise.
var argDumper = &spew.ConfigState{
	Indent:                  " ",
	MaxDepth:                10,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// fmtErrorf wrapper, keeps the package prefix on every error
func fmtErrorf(format string, args ...any) error {
	if !strings.HasPrefix(format, "astrolog: ") {
		format = "astrolog: " + format
	}
	return fmt.Errorf(format, args...)
}

// stringifyArgs joins log arguments with spaces. Scalar types convert
// directly; structs, maps and the rest go through spew for a compact,
// deterministic dump.
func stringifyArgs(args []any) string {
	var b strings.Builder
	for i, arg := range args {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(stringifyValue(arg))
	}
	return b.String()
}

func stringifyValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint:
		return strconv.FormatUint(uint64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return "nil"
	case time.Time:
		return val.Format(time.RFC3339)
	case error:
		return val.Error()
	case fmt.Stringer:
		return val.String()
	default:
		var buf bytes.Buffer
		argDumper.Fdump(&buf, val)
		return string(bytes.TrimSpace(buf.Bytes()))
	}
}

// sanitizePrefix validates a file name prefix. Empty prefixes or prefixes
// containing path or wildcard characters fall back to the default literal.
func sanitizePrefix(prefix string) string {
	if strings.TrimSpace(prefix) == "" {
		return DefaultFilePrefix
	}
	if strings.ContainsAny(prefix, invalidPrefixRunes) {
		return DefaultFilePrefix
	}
	return prefix
}

// generalLogFileName builds "<prefix> <dd-mm (hh-mm-ss)>.log".
func generalLogFileName(prefix string, t time.Time) string {
	return sanitizePrefix(prefix) + " " + t.Format(generalStampLayout) + logExtension
}

// crashFileName builds "Crash <dd-mm (hh-mm-ss tt)>.crash".
func crashFileName(t time.Time) string {
	return crashFilePrefix + " " + t.Format(crashStampLayout) + crashExtension
}

// copyFile duplicates src at dst, used by Move when the original is kept.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
