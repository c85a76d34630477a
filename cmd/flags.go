package cmd

import (
	"fmt"

	"github.com/spf13/pflag"
)

// enumFlag is a pflag.Value restricted to the names its parse func accepts
type enumFlag[T ~string] struct {
	parse func(string) (T, bool)
	typ   string
	value T
	set   bool
}

var (
	_ pflag.Value = (*enumFlag[string])(nil)
)

func (f *enumFlag[T]) String() string { return string(f.value) }

func (f *enumFlag[T]) Type() string { return f.typ }

func (f *enumFlag[T]) Set(s string) error {
	v, ok := f.parse(s)
	if !ok {
		return fmt.Errorf("invalid %s %q", f.typ, s)
	}
	f.value, f.set = v, true
	return nil
}

// reset clears the flag between invocations in tests
func (f *enumFlag[T]) reset() {
	var zero T
	f.value, f.set = zero, false
}
