// Package parseapi is the seam between the compiler and the (out-of-scope)
// SongLang surface parser. It names only the interface the compiler and the
// control-plane CLI require of a parser, plus the error shapes a file-attributed
// load reports — it is intentionally thin, mirroring how the teacher's
// internal/asm treats "where did this error come from" as the only parser
// concern the rest of the program needs to know about.
package parseapi

import (
	"fmt"

	"github.com/ischeinkman/seqcore/internal/lang"
)

// Parser turns SongLang source bytes into an AST. The concrete lexer/parser
// implementing this is an external collaborator (see spec §1); this module
// only consumes it.
type Parser interface {
	Parse(source []byte) ([]lang.LangItem, error)
}

// LoadError attributes a parse or compile failure to the file it came from,
// matching the CLI's "abort with a non-zero status and a message naming the
// offending file and error" contract (spec §6.4, §7).
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// LoadFile reads path, hands its bytes to p, and wraps any failure in a
// LoadError naming path.
func LoadFile(p Parser, readFile func(path string) ([]byte, error), path string) ([]lang.LangItem, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	items, err := p.Parse(data)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return items, nil
}
