package domain

import (
	"strings"

	m "unpin.dev/pkg/unpin/internal/model"
)

const (
	methodEnd      = ".end method"
	methodPrefix   = ".method "
	headerPrefix   = ".method public "
	finalModifier  = "final "
	bodyIndent     = "    "
	commentPrefix  = "# "
	insertedMarker = "# inserted by unpin to disable certificate pinning"
	disabledMarker = "# commented out by unpin to disable the original method body"
)

// Patcher rewrites X509TrustManager methods into no-op implementations.
type Patcher interface {
	// Patch is a pure text transform. Content without any target method is
	// returned unchanged with Changed set to false.
	Patch(content string) m.PatchResult
	// Inspect lists the target methods content declares that are not patched yet.
	Inspect(content string) []m.MethodSignature
}

// PatcherOption configures a Patcher.
type PatcherOption func(*patcher)

// WithLineEnding selects how carriage returns are handled.
func WithLineEnding(lineEnding m.LineEnding) PatcherOption {
	return func(p *patcher) {
		p.lineEnding = lineEnding
	}
}

// WithSignatures replaces DefaultSignatures.
func WithSignatures(signatures ...m.MethodSignature) PatcherOption {
	return func(p *patcher) {
		p.signatures = signatures
	}
}

type patcher struct {
	lineEnding m.LineEnding
	signatures []m.MethodSignature
}

// NewPatcher creates a Patcher for DefaultSignatures with automatic line
// ending detection.
func NewPatcher(opts ...PatcherOption) Patcher {
	p := &patcher{
		lineEnding: m.LineEndingAuto,
		signatures: DefaultSignatures,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

func (p *patcher) Patch(content string) m.PatchResult {
	lines, cr := p.split(content)

	var applied []m.MethodSignature

	for _, signature := range p.signatures {
		var count int

		lines, cr, count = rewriteMethods(lines, cr, signature)
		if count > 0 {
			applied = append(applied, signature)
		}
	}

	if len(applied) == 0 {
		return m.PatchResult{Content: content}
	}

	patched := join(lines, cr)
	if patched == content {
		return m.PatchResult{Content: content}
	}

	return m.PatchResult{Changed: true, Content: patched, Methods: applied}
}

func (p *patcher) Inspect(content string) []m.MethodSignature {
	lines, _ := p.split(content)

	var found []m.MethodSignature

	for _, signature := range p.signatures {
		for i := range lines {
			if !isHeader(lines[i], signature) {
				continue
			}

			end, ok := findMethodEnd(lines, i)
			if ok && !isPatched(lines[i+1:end]) {
				found = append(found, signature)
				break
			}
		}
	}

	return found
}

// split breaks content into lines and strips carriage returns according to
// the line ending mode. cr[i] tells join to put the "\r" back on line i, so
// lines outside rewritten methods keep their original ending.
func (p *patcher) split(content string) ([]string, []bool) {
	lines := strings.Split(content, "\n")
	cr := make([]bool, len(lines))

	switch p.lineEnding {
	case m.LineEndingAuto:
		for i, line := range lines {
			if trimmed, ok := strings.CutSuffix(line, "\r"); ok {
				lines[i] = trimmed
				cr[i] = true
			}
		}
	case m.LineEndingCRLF:
		last := len(lines) - 1
		for i, line := range lines {
			lines[i] = strings.TrimSuffix(line, "\r")
			cr[i] = i < last
		}
	}

	return lines, cr
}

func join(lines []string, cr []bool) string {
	var b strings.Builder

	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}

		b.WriteString(line)

		if cr[i] {
			b.WriteByte('\r')
		}
	}

	return b.String()
}

// rewriteMethods replaces every well-formed, unpatched declaration of
// signature and returns the new lines and their carriage return flags with
// the number of rewritten methods.
func rewriteMethods(lines []string, cr []bool, signature m.MethodSignature) ([]string, []bool, int) {
	instructions, ok := replacementBodies[signature.Policy]
	if !ok {
		return lines, cr, 0
	}

	out := make([]string, 0, len(lines))
	outCR := make([]bool, 0, len(cr))
	count := 0

	for i := 0; i < len(lines); i++ {
		if !isHeader(lines[i], signature) {
			out = append(out, lines[i])
			outCR = append(outCR, cr[i])

			continue
		}

		end, ok := findMethodEnd(lines, i)
		if !ok || isPatched(lines[i+1:end]) {
			out = append(out, lines[i])
			outCR = append(outCR, cr[i])

			continue
		}

		block := rebuildMethod(lines[i], lines[i+1:end], lines[end], instructions)
		out = append(out, block...)

		// inserted lines take the header's ending, body and terminator keep their own
		inserted := len(block) - (end - i)
		for range inserted {
			outCR = append(outCR, cr[i])
		}

		outCR = append(outCR, cr[i+1:end+1]...)

		count++
		i = end
	}

	return out, outCR, count
}

func isHeader(line string, signature m.MethodSignature) bool {
	rest, ok := strings.CutPrefix(strings.TrimRight(line, " \t"), headerPrefix)
	if !ok {
		return false
	}

	rest = strings.TrimPrefix(rest, finalModifier)

	return rest == signature.String()
}

// findMethodEnd returns the index of the terminator closing the method
// declared at header. Methods do not nest, so another ".method" line before
// the terminator means the header is malformed.
func findMethodEnd(lines []string, header int) (int, bool) {
	for i := header + 1; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])

		if trimmed == methodEnd {
			return i, true
		}

		if strings.HasPrefix(trimmed, methodPrefix) {
			return 0, false
		}
	}

	return 0, false
}

func isPatched(body []string) bool {
	for _, line := range body {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		return trimmed == insertedMarker
	}

	return false
}

func rebuildMethod(header string, body []string, terminator string, instructions []string) []string {
	block := make([]string, 0, len(body)+len(instructions)+5)
	block = append(block, header, bodyIndent+insertedMarker)

	for _, instruction := range instructions {
		block = append(block, bodyIndent+instruction)
	}

	block = append(block, "", bodyIndent+disabledMarker)

	for _, line := range body {
		block = append(block, bodyIndent+commentPrefix+line)
	}

	block = append(block, terminator)

	for i := range block {
		block[i] = strings.TrimRight(block[i], " \t")
	}

	return block
}
