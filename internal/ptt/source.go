package ptt

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os/exec"
	"strings"
)

// FlagSource resolves a package's declared USE flags and produces
// constraint-satisfying flag combinations. It is an interface so the
// sampling strategy can be swapped out, and so the matrix logic can be
// tested against a stub that returns fixed combinations.
type FlagSource interface {
	PackageFlags(atom string) (iuse []string, requiredUse []string, err error)
	UseCombinations(iuse, requiredUse []string, max int) ([][]string, error)
}

// portageSource answers flag queries from the live portage installation.
// IUSE and REQUIRED_USE come from portageq; REQUIRED_USE satisfaction is
// delegated to portage's own checker through a python one-liner, so this
// tool never interprets the constraint grammar itself.
type portageSource struct {
	exec *Executor

	// checkRequiredUseFn is the constraint checker; swappable in tests.
	checkRequiredUseFn func(requiredUse, enabled, iuse []string) (bool, error)
}

func newPortageSource(execCtx *Executor) *portageSource {
	s := &portageSource{exec: execCtx}
	s.checkRequiredUseFn = s.checkRequiredUse
	return s
}

func (s *portageSource) PackageFlags(atom string) ([]string, []string, error) {
	cpv := depGetCPV(atom)

	var out bytes.Buffer
	cmd := exec.Command("portageq", "metadata", "/", "ebuild", cpv, "IUSE", "REQUIRED_USE")
	cmd.Stdout = &out
	if err := s.exec.Run(cmd); err != nil {
		return nil, nil, fmt.Errorf("portageq metadata failed for %s: %w", cpv, err)
	}

	iuse, requiredUse := parsePortageqMetadata(out.String())
	return iuse, requiredUse, nil
}

// parsePortageqMetadata splits portageq's two-line IUSE/REQUIRED_USE answer.
// IUSE tokens may carry +/- default markers that are not part of the flag
// name.
func parsePortageqMetadata(out string) (iuse []string, requiredUse []string) {
	lines := strings.SplitN(out, "\n", 2)

	for _, tok := range strings.Fields(lines[0]) {
		tok = strings.TrimLeft(tok, "+-")
		if tok != "" {
			iuse = append(iuse, tok)
		}
	}

	if len(lines) > 1 {
		if expr := strings.TrimSpace(lines[1]); expr != "" {
			requiredUse = append(requiredUse, expr)
		}
	}
	return iuse, requiredUse
}

// check_required_use takes the enabled USE list plus an iuse_match callable;
// exit 1 means unsatisfied, anything else is a checker failure and must not
// be mistaken for an unsatisfied constraint.
const checkRequiredUseScript = `import sys
from portage.dep import check_required_use
expr, use, iuse = sys.argv[1], sys.argv[2].split(), set(sys.argv[3].split())
try:
    ok = check_required_use(expr, use, lambda flag: flag in iuse)
except Exception as e:
    print(e, file=sys.stderr)
    sys.exit(2)
sys.exit(0 if ok else 1)
`

// checkRequiredUse asks portage whether the enabled set satisfies the
// REQUIRED_USE expression. An empty expression is trivially satisfied.
func (s *portageSource) checkRequiredUse(requiredUse, enabled, iuse []string) (bool, error) {
	expr := strings.TrimSpace(strings.Join(requiredUse, " "))
	if expr == "" {
		return true, nil
	}

	var stderr bytes.Buffer
	cmd := exec.Command("python3", "-c", checkRequiredUseScript,
		expr, strings.Join(enabled, " "), strings.Join(iuse, " "))
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr

	err := s.exec.Run(cmd)
	if err == nil {
		return true, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return false, nil
	}
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		return false, fmt.Errorf("REQUIRED_USE check failed: %s: %w", msg, err)
	}
	return false, fmt.Errorf("REQUIRED_USE check failed: %w", err)
}

// UseCombinations samples up to max flag assignments that satisfy
// REQUIRED_USE. Every declared flag appears in each combination, either
// bare (enabled) or '-'-prefixed (disabled). Candidates are drawn in random
// order over the full assignment space; with many flags the space is
// sampled rather than enumerated.
func (s *portageSource) UseCombinations(iuse, requiredUse []string, max int) ([][]string, error) {
	n := len(iuse)
	if n == 0 || max <= 0 {
		return nil, nil
	}

	var combinations [][]string

	tryMask := func(mask uint64) (bool, error) {
		enabled := make([]string, 0, n)
		flags := make([]string, 0, n)
		for i, flag := range iuse {
			if mask&(1<<uint(i)) != 0 {
				enabled = append(enabled, flag)
				flags = append(flags, flag)
			} else {
				flags = append(flags, "-"+flag)
			}
		}
		ok, err := s.checkRequiredUseFn(requiredUse, enabled, iuse)
		if err != nil {
			return false, err
		}
		if ok {
			combinations = append(combinations, flags)
		}
		return len(combinations) >= max, nil
	}

	if n <= 20 {
		// Small space: walk a random permutation of every assignment.
		for _, m := range rand.Perm(1 << uint(n)) {
			full, err := tryMask(uint64(m))
			if err != nil {
				return nil, err
			}
			if full {
				break
			}
		}
		return combinations, nil
	}

	// Large space: random draws, bounded so an unsatisfiable constraint
	// cannot spin forever.
	seen := make(map[uint64]struct{})
	for attempts := 0; attempts < max*1000; attempts++ {
		mask := rand.Uint64()
		if n < 64 {
			mask &= (1 << uint(n)) - 1
		}
		if _, dup := seen[mask]; dup {
			continue
		}
		seen[mask] = struct{}{}
		full, err := tryMask(mask)
		if err != nil {
			return nil, err
		}
		if full {
			break
		}
	}
	return combinations, nil
}
