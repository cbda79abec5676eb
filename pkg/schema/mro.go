package schema

import "github.com/pkg/errors"

// Linearize computes the C3 linearization of an object's inheritance graph
// from its declared bases, returning the ancestor sequence nearest first and
// excluding the object itself. The result is cached on the object by callers
// and recomputed only when the bases change.
func Linearize(snap *Snapshot, bases []Name) ([]Name, error) {
	if len(bases) == 0 {
		return nil, nil
	}

	// Sequences to merge: each base's own linearization (base first),
	// followed by the list of declared bases.
	var seqs [][]Name
	for _, b := range bases {
		base, err := snap.Get(b)
		if err != nil {
			return nil, errors.Wrap(err, "linearization failed")
		}
		seq := append([]Name{b}, base.Ancestors...)
		seqs = append(seqs, seq)
	}
	seqs = append(seqs, append([]Name(nil), bases...))

	return c3Merge(seqs)
}

// c3Merge merges the candidate sequences, repeatedly taking the first head
// that appears in no other sequence's tail.
func c3Merge(seqs [][]Name) ([]Name, error) {
	var out []Name

	for {
		nonempty := seqs[:0:0]
		for _, s := range seqs {
			if len(s) > 0 {
				nonempty = append(nonempty, s)
			}
		}
		if len(nonempty) == 0 {
			return out, nil
		}
		seqs = nonempty

		var head Name
		found := false
		for _, s := range seqs {
			candidate := s[0]
			if inAnyTail(candidate, seqs) {
				continue
			}
			head = candidate
			found = true
			break
		}
		if !found {
			return nil, errors.Errorf(
				"could not linearize inheritance graph: inconsistent hierarchy involving %q", seqs[0][0])
		}

		out = append(out, head)
		for i, s := range seqs {
			if len(s) > 0 && s[0] == head {
				seqs[i] = s[1:]
			}
		}
	}
}

func inAnyTail(n Name, seqs [][]Name) bool {
	for _, s := range seqs {
		for _, t := range s[1:] {
			if t == n {
				return true
			}
		}
	}
	return false
}
