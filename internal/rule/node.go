// Package rule builds rsync command lines from a rule document.
//
// A rule is a small tree of nodes (Options, Log, Source, Destination and
// their SSH endpoints). Each node is constructed from an untyped mapping
// through its FieldSpec table and contributes optional arguments (flags)
// and positional arguments (endpoints) for a given point in time.
package rule

import "time"

// Node is a rule element that contributes rsync arguments.
type Node interface {
	// OptionalArgs returns flag tokens in a stable order.
	OptionalArgs(at time.Time) ([]string, error)
	// PositionalArgs returns endpoint tokens, source before destination.
	PositionalArgs(at time.Time) ([]string, error)
}

// aggregate concatenates the contributions of nodes in order. Nil nodes are
// skipped.
func aggregate(at time.Time, positional bool, nodes ...Node) ([]string, error) {
	var args []string
	for _, n := range nodes {
		if n == nil {
			continue
		}
		var (
			part []string
			err  error
		)
		if positional {
			part, err = n.PositionalArgs(at)
		} else {
			part, err = n.OptionalArgs(at)
		}
		if err != nil {
			return nil, err
		}
		args = append(args, part...)
	}
	return args, nil
}

// asNode converts a possibly nil *SSH into a Node without a typed nil inside.
func asNode(s *SSH) Node {
	if s == nil {
		return nil
	}
	return s
}
