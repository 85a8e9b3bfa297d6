// Package ovpn keeps the remote address of an OpenVPN client profile in sync
// with a candidate address. The file on disk is the only record of the
// current address.
package ovpn

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"ovpnsync/internal/types"
	"ovpnsync/internal/utils"
)

const (
	remotePrefix = "remote "
	ipv4Token    = `\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`
)

var (
	remotePattern  = regexp.MustCompile(remotePrefix + ipv4Token)
	addressPattern = regexp.MustCompile(`^` + ipv4Token + `$`)
)

var (
	// ErrNoRemote is returned when a profile has no remote line with an IPv4 address
	ErrNoRemote = errors.New("no remote line with an IPv4 address found")
	// ErrInvalidAddress is returned for a candidate the remote line could not hold
	ErrInvalidAddress = errors.New("not an IPv4 address")
)

// ValidAddress reports whether candidate is a bare dotted quad of the
// shape a remote line holds.
func ValidAddress(candidate string) bool {
	return addressPattern.MatchString(candidate)
}

// Result describes the outcome of a reconcile
type Result struct {
	// Recorded is the address found in the file before the reconcile
	Recorded string
	// Current is the address the file holds afterwards
	Current string
	// Changed reports whether the file was rewritten
	Changed bool
}

// RecordedAddress returns the address of the first remote line in doc
func RecordedAddress(doc string) (string, error) {
	match := remotePattern.FindString(doc)
	if match == "" {
		return "", ErrNoRemote
	}
	return match[len(remotePrefix):], nil
}

// Rewrite replaces the address of the first remote line in doc with
// candidate. Every other byte of doc is preserved, including later remote
// lines. The returned flag is false when doc already holds candidate.
// A candidate that is not a bare IPv4 address fails with ErrInvalidAddress.
func Rewrite(doc, candidate string) (string, Result, error) {
	if !ValidAddress(candidate) {
		return "", Result{}, fmt.Errorf("%w: %q", ErrInvalidAddress, candidate)
	}

	loc := remotePattern.FindStringIndex(doc)
	if loc == nil {
		return "", Result{}, ErrNoRemote
	}

	recorded := doc[loc[0]+len(remotePrefix) : loc[1]]
	res := Result{Recorded: recorded, Current: candidate}
	if recorded == candidate {
		return doc, res, nil
	}

	res.Changed = true
	return doc[:loc[0]] + remotePrefix + candidate + doc[loc[1]:], res, nil
}

// Reconcile makes the profile at path point at candidate. The file is only
// written when the recorded address differs, through a temp file in the
// same directory renamed over the original. A candidate that is not a
// bare IPv4 address is a ResolutionError and nothing is written.
func Reconcile(path, candidate string) (Result, error) {
	const op = "ovpn.Reconcile"

	if !ValidAddress(candidate) {
		return Result{}, types.NewError(types.KindResolution, op,
			fmt.Errorf("%w: %q", ErrInvalidAddress, utils.Truncate(candidate, 64)))
	}

	info, err := os.Stat(path)
	if err != nil {
		return Result{}, types.NewError(types.KindConfigParsing, op, fmt.Errorf("failed to stat %s: %w", path, err))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, types.NewError(types.KindConfigParsing, op, fmt.Errorf("failed to read %s: %w", path, err))
	}

	updated, res, err := Rewrite(string(data), candidate)
	if err != nil {
		return Result{}, types.NewError(types.KindConfigParsing, op, fmt.Errorf("%s: %w", path, err))
	}
	if !res.Changed {
		return res, nil
	}

	if err := utils.WriteFileAtomic(path, []byte(updated), info.Mode().Perm()); err != nil {
		return Result{}, types.NewError(types.KindConfigParsing, op, fmt.Errorf("failed to save %s: %w", path, err))
	}
	return res, nil
}
