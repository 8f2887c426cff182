// Package appx reads installed app packages from a host package listing.
//
// The listing is JSON: either an array of package objects or a single
// object, as emitted by `Get-AppxPackage | ConvertTo-Json`. The command
// that produces it is configured by the user; none is built in.
package appx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/raphi011/shelf/internal/cmd"
	"github.com/raphi011/shelf/internal/log"
	"github.com/raphi011/shelf/internal/resolve"
)

// ErrNoCommand is returned by List when no listing command is configured.
var ErrNoCommand = errors.New("no package listing command configured")

// Package is one entry of the listing.
type Package struct {
	Name                 string `json:"Name"`
	PackageFullName      string `json:"PackageFullName"`
	DisplayName          string `json:"DisplayName"`
	PublisherDisplayName string `json:"PublisherDisplayName"`
}

// Candidate converts the package for name resolution.
func (p Package) Candidate() resolve.Candidate {
	return resolve.Candidate{
		Key:     p.PackageFullName,
		RawName: p.Name,
		Hints: resolve.Hints{
			DisplayName: p.DisplayName,
			Publisher:   p.PublisherDisplayName,
		},
	}
}

// Decode parses a listing. Entries without Name or PackageFullName are dropped.
// Empty input is an empty listing.
func Decode(r io.Reader) ([]Package, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read package listing: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")) // PowerShell may emit a BOM
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	var pkgs []Package
	if data[0] == '{' {
		var single Package
		if err := json.Unmarshal(data, &single); err != nil {
			return nil, fmt.Errorf("parse package listing: %w", err)
		}
		pkgs = []Package{single}
	} else if err := json.Unmarshal(data, &pkgs); err != nil {
		return nil, fmt.Errorf("parse package listing: %w", err)
	}

	valid := pkgs[:0]
	for _, p := range pkgs {
		if p.Name == "" || p.PackageFullName == "" {
			continue
		}
		valid = append(valid, p)
	}
	return valid, nil
}

// List runs argv and decodes its stdout.
func List(ctx context.Context, argv []string) ([]Package, error) {
	if len(argv) == 0 || argv[0] == "" {
		return nil, ErrNoCommand
	}

	out, err := cmd.OutputContext(ctx, "", argv[0], argv[1:]...)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}

	pkgs, err := Decode(bytes.NewReader(out))
	if err != nil {
		return nil, err
	}
	log.FromContext(ctx).Debug("listed packages", "count", len(pkgs))
	return pkgs, nil
}

// Candidates converts packages in order.
func Candidates(pkgs []Package) []resolve.Candidate {
	items := make([]resolve.Candidate, len(pkgs))
	for i, p := range pkgs {
		items[i] = p.Candidate()
	}
	return items
}
