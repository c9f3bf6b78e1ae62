package docs

import (
	"context"
	"errors"

	"github.com/jcdickinson/scaladex/internal/index"
	"github.com/jcdickinson/scaladex/internal/rpc"
)

// Load opens and parses the index at location.
func (f *Fetcher) Load(ctx context.Context, location string) (*index.PackageIndex, []byte, error) {
	data, err := f.Open(ctx, location)
	if err != nil {
		return nil, nil, err
	}
	idx, err := index.Parse(data)
	if err != nil {
		return nil, data, err
	}
	return idx, data, nil
}

// Check loads the index at location and validates it. Load and parse
// failures are reported in the result rather than returned.
func (f *Fetcher) Check(ctx context.Context, location string) rpc.ValidateResult {
	result := rpc.ValidateResult{Location: location}

	idx, _, err := f.Load(ctx, location)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	return CheckIndex(location, idx)
}

// CheckIndex validates an already parsed index and counts its contents.
func CheckIndex(location string, idx *index.PackageIndex) rpc.ValidateResult {
	result := rpc.ValidateResult{Location: location}
	result.Packages = idx.Len()
	for _, p := range idx.Packages() {
		result.Objects += len(p.Objects)
	}
	result.Members = idx.MemberCount()

	if err := index.Validate(idx); err != nil {
		var verr *index.ValidationError
		if !errors.As(err, &verr) {
			result.Error = err.Error()
			return result
		}
		for _, p := range verr.Problems {
			result.Problems = append(result.Problems, p.String())
		}
		return result
	}

	result.Valid = true
	return result
}
